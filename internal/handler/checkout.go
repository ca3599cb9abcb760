package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/service"
)

type CheckoutHandler struct {
	registry *service.Registry
	log      *slog.Logger
}

func NewCheckoutHandler(registry *service.Registry, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{registry: registry, log: log}
}

func (h *CheckoutHandler) Start(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	if len(sf.Cart.Cart().Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cart is empty"})
		return
	}
	co, err := sf.StartCheckout()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCheckoutStateResponse(co.View()))
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewCheckoutStateResponse(sf.Checkout().View()))
}

func (h *CheckoutHandler) Shipping(c *gin.Context) {
	var req dto.ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	res, err := sf.Checkout().SubmitShipping(req.Address())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeResult(c, res)
}

func (h *CheckoutHandler) Payment(c *gin.Context) {
	var req dto.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	res, err := sf.Checkout().SubmitPayment(c.Request.Context(), req.Form())
	if err != nil {
		if errors.Is(err, service.ErrStoreRebound) {
			c.JSON(http.StatusConflict, dto.NewCheckoutResponse(res))
			return
		}
		if res.Error != "" {
			h.log.Error("place order failed", "error", err)
			c.JSON(http.StatusInternalServerError, dto.NewCheckoutResponse(res))
			return
		}
		h.writeError(c, err)
		return
	}
	h.writeResult(c, res)
}

func (h *CheckoutHandler) Back(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	res, err := sf.Checkout().Back()
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.writeResult(c, res)
}

func (h *CheckoutHandler) writeResult(c *gin.Context, res service.CheckoutResult) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, dto.NewCheckoutResponse(res))
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCheckoutInProgress), errors.Is(err, service.ErrCheckoutStep):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
