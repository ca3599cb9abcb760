package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type OrderHandler struct {
	registry *service.Registry
}

func NewOrderHandler(registry *service.Registry) *OrderHandler {
	return &OrderHandler{registry: registry}
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	orders := sf.Orders.Orders()
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: orders, Total: len(orders)})
}

func (h *OrderHandler) ListActive(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	orders := sf.Orders.Active()
	c.JSON(http.StatusOK, dto.OrderListResponse{Orders: orders, Total: len(orders)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	order, err := sf.Orders.Get(c.Param("id"))
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	h.setStatus(c, model.OrderStatusCancelled)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.setStatus(c, req.Status)
}

func (h *OrderHandler) setStatus(c *gin.Context, status model.OrderStatus) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	id := c.Param("id")
	if err := sf.Orders.UpdateStatus(c.Request.Context(), id, status); err != nil {
		writeOrderError(c, err)
		return
	}
	order, err := sf.Orders.Get(id)
	if err != nil {
		writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
	case errors.Is(err, service.ErrOrderNotCancellable), errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
