package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type CartHandler struct {
	registry *service.Registry
	products *service.ProductService
}

func NewCartHandler(registry *service.Registry, products *service.ProductService) *CartHandler {
	return &CartHandler{registry: registry, products: products}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(sf.Cart.Cart()))
}

func (h *CartHandler) Quote(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sf.Cart.Quote())
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	product, ok := lookupProduct(c, h.products, req.ProductID)
	if !ok {
		return
	}
	cart := sf.Cart.Add(c.Request.Context(), *product, req.Quantity, req.Size, req.Color)
	c.JSON(http.StatusCreated, dto.NewCartResponse(cart))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	cart, err := sf.Cart.SetQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	cart, err := sf.Cart.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeCartError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) Clear(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(sf.Cart.Clear(c.Request.Context())))
}

// Reorder puts the lines of one of the caller's orders back into the cart.
func (h *CartHandler) Reorder(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	order, err := sf.Orders.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(sf.Cart.Reorder(c.Request.Context(), order)))
}

func writeCartError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrCartItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func lookupProduct(c *gin.Context, products *service.ProductService, id string) (*model.Product, bool) {
	product, err := products.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return nil, false
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable, please try again"})
		return nil, false
	}
	return product, true
}
