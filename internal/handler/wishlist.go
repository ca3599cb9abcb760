package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/service"
)

type WishlistHandler struct {
	registry *service.Registry
	products *service.ProductService
}

func NewWishlistHandler(registry *service.Registry, products *service.ProductService) *WishlistHandler {
	return &WishlistHandler{registry: registry, products: products}
}

func (h *WishlistHandler) Get(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sf.Wishlist.Wishlist())
}

func (h *WishlistHandler) Add(c *gin.Context) {
	var req dto.WishlistItemRequest
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
	c.JSON(http.StatusCreated, sf.Wishlist.Add(c.Request.Context(), *product))
}

func (h *WishlistHandler) Remove(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	wl, err := sf.Wishlist.Remove(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeWishlistError(c, err)
		return
	}
	c.JSON(http.StatusOK, wl)
}

func (h *WishlistHandler) MoveToCart(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	cart, err := sf.Wishlist.MoveToCart(c.Request.Context(), c.Param("id"), sf.Cart)
	if err != nil {
		writeWishlistError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *WishlistHandler) Clear(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sf.Wishlist.Clear(c.Request.Context()))
}

func writeWishlistError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotInWishlist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not in wishlist"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
