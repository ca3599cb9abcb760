package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

type ProductHandler struct {
	productService *service.ProductService
}

func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var products []model.Product
	if req.Category != "" {
		products = h.productService.ByCategory(c.Request.Context(), req.Category)
	} else {
		products = h.productService.List(c.Request.Context())
	}
	c.JSON(http.StatusOK, paginate(products, req.Page, req.Limit))
}

func (h *ProductHandler) Featured(c *gin.Context) {
	products := h.productService.Featured(c.Request.Context())
	c.JSON(http.StatusOK, dto.ProductListResponse{Products: products, Total: len(products), Page: 1, Limit: len(products)})
}

func (h *ProductHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.productService.Categories(c.Request.Context())})
}

func (h *ProductHandler) Search(c *gin.Context) {
	products := h.productService.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, dto.ProductListResponse{Products: products, Total: len(products), Page: 1, Limit: len(products)})
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.productService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable, please try again"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func paginate(all []model.Product, page, limit int) dto.ProductListResponse {
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return dto.ProductListResponse{Products: all[start:end], Total: len(all), Page: page, Limit: limit}
}
