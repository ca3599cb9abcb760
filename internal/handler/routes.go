package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/middleware"
)

type Handlers struct {
	Health   *HealthHandler
	Auth     *AuthHandler
	Product  *ProductHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Order    *OrderHandler
	Checkout *CheckoutHandler
}

// RegisterRoutes mounts the storefront API. Cart and wishlist work for
// guests; orders and checkout need a signed-in user.
func RegisterRoutes(router *gin.Engine, h Handlers, jwtSecret string) {
	router.GET("/healthz", h.Health.Healthz)
	router.GET("/readyz", h.Health.Readyz)

	v1 := router.Group("/api/v1", middleware.Auth(jwtSecret))
	{
		products := v1.Group("/products")
		products.GET("", h.Product.List)
		products.GET("/featured", h.Product.Featured)
		products.GET("/categories", h.Product.Categories)
		products.GET("/search", h.Product.Search)
		products.GET("/:id", h.Product.GetByID)

		auth := v1.Group("/auth")
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", middleware.RequireUser(), h.Auth.Logout)
		auth.GET("/me", middleware.RequireUser(), h.Auth.Me)

		cart := v1.Group("/cart")
		cart.GET("", h.Cart.GetCart)
		cart.GET("/quote", h.Cart.Quote)
		cart.DELETE("", h.Cart.Clear)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:id", h.Cart.UpdateItem)
		cart.DELETE("/items/:id", h.Cart.DeleteItem)
		cart.POST("/reorder/:id", middleware.RequireUser(), h.Cart.Reorder)

		wishlist := v1.Group("/wishlist")
		wishlist.GET("", h.Wishlist.Get)
		wishlist.DELETE("", h.Wishlist.Clear)
		wishlist.POST("/items", h.Wishlist.Add)
		wishlist.DELETE("/items/:id", h.Wishlist.Remove)
		wishlist.POST("/items/:id/move-to-cart", h.Wishlist.MoveToCart)

		orders := v1.Group("/orders", middleware.RequireUser())
		orders.GET("", h.Order.ListOrders)
		orders.GET("/active", h.Order.ListActive)
		orders.GET("/:id", h.Order.GetOrder)
		orders.POST("/:id/cancel", h.Order.Cancel)
		orders.PATCH("/:id/status", h.Order.UpdateStatus)

		checkout := v1.Group("/checkout", middleware.RequireUser())
		checkout.POST("", h.Checkout.Start)
		checkout.GET("", h.Checkout.Get)
		checkout.POST("/shipping", h.Checkout.Shipping)
		checkout.POST("/payment", h.Checkout.Payment)
		checkout.POST("/back", h.Checkout.Back)
	}
}
