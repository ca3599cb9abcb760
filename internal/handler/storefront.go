package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/service"
)

// storefront resolves the caller's storefront, writing the error response
// itself when it cannot.
func storefront(c *gin.Context, reg *service.Registry) (*service.Storefront, bool) {
	sf, err := reg.Get(c.Request.Context(), middleware.GetUserKey(c))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please sign in again"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	}
	return sf, true
}
