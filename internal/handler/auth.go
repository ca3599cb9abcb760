package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/middleware"
	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/service"
)

const demoAccountsHint = "Invalid credentials. Try these test accounts: emilys / emilyspass, michaelw / michaelwpass, sophiab / sophiabpass"

type AuthHandler struct {
	registry *service.Registry
	log      *slog.Logger
}

func NewAuthHandler(registry *service.Registry, log *slog.Logger) *AuthHandler {
	return &AuthHandler{registry: registry, log: log}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.registry.Auth().Register(c.Request.Context(), req.Input())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required."})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters long."})
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		default:
			h.log.Error("register failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Registration failed. Please try again."})
		}
		return
	}
	h.signIn(c, http.StatusCreated, *user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.registry.Auth().Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": demoAccountsHint})
		default:
			h.log.Error("login failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Network error. Please try again."})
		}
		return
	}
	h.signIn(c, http.StatusOK, *user)
}

func (h *AuthHandler) signIn(c *gin.Context, status int, user model.User) {
	if _, err := h.registry.SignIn(c.Request.Context(), user); err != nil {
		h.log.Error("save session failed", "user_key", user.Key(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	token, err := h.registry.Auth().IssueToken(user)
	if err != nil {
		h.log.Error("issue token failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, dto.AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.registry.Logout(c.Request.Context(), middleware.GetUserKey(c)); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	sf, ok := storefront(c, h.registry)
	if !ok {
		return
	}
	user, signedIn := sf.Auth.User()
	if !signedIn {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
		return
	}
	c.JSON(http.StatusOK, user)
}
