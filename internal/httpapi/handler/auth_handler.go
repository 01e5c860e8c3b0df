package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookden/internal/httpapi/dto"
	"bookden/internal/httpapi/middleware"
	"bookden/internal/httpapi/service"
)

type AuthHandler struct {
	authService service.AuthService
	tokenTTL    time.Duration
	timeout     time.Duration
	logger      *slog.Logger
}

func NewAuthHandler(authService service.AuthService, tokenTTL, timeout time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		tokenTTL:    tokenTTL,
		timeout:     timeout,
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, throttle *middleware.LoginThrottle) {
	rg.POST("/register", h.Register)
	rg.POST("/login", throttle.Middleware(), h.Login)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	user, err := h.authService.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		case errors.Is(err, service.ErrEmailInUse):
			c.JSON(http.StatusBadRequest, gin.H{"error": "an account with this email already exists"})
		default:
			h.logger.Error("register failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process registration"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterResponse{
		User: dto.UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Message: "user registered successfully",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	sessionToken, user, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Same body for unknown email and wrong password
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process login"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     sessionToken,
		TokenType: "Bearer",
		ExpiresIn: int64(h.tokenTTL.Seconds()),
		User: dto.UserResponse{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
	})
}
