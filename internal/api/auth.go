package api

import (
	"net/http"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves registration, login and the current-user endpoint
type AuthHandler struct {
	users *service.UserService
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user.ToResponse()})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	result, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	user, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.ToResponse()})
}
