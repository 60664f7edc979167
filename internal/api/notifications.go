package api

import (
	"net/http"
	"strconv"

	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the notification inbox endpoints
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates the notification handler
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	unreadOnly := c.Query("unread_only") == "true"

	notifications, total, err := h.notifications.List(c.Request.Context(), claims.UserID, unreadOnly, limit, offset)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "total": total})
}

// MarkRead handles PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	updated, err := h.notifications.MarkRead(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	if !updated {
		c.Error(errors.NewNotFoundError("NOT_FOUND", "notification not found or already read"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead handles PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	count, err := h.notifications.MarkAllRead(c.Request.Context(), claims.UserID)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}
