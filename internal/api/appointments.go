package api

import (
	"net/http"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler serves the appointment endpoints
type AppointmentHandler struct {
	appointments *service.AppointmentService
}

// NewAppointmentHandler creates the appointment handler
func NewAppointmentHandler(appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// Create handles POST /api/v1/appointments
func (h *AppointmentHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req models.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	appt, err := h.appointments.Schedule(c.Request.Context(), claims, req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}

// List handles GET /api/v1/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	upcomingOnly := c.Query("upcoming") == "true"
	appts, err := h.appointments.ListForUser(c.Request.Context(), claims.UserID, upcomingOnly)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// Cancel handles PUT /api/v1/appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	appt, err := h.appointments.Cancel(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}
