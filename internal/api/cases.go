package api

import (
	"net/http"
	"strconv"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/repository"
	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// CaseHandler serves the case lifecycle endpoints
type CaseHandler struct {
	cases *service.CaseService
	users *service.UserService
}

// NewCaseHandler creates the case handler
func NewCaseHandler(cases *service.CaseService, users *service.UserService) *CaseHandler {
	return &CaseHandler{cases: cases, users: users}
}

// Create handles POST /api/v1/cases
func (h *CaseHandler) Create(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req models.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	kase, err := h.cases.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"case": kase})
}

// Get handles GET /api/v1/cases/:id
func (h *CaseHandler) Get(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	kase, err := h.cases.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": kase})
}

// List handles GET /api/v1/cases
func (h *CaseHandler) List(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := repository.CaseFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Limit:    limit,
		Offset:   offset,
	}

	cases, total, err := h.cases.List(c.Request.Context(), claims, filter)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"cases": cases, "total": total})
}

// UpdateStatus handles PUT /api/v1/cases/:id/status
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req models.UpdateCaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	kase, err := h.cases.UpdateStatus(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": kase})
}

// Assign handles PUT /api/v1/cases/:id/assign
func (h *CaseHandler) Assign(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req models.AssignCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	kase, err := h.cases.AssignAgent(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": kase})
}

// ListAgents handles GET /api/v1/agents, used by the assignment picker
func (h *CaseHandler) ListAgents(c *gin.Context) {
	agents, err := h.users.ListAgents(c.Request.Context())
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	out := make([]models.UserResponse, 0, len(agents))
	for i := range agents {
		out = append(out, agents[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"agents": out})
}
