package api

import (
	"net/http"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/service"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// DocumentHandler serves the case document endpoints
type DocumentHandler struct {
	docs *service.DocumentService
}

// NewDocumentHandler creates the document handler
func NewDocumentHandler(docs *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// Register handles POST /api/v1/cases/:id/documents
func (h *DocumentHandler) Register(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req models.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	doc, err := h.docs.Register(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

// ListByCase handles GET /api/v1/cases/:id/documents
func (h *DocumentHandler) ListByCase(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	docs, err := h.docs.ListByCase(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Review handles PUT /api/v1/documents/:id/review
func (h *DocumentHandler) Review(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	var req models.ReviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("VALIDATION_FAILED", err.Error()))
		return
	}

	doc, err := h.docs.Review(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc})
}
