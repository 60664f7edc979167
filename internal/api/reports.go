package api

import (
	"net/http"

	"immigration-case-portal/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the admin dashboard figures
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates the report handler
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Overview handles GET /api/v1/reports/overview. Admin only, enforced by
// the router.
func (h *ReportHandler) Overview(c *gin.Context) {
	overview, err := h.reports.Overview(c.Request.Context())
	if err != nil {
		c.Error(serviceError(err))
		return
	}

	c.JSON(http.StatusOK, overview)
}
