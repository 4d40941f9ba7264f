package threatintel

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/middleware"
)

// ServiceInterface is the part of Service used by the HTTP handler
type ServiceInterface interface {
	GetActiveThreats(ctx context.Context) ([]*ThreatIntelligence, error)
	RecordScamReport(ctx context.Context, value, reportType string, count int) (*ScamReport, error)
	GetScamReport(ctx context.Context, value string) (*ScamReport, error)
}

var _ ServiceInterface = (*Service)(nil)

// Handler handles threat intelligence HTTP requests
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new threat intelligence handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// GetThreatIntelligence lists active advisories
// GET /api/threat-intelligence
func (h *Handler) GetThreatIntelligence(c *gin.Context) {
	threats, err := h.service.GetActiveThreats(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch threat intelligence")
		return
	}

	common.SuccessResponse(c, threats)
}

// RecordScamReport files a scam report
// POST /api/scam-reports
func (h *Handler) RecordScamReport(c *gin.Context) {
	var req RecordScamReportRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	report, err := h.service.RecordScamReport(c.Request.Context(), req.ReportedValue, req.ReportType, req.ReportCount)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.CreatedResponse(c, report)
}

// GetScamReport looks up the report for a value
// GET /api/scam-reports?value=
func (h *Handler) GetScamReport(c *gin.Context) {
	var query ScamReportQuery
	if !middleware.ValidateAndBindQuery(c, &query) {
		return
	}

	report, err := h.service.GetScamReport(c.Request.Context(), query.Value)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, report)
}

// RegisterRoutes registers threat intelligence routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, submit ...gin.HandlerFunc) {
	api.GET("/threat-intelligence", h.GetThreatIntelligence)
	api.POST("/scam-reports", append(append([]gin.HandlerFunc{}, submit...), h.RecordScamReport)...)
	api.GET("/scam-reports", h.GetScamReport)
}
