package reporting

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/middleware"
)

// ServiceInterface is the part of Service used by the HTTP handler
type ServiceInterface interface {
	GenerateReport(ctx context.Context, id uuid.UUID) (*ReportMetadata, error)
	ExportEvidence(ctx context.Context, id uuid.UUID) (*EvidenceExport, error)
	ReportToAuthorities(ctx context.Context, req *AuthorityReportRequest) (*AuthorityReport, error)
}

var _ ServiceInterface = (*Service)(nil)

// Handler handles reporting HTTP requests
type Handler struct {
	service ServiceInterface
}

// NewHandler creates a new reporting handler
func NewHandler(service ServiceInterface) *Handler {
	return &Handler{service: service}
}

// GetReport returns report metadata
// GET /api/analysis/:id/report
func (h *Handler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid analysis ID")
		return
	}

	report, err := h.service.GenerateReport(c.Request.Context(), id)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to generate report")
		return
	}

	common.SuccessResponse(c, report)
}

// GetEvidence returns evidence export metadata
// GET /api/analysis/:id/evidence
func (h *Handler) GetEvidence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid analysis ID")
		return
	}

	export, err := h.service.ExportEvidence(c.Request.Context(), id)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to export evidence")
		return
	}

	common.SuccessResponse(c, export)
}

// ReportToAuthorities submits an analysis to cybercrime agencies
// POST /api/report-authorities
func (h *Handler) ReportToAuthorities(c *gin.Context) {
	var req AuthorityReportRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	report, err := h.service.ReportToAuthorities(c.Request.Context(), &req)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to submit report")
		return
	}

	common.SuccessResponse(c, report)
}

// RegisterRoutes registers reporting routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, submit ...gin.HandlerFunc) {
	api.GET("/analysis/:id/report", h.GetReport)
	api.GET("/analysis/:id/evidence", h.GetEvidence)
	api.POST("/report-authorities", append(append([]gin.HandlerFunc{}, submit...), h.ReportToAuthorities)...)
}
