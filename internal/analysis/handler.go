package analysis

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/richxcame/cyberguard/pkg/middleware"
	"github.com/richxcame/cyberguard/pkg/pagination"
	"github.com/richxcame/cyberguard/pkg/websocket"
	"go.uber.org/zap"
)

// MessageSnapshot is the first frame sent to a new stream subscriber
const MessageSnapshot = "analysis.progress"

// ServiceInterface is the part of Service used by the HTTP handler
type ServiceInterface interface {
	StartAnalysis(ctx context.Context, req *CreateAnalysisRequest) (*AnalysisResult, error)
	StartBulkAnalysis(ctx context.Context, req *BulkAnalysisRequest) (*BulkAnalysisResponse, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*AnalysisResult, error)
	GetAnalysisProgress(ctx context.Context, id uuid.UUID) (*Progress, error)
	GetRecentAnalyses(ctx context.Context, limit int) ([]*AnalysisResult, error)
	GetStats(ctx context.Context) (*Stats, error)
}

var _ ServiceInterface = (*Service)(nil)

// Handler handles HTTP requests for analyses
type Handler struct {
	service ServiceInterface
	hub     *websocket.Hub
}

// NewHandler creates a new analysis handler. hub may be nil when live
// progress streaming is not served.
func NewHandler(service ServiceInterface, hub *websocket.Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// CreateAnalysis starts a new analysis
// POST /api/analysis
func (h *Handler) CreateAnalysis(c *gin.Context) {
	var req CreateAnalysisRequest
	if !middleware.ValidateAndBind(c, &req) {
		return
	}

	analysis, err := h.service.StartAnalysis(c.Request.Context(), &req)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to start analysis")
		return
	}

	common.CreatedResponse(c, analysis)
}

// CreateBulkAnalysis starts one analysis per item
// POST /api/bulk-analysis
func (h *Handler) CreateBulkAnalysis(c *gin.Context) {
	var req BulkAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithValidationError(c, err)
		return
	}

	resp, err := h.service.StartBulkAnalysis(c.Request.Context(), &req)
	if err != nil {
		if appErr, ok := common.AsAppError(err); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to start bulk analysis")
		return
	}

	common.CreatedResponse(c, resp)
}

// GetAnalysis returns one analysis
// GET /api/analysis/:id
func (h *Handler) GetAnalysis(c *gin.Context) {
	id, ok := parseAnalysisID(c)
	if !ok {
		return
	}

	analysis, err := h.service.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, analysis)
}

// GetProgress returns per-task progress of an analysis
// GET /api/analysis/:id/progress
func (h *Handler) GetProgress(c *gin.Context) {
	id, ok := parseAnalysisID(c)
	if !ok {
		return
	}

	progress, err := h.service.GetAnalysisProgress(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.SuccessResponse(c, progress)
}

// GetRecentAnalyses lists the newest analyses
// GET /api/recent-analyses?limit=
func (h *Handler) GetRecentAnalyses(c *gin.Context) {
	limit := pagination.ParseLimit(c, DefaultRecentLimit, MaxRecentLimit)

	analyses, err := h.service.GetRecentAnalyses(c.Request.Context(), limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch recent analyses")
		return
	}

	common.SuccessResponseWithMeta(c, analyses, &common.Meta{Limit: limit, Count: len(analyses)})
}

// GetStats returns the dashboard counters
// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to fetch stats")
		return
	}

	common.SuccessResponse(c, stats)
}

// StreamProgress upgrades to a websocket that receives progress pushes for one analysis
// GET /api/analysis/:id/stream
func (h *Handler) StreamProgress(c *gin.Context) {
	if h.hub == nil {
		common.ErrorResponse(c, http.StatusServiceUnavailable, "live progress is not available")
		return
	}

	id, ok := parseAnalysisID(c)
	if !ok {
		return
	}

	progress, err := h.service.GetAnalysisProgress(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithContext(c.Request.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	clientID := uuid.New().String()
	websocket.Serve(h.hub, conn, clientID, id.String(), logger.WithContext(c.Request.Context()))

	// Read again now that the client is in the room; pushes sent before the
	// join are reflected in this snapshot.
	if latest, err := h.service.GetAnalysisProgress(c.Request.Context(), id); err == nil {
		progress = latest
	}
	h.hub.SendToClient(clientID, &websocket.Message{
		Type: MessageSnapshot,
		Room: id.String(),
		Data: toMap(progress),
	})
}

// RegisterRoutes registers the analysis routes. submit middleware (rate
// limiting) applies to the endpoints that start analyses.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, submit ...gin.HandlerFunc) {
	api.POST("/analysis", withHandler(submit, h.CreateAnalysis)...)
	api.POST("/bulk-analysis", withHandler(submit, h.CreateBulkAnalysis)...)
	api.GET("/analysis/:id", h.GetAnalysis)
	api.GET("/analysis/:id/progress", h.GetProgress)
	api.GET("/recent-analyses", h.GetRecentAnalyses)
	api.GET("/stats", h.GetStats)
}

// RegisterStreamRoutes registers the websocket route. It must not sit behind
// middleware that buffers the response writer.
func (h *Handler) RegisterStreamRoutes(api *gin.RouterGroup) {
	api.GET("/analysis/:id/stream", h.StreamProgress)
}

func withHandler(mws []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(mws)+1)
	chain = append(chain, mws...)
	return append(chain, h)
}

func parseAnalysisID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid analysis ID")
		return uuid.Nil, false
	}
	return id, true
}

func toMap(v interface{}) map[string]interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
