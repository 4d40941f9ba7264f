package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/pkg/websocket"
)

// ErrAnalysisNotFound is returned by the repository for unknown ids
var ErrAnalysisNotFound = errors.New("analysis not found")

// RepositoryInterface defines the persistence operations of the analysis pipeline
type RepositoryInterface interface {
	// Analyses
	CreateAnalysis(ctx context.Context, analysis *AnalysisResult, items []*QueueItem) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*AnalysisResult, error)
	UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status Status) error
	CompleteAnalysis(ctx context.Context, analysis *AnalysisResult) error
	SetEvidenceKey(ctx context.Context, id uuid.UUID, key string) error
	GetRecentAnalyses(ctx context.Context, limit int) ([]*AnalysisResult, error)
	MarkStaleAnalysesFailed(ctx context.Context, before time.Time, exclude []uuid.UUID) (int, error)

	// Queue items
	GetQueueItems(ctx context.Context, analysisID uuid.UUID) ([]*QueueItem, error)
	UpdateQueueItemProgress(ctx context.Context, id uuid.UUID, progress int, status TaskStatus) error
	UpdateQueueItemResult(ctx context.Context, id uuid.UUID, result json.RawMessage, status TaskStatus, errMsg string) error
}

// StatsCache caches dashboard stats; *redis.Client satisfies it
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ScamReportCounter reports how many scam reports have been filed
type ScamReportCounter interface {
	TotalReportCount(ctx context.Context) (int64, error)
}

// Notifier pushes progress to live subscribers; *websocket.Hub satisfies it
type Notifier interface {
	SendToRoom(room string, msg *websocket.Message)
}
