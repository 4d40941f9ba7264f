package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/internal/providers"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/config"
	"github.com/richxcame/cyberguard/pkg/events"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/richxcame/cyberguard/pkg/monitoring"
	"github.com/richxcame/cyberguard/pkg/security"
	"github.com/richxcame/cyberguard/pkg/storage"
	"github.com/richxcame/cyberguard/pkg/tracing"
	"github.com/richxcame/cyberguard/pkg/validation"
	"github.com/richxcame/cyberguard/pkg/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	statsCacheKey = "stats:dashboard"

	// statsWindow is how many recent analyses the dashboard counters cover
	statsWindow = 100

	DefaultRecentLimit = 10
	MaxRecentLimit     = 100

	eventSource = "cyberguard-analysis"
)

// maxTaskErrorLength caps the provider error stored on a failed queue item
const maxTaskErrorLength = 500

// Websocket message types pushed to analysis subscribers
const (
	MessageStatus    = "analysis.status"
	MessageTask      = "task.progress"
	MessageCompleted = "analysis.completed"
)

// Service orchestrates analyses: it queues checks, runs them through the
// provider registry and aggregates their results.
type Service struct {
	repo      RepositoryInterface
	providers *providers.Registry
	cfg       config.AnalysisConfig

	cache     StatsCache
	reports   ScamReportCounter
	archive   storage.Storage
	publisher events.Publisher
	notifier  Notifier
	tracer    trace.Tracer
	now       func() time.Time

	baseCtx  context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inflight sync.Map

	// bumped by invalidateStats; GetStats only caches when it is unchanged
	statsGen atomic.Uint64
}

// Option configures optional collaborators of the service
type Option func(*Service)

// WithStatsCache caches dashboard stats
func WithStatsCache(cache StatsCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithScamReportCounter feeds reportsSent from the scam report store
func WithScamReportCounter(counter ScamReportCounter) Option {
	return func(s *Service) { s.reports = counter }
}

// WithEvidenceArchive uploads evidence packages after completion
func WithEvidenceArchive(archive storage.Storage) Option {
	return func(s *Service) { s.archive = archive }
}

// WithPublisher publishes completion events
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithNotifier pushes live progress to websocket subscribers
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new analysis service
func NewService(repo RepositoryInterface, registry *providers.Registry, cfg config.AnalysisConfig, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		repo:      repo,
		providers: registry,
		cfg:       cfg,
		publisher: events.NoopPublisher{},
		tracer:    tracing.Tracer("github.com/richxcame/cyberguard/internal/analysis"),
		now:       time.Now,
		baseCtx:   ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.TaskConcurrency <= 0 {
		s.cfg.TaskConcurrency = 4
	}
	if s.cfg.TaskTimeout <= 0 {
		s.cfg.TaskTimeout = 10 * time.Second
	}
	return s
}

// ========================================
// SUBMISSION
// ========================================

// StartAnalysis records a new analysis with one queued item per check and
// processes it in the background. The returned record is still pending.
func (s *Service) StartAnalysis(ctx context.Context, req *CreateAnalysisRequest) (*AnalysisResult, error) {
	if req == nil {
		return nil, common.NewBadRequestError("inputValue is required", nil)
	}
	value := security.SanitizeString(req.InputValue)
	if value == "" {
		return nil, common.NewBadRequestError("inputValue is required", nil)
	}

	now := s.now().UTC()
	analysis := &AnalysisResult{
		ID:                  uuid.New(),
		InputType:           req.InputType,
		InputValue:          value,
		FraudScore:          0,
		RiskLevel:           RiskUnknown,
		DigitalFootprint:    Footprint{},
		RedFlags:            []RedFlag{},
		ConnectedProperties: []ConnectedProperty{},
		Status:              StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	tasks := TasksForInputType(req.InputType)
	items := make([]*QueueItem, 0, len(tasks))
	for i, taskType := range tasks {
		items = append(items, &QueueItem{
			ID:         uuid.New(),
			AnalysisID: analysis.ID,
			TaskType:   taskType,
			Position:   i,
			Status:     TaskQueued,
			Progress:   0,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.repo.CreateAnalysis(ctx, analysis, items); err != nil {
		return nil, common.NewInternalError("failed to start analysis", err)
	}

	analysesStarted.WithLabelValues(analysis.InputType).Inc()
	s.invalidateStats(ctx)

	// The caller gets the pending record; the worker mutates its own copy.
	job := *analysis
	s.dispatch(ctx, &job)

	logger.WithContext(ctx).Info("analysis started",
		zap.String("analysis_id", analysis.ID.String()),
		zap.String("input_type", analysis.InputType),
		zap.Int("tasks", len(items)),
	)

	return analysis, nil
}

// StartBulkAnalysis validates every item before starting any of them
func (s *Service) StartBulkAnalysis(ctx context.Context, req *BulkAnalysisRequest) (*BulkAnalysisResponse, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, common.NewBadRequestError("items must be a non-empty array", nil)
	}
	if max := s.cfg.MaxBulkItems; max > 0 && len(req.Items) > max {
		return nil, common.NewBadRequestError(fmt.Sprintf("at most %d items are allowed per request", max), nil)
	}
	if err := validation.ValidateStruct(req); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) {
			return nil, common.NewValidationError("validation failed", verr.Errors)
		}
		return nil, common.NewBadRequestError("invalid input data", err)
	}

	analyses := make([]*AnalysisResult, 0, len(req.Items))
	for i := range req.Items {
		analysis, err := s.StartAnalysis(ctx, &req.Items[i])
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, analysis)
	}

	return &BulkAnalysisResponse{Analyses: analyses, Count: len(analyses)}, nil
}

// dispatch runs the analysis detached from the request. Request-scoped values
// (logger fields, trace) carry over; cancellation comes only from Shutdown.
func (s *Service) dispatch(reqCtx context.Context, analysis *AnalysisResult) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(reqCtx))
	stop := context.AfterFunc(s.baseCtx, cancel)

	s.inflight.Store(analysis.ID, struct{}{})
	s.wg.Add(1)
	analysesInFlight.Inc()

	go func() {
		defer func() {
			stop()
			cancel()
			s.inflight.Delete(analysis.ID)
			analysesInFlight.Dec()
			s.wg.Done()
		}()
		s.process(ctx, analysis)
	}()
}

// Shutdown waits for in-flight analyses. When ctx expires first the
// remaining jobs are cancelled and ctx.Err() is returned.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// InFlight returns the ids of analyses being processed by this instance
func (s *Service) InFlight() []uuid.UUID {
	var ids []uuid.UUID
	s.inflight.Range(func(key, _ interface{}) bool {
		ids = append(ids, key.(uuid.UUID))
		return true
	})
	return ids
}

// ========================================
// PROCESSING
// ========================================

func (s *Service) process(ctx context.Context, analysis *AnalysisResult) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "analysis.process", trace.WithAttributes(
		attribute.String("analysis.id", analysis.ID.String()),
		attribute.String("analysis.input_type", analysis.InputType),
	))
	defer span.End()

	ctx = logger.ContextWithFields(ctx, zap.String("analysis_id", analysis.ID.String()))
	log := logger.WithContext(ctx)

	err := s.run(ctx, analysis)
	analysisDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		return
	}

	log.Error("analysis failed", zap.Error(err))
	tracing.RecordError(span, err)
	monitoring.CaptureError(ctx, err, map[string]string{
		"analysis_id": analysis.ID.String(),
		"input_type":  analysis.InputType,
	})

	// The job context may already be cancelled; the failure must still be recorded.
	failCtx := context.WithoutCancel(ctx)
	if uerr := s.repo.UpdateAnalysisStatus(failCtx, analysis.ID, StatusFailed); uerr != nil {
		log.Error("failed to mark analysis failed", zap.Error(uerr))
	}
	analysis.Status = StatusFailed
	analysesFinished.WithLabelValues(string(StatusFailed), string(analysis.RiskLevel)).Inc()

	s.notify(analysis.ID, MessageStatus, map[string]interface{}{"status": StatusFailed})
	s.publish(failCtx, events.TypeAnalysisFailed, analysis)
	s.invalidateStats(failCtx)
}

func (s *Service) run(ctx context.Context, analysis *AnalysisResult) error {
	if err := s.repo.UpdateAnalysisStatus(ctx, analysis.ID, StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	analysis.Status = StatusProcessing
	s.notify(analysis.ID, MessageStatus, map[string]interface{}{"status": StatusProcessing})

	items, err := s.repo.GetQueueItems(ctx, analysis.ID)
	if err != nil {
		return fmt.Errorf("load queue items: %w", err)
	}

	input := providers.Input{Value: analysis.InputValue, InputType: analysis.InputType}
	results, err := s.runTasks(ctx, input, items)
	if err != nil {
		return err
	}

	order := make([]providers.TaskType, 0, len(items))
	for _, item := range items {
		order = append(order, item.TaskType)
	}

	now := s.now().UTC()
	agg := Aggregate(order, results, now)

	analysis.FraudScore = agg.FraudScore
	analysis.RiskLevel = agg.RiskLevel
	analysis.DigitalFootprint = agg.DigitalFootprint
	analysis.RedFlags = agg.RedFlags
	analysis.ConnectedProperties = agg.ConnectedProperties
	analysis.EvidencePackage = agg.EvidencePackage
	analysis.Status = StatusCompleted
	analysis.UpdatedAt = now
	analysis.CompletedAt = &now

	if err := s.repo.CompleteAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("persist results: %w", err)
	}

	analysesFinished.WithLabelValues(string(StatusCompleted), string(analysis.RiskLevel)).Inc()
	fraudScores.Observe(float64(analysis.FraudScore))

	logger.WithContext(ctx).Info("analysis completed",
		zap.Int("fraud_score", analysis.FraudScore),
		zap.String("risk_level", string(analysis.RiskLevel)),
		zap.Int("red_flags", len(analysis.RedFlags)),
	)

	s.afterCompletion(ctx, analysis)
	return nil
}

// runTasks runs all checks concurrently. Only persistence errors are returned;
// check failures are recorded on their queue item and omitted from the results.
func (s *Service) runTasks(ctx context.Context, input providers.Input, items []*QueueItem) (map[providers.TaskType]providers.Result, error) {
	outputs := make([]providers.Result, len(items))

	var g errgroup.Group
	g.SetLimit(s.cfg.TaskConcurrency)
	for i, item := range items {
		g.Go(func() error {
			result, err := s.runTask(ctx, input, item)
			if err != nil {
				return err
			}
			outputs[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[providers.TaskType]providers.Result, len(items))
	for i, item := range items {
		if outputs[i] != nil {
			results[item.TaskType] = outputs[i]
		}
	}
	return results, nil
}

func (s *Service) runTask(ctx context.Context, input providers.Input, item *QueueItem) (providers.Result, error) {
	ctx, span := s.tracer.Start(ctx, "analysis.task", trace.WithAttributes(
		attribute.String("task.type", string(item.TaskType)),
		attribute.String("task.id", item.ID.String()),
	))
	defer span.End()
	start := time.Now()

	if err := s.repo.UpdateQueueItemProgress(ctx, item.ID, 10, TaskProcessing); err != nil {
		return nil, fmt.Errorf("mark task %s processing: %w", item.TaskType, err)
	}
	s.notifyTask(item, TaskProcessing, 10, "")

	result, raw, runErr := s.invoke(ctx, item.TaskType, input)
	if runErr != nil {
		taskDuration.WithLabelValues(string(item.TaskType), string(TaskFailed)).Observe(time.Since(start).Seconds())
		tracing.RecordError(span, runErr)
		logger.WithContext(ctx).Warn("analysis task failed",
			zap.String("task_type", string(item.TaskType)),
			zap.Error(runErr),
		)

		msg := security.TruncateString(runErr.Error(), maxTaskErrorLength)
		if err := s.repo.UpdateQueueItemResult(ctx, item.ID, nil, TaskFailed, msg); err != nil {
			return nil, fmt.Errorf("record task %s failure: %w", item.TaskType, err)
		}
		s.notifyTask(item, TaskFailed, 100, msg)
		return nil, nil
	}

	if err := s.repo.UpdateQueueItemResult(ctx, item.ID, raw, TaskCompleted, ""); err != nil {
		return nil, fmt.Errorf("store task %s result: %w", item.TaskType, err)
	}
	taskDuration.WithLabelValues(string(item.TaskType), string(TaskCompleted)).Observe(time.Since(start).Seconds())
	s.notifyTask(item, TaskCompleted, 100, "")

	return result, nil
}

// invoke runs one provider under the task timeout. A panic, timeout, error or
// unknown task type all surface as err. The result is normalized through JSON
// so aggregation sees the same shapes as stored rows.
func (s *Service) invoke(ctx context.Context, taskType providers.TaskType, input providers.Input) (result providers.Result, raw json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, raw = nil, nil
			err = fmt.Errorf("%s check panicked: %v", taskType, r)
		}
	}()

	p, err := s.providers.Get(taskType)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TaskTimeout)
	defer cancel()

	out, err := p.Run(ctx, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%s check timed out after %s", taskType, s.cfg.TaskTimeout)
		}
		return nil, nil, err
	}

	raw, err = json.Marshal(out)
	if err != nil {
		return nil, nil, fmt.Errorf("encode %s result: %w", taskType, err)
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, nil, fmt.Errorf("decode %s result: %w", taskType, err)
	}
	if result == nil {
		result = providers.Result{}
	}
	return result, raw, nil
}

// afterCompletion archives evidence, publishes the completion event and
// notifies subscribers. Failures here never change the analysis outcome.
func (s *Service) afterCompletion(ctx context.Context, analysis *AnalysisResult) {
	log := logger.WithContext(ctx)

	if s.archive != nil && analysis.EvidencePackage != nil {
		if key, err := s.archiveEvidence(ctx, analysis); err != nil {
			log.Warn("failed to archive evidence", zap.Error(err))
		} else {
			analysis.EvidenceKey = &key
		}
	}

	s.publish(ctx, events.TypeAnalysisCompleted, analysis)
	s.notify(analysis.ID, MessageCompleted, map[string]interface{}{
		"status":     analysis.Status,
		"fraudScore": analysis.FraudScore,
		"riskLevel":  analysis.RiskLevel,
		"redFlags":   len(analysis.RedFlags),
	})
	s.invalidateStats(ctx)
}

func (s *Service) archiveEvidence(ctx context.Context, analysis *AnalysisResult) (string, error) {
	body, err := json.Marshal(struct {
		AnalysisID uuid.UUID        `json:"analysisId"`
		InputType  string           `json:"inputType"`
		InputValue string           `json:"inputValue"`
		FraudScore int              `json:"fraudScore"`
		RiskLevel  RiskLevel        `json:"riskLevel"`
		RedFlags   []RedFlag        `json:"redFlags"`
		Evidence   *EvidencePackage `json:"evidence"`
	}{analysis.ID, analysis.InputType, analysis.InputValue, analysis.FraudScore, analysis.RiskLevel, analysis.RedFlags, analysis.EvidencePackage})
	if err != nil {
		return "", fmt.Errorf("encode evidence: %w", err)
	}

	key := storage.EvidenceKey(analysis.ID.String())
	if _, err := s.archive.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", err
	}
	if err := s.repo.SetEvidenceKey(ctx, analysis.ID, key); err != nil {
		return "", fmt.Errorf("record evidence key: %w", err)
	}
	return key, nil
}

func (s *Service) publish(ctx context.Context, eventType string, analysis *AnalysisResult) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(eventType, eventSource, map[string]interface{}{
		"analysisId": analysis.ID,
		"inputType":  analysis.InputType,
		"status":     analysis.Status,
		"fraudScore": analysis.FraudScore,
		"riskLevel":  analysis.RiskLevel,
		"redFlags":   len(analysis.RedFlags),
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("failed to publish analysis event",
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}

func (s *Service) notify(id uuid.UUID, msgType string, data map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendToRoom(id.String(), &websocket.Message{Type: msgType, Data: data})
}

func (s *Service) notifyTask(item *QueueItem, status TaskStatus, progress int, errMsg string) {
	s.notify(item.AnalysisID, MessageTask, map[string]interface{}{
		"taskId":   item.ID,
		"taskType": item.TaskType,
		"status":   status,
		"progress": progress,
		"error":    errMsg,
	})
}

// ========================================
// QUERIES
// ========================================

// GetAnalysis returns an analysis by id
func (s *Service) GetAnalysis(ctx context.Context, id uuid.UUID) (*AnalysisResult, error) {
	analysis, err := s.repo.GetAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAnalysisNotFound) {
			return nil, common.NewNotFoundError("analysis not found", err)
		}
		return nil, common.NewInternalError("failed to fetch analysis", err)
	}
	return analysis, nil
}

// GetAnalysisProgress summarizes the queue of an analysis
func (s *Service) GetAnalysisProgress(ctx context.Context, id uuid.UUID) (*Progress, error) {
	analysis, err := s.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetQueueItems(ctx, id)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch progress", err)
	}

	return CalculateProgress(analysis, items), nil
}

// GetRecentAnalyses returns the newest analyses first
func (s *Service) GetRecentAnalyses(ctx context.Context, limit int) ([]*AnalysisResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		limit = MaxRecentLimit
	}

	analyses, err := s.repo.GetRecentAnalyses(ctx, limit)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch recent analyses", err)
	}
	return analyses, nil
}

// GetStats returns the dashboard counters, served from cache when fresh
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	log := logger.WithContext(ctx)
	gen := s.statsGen.Load()

	if s.cache != nil {
		var cached Stats
		if err := s.cache.GetJSON(ctx, statsCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	recent, err := s.repo.GetRecentAnalyses(ctx, statsWindow)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch stats", err)
	}

	stats := &Stats{}
	for _, a := range recent {
		if a.Status == StatusProcessing {
			stats.ActiveScans++
		}
		switch a.RiskLevel {
		case RiskHigh, RiskCritical:
			stats.ThreatsDetected++
		case RiskLow:
			stats.CleanResults++
		}
	}

	if s.reports != nil {
		total, err := s.reports.TotalReportCount(ctx)
		if err != nil {
			log.Warn("failed to count scam reports", zap.Error(err))
		} else {
			stats.ReportsSent = total
		}
	}

	if s.cache != nil && s.cfg.StatsCacheTTL > 0 && s.statsGen.Load() == gen {
		if err := s.cache.SetJSON(ctx, statsCacheKey, stats, s.cfg.StatsCacheTTL); err != nil {
			log.Warn("failed to cache stats", zap.Error(err))
		}
	}

	return stats, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	s.statsGen.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		logger.WithContext(ctx).Debug("failed to invalidate stats cache", zap.Error(err))
	}
}

// ========================================
// MAINTENANCE
// ========================================

// SweepStale fails analyses stuck in pending/processing for longer than the
// configured age, skipping the ones this instance is still running.
func (s *Service) SweepStale(ctx context.Context) (int, error) {
	staleAfter := s.cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	cutoff := s.now().UTC().Add(-staleAfter)

	n, err := s.repo.MarkStaleAnalysesFailed(ctx, cutoff, s.InFlight())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		staleAnalysesSwept.Add(float64(n))
		s.invalidateStats(ctx)
	}
	return n, nil
}
