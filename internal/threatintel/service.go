package threatintel

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/events"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/richxcame/cyberguard/pkg/security"
	"go.uber.org/zap"
)

const eventSource = "cyberguard-threatintel"

var scamReportsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cyberguard",
	Name:      "scam_reports_recorded_total",
	Help:      "Scam reports recorded, by report type",
}, []string{"report_type"})

// Service handles advisories and scam reports
type Service struct {
	repo      RepositoryInterface
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new threat intelligence service. publisher may be nil.
func NewService(repo RepositoryInterface, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

// Seed inserts advisories when none exist yet and returns how many were added.
// Later seeds get later timestamps so the last listed advisory shows first.
func (s *Service) Seed(ctx context.Context, seeds []Seed) (int, error) {
	n, err := s.repo.CountThreats(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	base := s.now().UTC()
	for i, seed := range seeds {
		threat := &ThreatIntelligence{
			ID:          uuid.New(),
			Title:       seed.Title,
			Description: seed.Description,
			Severity:    seed.Severity,
			Category:    seed.Category,
			IsActive:    seed.IsActive(),
			CreatedAt:   base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.repo.CreateThreat(ctx, threat); err != nil {
			return i, err
		}
	}

	logger.WithContext(ctx).Info("threat intelligence seeded", zap.Int("advisories", len(seeds)))
	return len(seeds), nil
}

// GetActiveThreats returns active advisories, newest first
func (s *Service) GetActiveThreats(ctx context.Context) ([]*ThreatIntelligence, error) {
	threats, err := s.repo.GetActiveThreats(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to fetch threat intelligence", err)
	}
	return threats, nil
}

// RecordScamReport adds count reports for a value, creating the record on first report
func (s *Service) RecordScamReport(ctx context.Context, value, reportType string, count int) (*ScamReport, error) {
	value = security.SanitizeString(value)
	if value == "" {
		return nil, common.NewBadRequestError("reportedValue is required", nil)
	}
	if count <= 0 {
		count = 1
	}

	now := s.now().UTC()
	report, err := s.repo.UpsertScamReport(ctx, &ScamReport{
		ID:            uuid.New(),
		ReportedValue: value,
		ReportType:    reportType,
		ReportCount:   count,
		LastReported:  now,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, common.NewInternalError("failed to record scam report", err)
	}

	scamReportsRecorded.WithLabelValues(reportType).Add(float64(count))

	event := events.NewEvent(events.TypeScamReported, eventSource, map[string]interface{}{
		"reportedValue": report.ReportedValue,
		"reportType":    report.ReportType,
		"reportCount":   report.ReportCount,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("failed to publish scam report event", zap.Error(err))
	}

	return report, nil
}

// GetScamReport returns the report for a value
func (s *Service) GetScamReport(ctx context.Context, value string) (*ScamReport, error) {
	report, err := s.repo.GetScamReport(ctx, security.SanitizeString(value))
	if err != nil {
		if errors.Is(err, ErrScamReportNotFound) {
			return nil, common.NewNotFoundError("scam report not found", err)
		}
		return nil, common.NewInternalError("failed to fetch scam report", err)
	}
	return report, nil
}

// TotalReportCount sums report counts across all values
func (s *Service) TotalReportCount(ctx context.Context) (int64, error) {
	return s.repo.TotalReportCount(ctx)
}
