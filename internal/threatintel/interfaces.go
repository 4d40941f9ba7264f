package threatintel

import (
	"context"
	"errors"
)

// ErrScamReportNotFound is returned when no report exists for a value
var ErrScamReportNotFound = errors.New("scam report not found")

// RepositoryInterface defines the threat intelligence persistence operations
type RepositoryInterface interface {
	// Advisories
	CountThreats(ctx context.Context) (int, error)
	CreateThreat(ctx context.Context, threat *ThreatIntelligence) error
	GetActiveThreats(ctx context.Context) ([]*ThreatIntelligence, error)

	// Scam reports
	GetScamReport(ctx context.Context, value string) (*ScamReport, error)
	UpsertScamReport(ctx context.Context, report *ScamReport) (*ScamReport, error)
	TotalReportCount(ctx context.Context) (int64, error)
}
