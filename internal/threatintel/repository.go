package threatintel

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/richxcame/cyberguard/pkg/database"
)

// Repository handles threat intelligence data operations
type Repository struct {
	db database.DB
}

var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new threat intelligence repository
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// CountThreats returns the number of stored advisories
func (r *Repository) CountThreats(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM threat_intelligence`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateThreat inserts an advisory
func (r *Repository) CreateThreat(ctx context.Context, t *ThreatIntelligence) error {
	query := `
		INSERT INTO threat_intelligence (id, title, description, severity, category, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Severity,
		t.Category,
		t.IsActive,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert threat %q: %w", t.Title, err)
	}
	return nil
}

// GetActiveThreats returns active advisories, newest first
func (r *Repository) GetActiveThreats(ctx context.Context) ([]*ThreatIntelligence, error) {
	query := `
		SELECT id, title, description, severity, category, is_active, created_at
		FROM threat_intelligence
		WHERE is_active = true
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	threats := make([]*ThreatIntelligence, 0)
	for rows.Next() {
		var t ThreatIntelligence
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.Severity,
			&t.Category,
			&t.IsActive,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		threats = append(threats, &t)
	}

	return threats, rows.Err()
}

const scamReportColumns = `id, reported_value, report_type, report_count, last_reported, is_verified, created_at`

// GetScamReport returns the report for an exact value
func (r *Repository) GetScamReport(ctx context.Context, value string) (*ScamReport, error) {
	query := `SELECT ` + scamReportColumns + ` FROM scam_reports WHERE reported_value = $1`

	report, err := scanScamReport(r.db.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScamReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// UpsertScamReport inserts a report or adds its count to the existing one
// for the same value, bumping last_reported.
func (r *Repository) UpsertScamReport(ctx context.Context, report *ScamReport) (*ScamReport, error) {
	query := `
		INSERT INTO scam_reports (id, reported_value, report_type, report_count, last_reported, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $5)
		ON CONFLICT (reported_value) DO UPDATE
		SET report_count = scam_reports.report_count + EXCLUDED.report_count,
		    last_reported = EXCLUDED.last_reported
		RETURNING ` + scamReportColumns

	saved, err := scanScamReport(r.db.QueryRow(ctx, query,
		report.ID,
		report.ReportedValue,
		report.ReportType,
		report.ReportCount,
		report.LastReported,
		report.IsVerified,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert scam report: %w", err)
	}
	return saved, nil
}

// TotalReportCount sums report counts across all values
func (r *Repository) TotalReportCount(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(report_count), 0) FROM scam_reports`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func scanScamReport(row pgx.Row) (*ScamReport, error) {
	var s ScamReport
	err := row.Scan(
		&s.ID,
		&s.ReportedValue,
		&s.ReportType,
		&s.ReportCount,
		&s.LastReported,
		&s.IsVerified,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
