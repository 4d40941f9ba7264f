package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/cyberguard/internal/providers"
	"github.com/richxcame/cyberguard/pkg/database"
)

// Repository handles analysis data operations
type Repository struct {
	db database.DB
}

// Ensure the concrete repository satisfies the service's requirements.
var _ RepositoryInterface = (*Repository)(nil)

// NewRepository creates a new analysis repository
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const analysisColumns = `
	id, input_type, input_value, fraud_score, risk_level,
	digital_footprint, red_flags, connected_properties, evidence_package,
	evidence_key, status, created_at, updated_at, completed_at`

// CreateAnalysis inserts the analysis and its queue items in one transaction
func (r *Repository) CreateAnalysis(ctx context.Context, a *AnalysisResult, items []*QueueItem) error {
	footprintJSON, redFlagsJSON, connectedJSON, err := marshalAggregates(a)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create analysis: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO analysis_results (
			id, input_type, input_value, fraud_score, risk_level,
			digital_footprint, red_flags, connected_properties,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.Exec(ctx, query,
		a.ID,
		a.InputType,
		a.InputValue,
		a.FraudScore,
		a.RiskLevel,
		footprintJSON,
		redFlagsJSON,
		connectedJSON,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	itemQuery := `
		INSERT INTO analysis_queue (
			id, analysis_id, task_type, position, status, progress, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, item := range items {
		_, err := tx.Exec(ctx, itemQuery,
			item.ID,
			item.AnalysisID,
			item.TaskType,
			item.Position,
			item.Status,
			item.Progress,
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert queue item %s: %w", item.TaskType, err)
		}
	}

	return tx.Commit(ctx)
}

// GetAnalysis retrieves an analysis by ID
func (r *Repository) GetAnalysis(ctx context.Context, id uuid.UUID) (*AnalysisResult, error) {
	query := `SELECT` + analysisColumns + `
		FROM analysis_results
		WHERE id = $1
	`

	a, err := scanAnalysis(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return a, nil
}

// UpdateAnalysisStatus sets the status of an analysis
func (r *Repository) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `
		UPDATE analysis_results
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// CompleteAnalysis stores the aggregated outcome of an analysis
func (r *Repository) CompleteAnalysis(ctx context.Context, a *AnalysisResult) error {
	footprintJSON, redFlagsJSON, connectedJSON, err := marshalAggregates(a)
	if err != nil {
		return err
	}
	var evidenceJSON []byte
	if a.EvidencePackage != nil {
		if evidenceJSON, err = json.Marshal(a.EvidencePackage); err != nil {
			return fmt.Errorf("marshal evidence package: %w", err)
		}
	}

	query := `
		UPDATE analysis_results
		SET fraud_score = $2,
		    risk_level = $3,
		    digital_footprint = $4,
		    red_flags = $5,
		    connected_properties = $6,
		    evidence_package = $7,
		    status = $8,
		    updated_at = $9,
		    completed_at = $10
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query,
		a.ID,
		a.FraudScore,
		a.RiskLevel,
		footprintJSON,
		redFlagsJSON,
		connectedJSON,
		evidenceJSON,
		a.Status,
		a.UpdatedAt,
		a.CompletedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

// SetEvidenceKey records where the evidence archive was stored
func (r *Repository) SetEvidenceKey(ctx context.Context, id uuid.UUID, key string) error {
	query := `UPDATE analysis_results SET evidence_key = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id, key)
	return err
}

// GetRecentAnalyses returns the newest analyses first
func (r *Repository) GetRecentAnalyses(ctx context.Context, limit int) ([]*AnalysisResult, error) {
	query := `SELECT` + analysisColumns + `
		FROM analysis_results
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	analyses := make([]*AnalysisResult, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// MarkStaleAnalysesFailed fails analyses left pending or processing since
// before the cutoff, together with their unfinished queue items.
func (r *Repository) MarkStaleAnalysesFailed(ctx context.Context, before time.Time, exclude []uuid.UUID) (int, error) {
	excluded := make([]string, 0, len(exclude))
	for _, id := range exclude {
		excluded = append(excluded, id.String())
	}

	query := `
		UPDATE analysis_results
		SET status = 'failed', updated_at = NOW()
		WHERE status IN ('pending', 'processing')
		  AND updated_at < $1
		  AND NOT (id = ANY($2::uuid[]))
		RETURNING id
	`

	rows, err := r.db.Query(ctx, query, before, excluded)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	stale := make([]string, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		stale = append(stale, id.String())
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	itemQuery := `
		UPDATE analysis_queue
		SET status = 'failed',
		    progress = 100,
		    error = 'analysis abandoned before completion',
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE analysis_id = ANY($1::uuid[])
		  AND status IN ('queued', 'processing')
	`
	if _, err := r.db.Exec(ctx, itemQuery, stale); err != nil {
		return len(stale), fmt.Errorf("fail stale queue items: %w", err)
	}

	return len(stale), nil
}

// GetQueueItems returns the queue of an analysis in task-list order
func (r *Repository) GetQueueItems(ctx context.Context, analysisID uuid.UUID) ([]*QueueItem, error) {
	query := `
		SELECT id, analysis_id, task_type, position, status, progress, result, error,
		       started_at, completed_at, created_at, updated_at
		FROM analysis_queue
		WHERE analysis_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.Query(ctx, query, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*QueueItem, 0)
	for rows.Next() {
		var item QueueItem
		var taskType string
		var resultJSON []byte

		err := rows.Scan(
			&item.ID,
			&item.AnalysisID,
			&taskType,
			&item.Position,
			&item.Status,
			&item.Progress,
			&resultJSON,
			&item.Error,
			&item.StartedAt,
			&item.CompletedAt,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		item.TaskType = providers.TaskType(taskType)

		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &item.Result); err != nil {
				item.Result = nil
			}
		}

		items = append(items, &item)
	}

	return items, rows.Err()
}

// UpdateQueueItemProgress sets progress and status, stamping started_at on first start
func (r *Repository) UpdateQueueItemProgress(ctx context.Context, id uuid.UUID, progress int, status TaskStatus) error {
	query := `
		UPDATE analysis_queue
		SET progress = $2,
		    status = $3,
		    started_at = COALESCE(started_at, NOW()),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, progress, status)
	return err
}

// UpdateQueueItemResult finishes a queue item. A nil result is stored as NULL.
func (r *Repository) UpdateQueueItemResult(ctx context.Context, id uuid.UUID, result json.RawMessage, status TaskStatus, errMsg string) error {
	var resultArg interface{}
	if len(result) > 0 {
		resultArg = []byte(result)
	}

	query := `
		UPDATE analysis_queue
		SET result = $2,
		    status = $3,
		    error = $4,
		    progress = 100,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, resultArg, status, errMsg)
	return err
}

func marshalAggregates(a *AnalysisResult) (footprint, redFlags, connected []byte, err error) {
	if footprint, err = json.Marshal(nonNilFootprint(a.DigitalFootprint)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal digital footprint: %w", err)
	}
	if redFlags, err = json.Marshal(nonNilFlags(a.RedFlags)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal red flags: %w", err)
	}
	if connected, err = json.Marshal(nonNilProps(a.ConnectedProperties)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal connected properties: %w", err)
	}
	return footprint, redFlags, connected, nil
}

func scanAnalysis(row pgx.Row) (*AnalysisResult, error) {
	var a AnalysisResult
	var footprintJSON, redFlagsJSON, connectedJSON, evidenceJSON []byte

	err := row.Scan(
		&a.ID,
		&a.InputType,
		&a.InputValue,
		&a.FraudScore,
		&a.RiskLevel,
		&footprintJSON,
		&redFlagsJSON,
		&connectedJSON,
		&evidenceJSON,
		&a.EvidenceKey,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(footprintJSON, &a.DigitalFootprint); err != nil || a.DigitalFootprint == nil {
		a.DigitalFootprint = Footprint{}
	}
	if err := json.Unmarshal(redFlagsJSON, &a.RedFlags); err != nil || a.RedFlags == nil {
		a.RedFlags = []RedFlag{}
	}
	if err := json.Unmarshal(connectedJSON, &a.ConnectedProperties); err != nil || a.ConnectedProperties == nil {
		a.ConnectedProperties = []ConnectedProperty{}
	}
	if len(evidenceJSON) > 0 && string(evidenceJSON) != "null" {
		var pkg EvidencePackage
		if err := json.Unmarshal(evidenceJSON, &pkg); err == nil {
			a.EvidencePackage = &pkg
		}
	}

	return &a, nil
}

func nonNilFootprint(f Footprint) Footprint {
	if f == nil {
		return Footprint{}
	}
	return f
}

func nonNilFlags(f []RedFlag) []RedFlag {
	if f == nil {
		return []RedFlag{}
	}
	return f
}

func nonNilProps(p []ConnectedProperty) []ConnectedProperty {
	if p == nil {
		return []ConnectedProperty{}
	}
	return p
}
