package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/cyberguard/internal/providers"
	"github.com/richxcame/cyberguard/pkg/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func queryContains(fragment string) interface{} {
	return mock.MatchedBy(func(q string) bool { return strings.Contains(q, fragment) })
}

func analysisRow(id uuid.UUID, status string, evidence []byte, key *string) []any {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return []any{
		id, "url", "https://example.tk", 45, "medium",
		[]byte(`{"whois":{"age":3}}`),
		[]byte(`[{"severity":"CRITICAL","message":"Domain registered 3 days ago"}]`),
		[]byte(`[{"type":"domain","value":"a.tk","relationship":"related"}]`),
		evidence, key, status, now, now, nil,
	}
}

func TestRepository_CreateAnalysis(t *testing.T) {
	db := new(dbtest.MockDB)
	tx := new(dbtest.MockTx)
	repo := NewRepository(db)
	ctx := context.Background()

	a := &AnalysisResult{ID: uuid.New(), InputType: "phone", InputValue: "+15550100", RiskLevel: RiskUnknown, Status: StatusPending}
	items := []*QueueItem{
		{ID: uuid.New(), AnalysisID: a.ID, TaskType: providers.TaskOSINT, Position: 0, Status: TaskQueued},
		{ID: uuid.New(), AnalysisID: a.ID, TaskType: providers.TaskTruecaller, Position: 1, Status: TaskQueued},
	}

	db.On("Begin", ctx).Return(tx, nil).Once()
	tx.On("Exec", ctx, queryContains("INSERT INTO analysis_results"), mock.MatchedBy(func(args []any) bool {
		return args[0] == a.ID && string(args[5].([]byte)) == "{}" && string(args[6].([]byte)) == "[]"
	})).Return(dbtest.Tag("INSERT 0 1"), nil).Once()
	tx.On("Exec", ctx, queryContains("INSERT INTO analysis_queue"), mock.Anything).Return(dbtest.Tag("INSERT 0 1"), nil).Twice()
	tx.On("Commit", ctx).Return(nil).Once()
	tx.On("Rollback", ctx).Return(pgx.ErrTxClosed).Maybe()

	require.NoError(t, repo.CreateAnalysis(ctx, a, items))
	db.AssertExpectations(t)
	tx.AssertExpectations(t)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepository_CreateAnalysis_ItemErrorRollsBack(t *testing.T) {
	db := new(dbtest.MockDB)
	tx := new(dbtest.MockTx)
	repo := NewRepository(db)
	ctx := context.Background()

	a := &AnalysisResult{ID: uuid.New(), InputType: "url", InputValue: "https://example.tk"}
	var items []*QueueItem
	for i, taskType := range TasksForInputType("url") {
		items = append(items, &QueueItem{ID: uuid.New(), AnalysisID: a.ID, TaskType: taskType, Position: i})
	}

	db.On("Begin", ctx).Return(tx, nil).Once()
	tx.On("Exec", ctx, queryContains("INSERT INTO analysis_results"), mock.Anything).Return(dbtest.Tag("INSERT 0 1"), nil).Once()
	tx.On("Exec", ctx, queryContains("INSERT INTO analysis_queue"), mock.Anything).Return(dbtest.Tag("INSERT 0 1"), nil).Twice()
	tx.On("Exec", ctx, queryContains("INSERT INTO analysis_queue"), mock.Anything).Return(dbtest.Tag(""), errors.New("conn reset")).Once()
	tx.On("Rollback", ctx).Return(nil).Once()

	err := repo.CreateAnalysis(ctx, a, items)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert queue item osint")
	tx.AssertExpectations(t)
	tx.AssertNotCalled(t, "Commit", mock.Anything)
	tx.AssertNumberOfCalls(t, "Exec", 4)
}

func TestRepository_CreateAnalysis_BeginError(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()

	db.On("Begin", ctx).Return(nil, errors.New("pool closed")).Once()

	err := repo.CreateAnalysis(ctx, &AnalysisResult{ID: uuid.New(), InputType: "email"}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool closed")
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepository_GetAnalysis(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()
	key := "analyses/x/evidence.json"

	evidence := []byte(`{"whoisRecords":{"created":"2025-06-12"},"screenshots":[],"socialMediaLinks":[],"scamReports":[],"timestamp":"2025-06-15T12:00:00Z"}`)
	db.On("QueryRow", ctx, queryContains("FROM analysis_results"), []any{id}).
		Return(dbtest.NewMockRow(analysisRow(id, "completed", evidence, &key)...))

	a, err := repo.GetAnalysis(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, StatusCompleted, a.Status)
	assert.Equal(t, RiskMedium, a.RiskLevel)
	assert.Equal(t, 45, a.FraudScore)
	assert.Equal(t, float64(3), a.DigitalFootprint["whois"]["age"])
	require.Len(t, a.RedFlags, 1)
	assert.Equal(t, SeverityCritical, a.RedFlags[0].Severity)
	require.Len(t, a.ConnectedProperties, 1)
	require.NotNil(t, a.EvidencePackage)
	assert.Equal(t, map[string]interface{}{"created": "2025-06-12"}, a.EvidencePackage.WhoisRecords)
	require.NotNil(t, a.EvidenceKey)
	assert.Equal(t, key, *a.EvidenceKey)
	assert.Nil(t, a.CompletedAt)
}

func TestRepository_GetAnalysis_NullEvidence(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()

	db.On("QueryRow", ctx, mock.Anything, []any{id}).
		Return(dbtest.NewMockRow(analysisRow(id, "pending", nil, nil)...))

	a, err := repo.GetAnalysis(ctx, id)

	require.NoError(t, err)
	assert.Nil(t, a.EvidencePackage)
	assert.Nil(t, a.EvidenceKey)
}

func TestRepository_GetAnalysis_NotFound(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()

	db.On("QueryRow", ctx, mock.Anything, []any{id}).Return(dbtest.NewErrRow(pgx.ErrNoRows))

	_, err := repo.GetAnalysis(ctx, id)
	assert.ErrorIs(t, err, ErrAnalysisNotFound)
}

func TestRepository_UpdateAnalysisStatus(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	found, missing := uuid.New(), uuid.New()

	db.On("Exec", ctx, queryContains("SET status = $2"), []any{found, StatusProcessing}).Return(dbtest.Tag("UPDATE 1"), nil)
	db.On("Exec", ctx, queryContains("SET status = $2"), []any{missing, StatusProcessing}).Return(dbtest.Tag("UPDATE 0"), nil)

	assert.NoError(t, repo.UpdateAnalysisStatus(ctx, found, StatusProcessing))
	assert.ErrorIs(t, repo.UpdateAnalysisStatus(ctx, missing, StatusProcessing), ErrAnalysisNotFound)
}

func TestRepository_CompleteAnalysis(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	a := &AnalysisResult{
		ID:               uuid.New(),
		FraudScore:       80,
		RiskLevel:        RiskCritical,
		DigitalFootprint: Footprint{"malware": {"isMalicious": true}},
		RedFlags:         []RedFlag{{Severity: SeverityCritical, Message: "Malicious content detected"}},
		EvidencePackage:  &EvidencePackage{Timestamp: now},
		Status:           StatusCompleted,
		UpdatedAt:        now,
		CompletedAt:      &now,
	}

	db.On("Exec", ctx, queryContains("evidence_package = $7"), mock.MatchedBy(func(args []any) bool {
		var pkg EvidencePackage
		raw, ok := args[6].([]byte)
		return ok && json.Unmarshal(raw, &pkg) == nil && args[7] == StatusCompleted &&
			string(args[5].([]byte)) == "[]"
	})).Return(dbtest.Tag("UPDATE 1"), nil)

	require.NoError(t, repo.CompleteAnalysis(ctx, a))
	db.AssertExpectations(t)
}

func TestRepository_CompleteAnalysis_NilEvidenceIsNull(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()

	a := &AnalysisResult{ID: uuid.New(), Status: StatusCompleted}

	db.On("Exec", ctx, mock.Anything, mock.MatchedBy(func(args []any) bool {
		raw, ok := args[6].([]byte)
		return ok && raw == nil
	})).Return(dbtest.Tag("UPDATE 0"), nil)

	assert.ErrorIs(t, repo.CompleteAnalysis(ctx, a), ErrAnalysisNotFound)
}

func TestRepository_GetRecentAnalyses(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	rows := dbtest.NewMockRows(
		analysisRow(first, "completed", nil, nil),
		analysisRow(second, "processing", nil, nil),
	)
	db.On("Query", ctx, queryContains("ORDER BY created_at DESC"), []any{10}).Return(rows, nil)

	got, err := repo.GetRecentAnalyses(ctx, 10)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0].ID)
	assert.Equal(t, StatusProcessing, got[1].Status)
	assert.True(t, rows.Closed())
}

func TestRepository_GetRecentAnalyses_RowsError(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.Anything, []any{5}).Return(dbtest.NewMockRows().WithErr(errors.New("conn lost")), nil)

	_, err := repo.GetRecentAnalyses(ctx, 5)
	assert.EqualError(t, err, "conn lost")
}

func TestRepository_MarkStaleAnalysesFailed(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	cutoff := time.Now().Add(-10 * time.Minute)
	running, stale1, stale2 := uuid.New(), uuid.New(), uuid.New()

	db.On("Query", ctx, queryContains("RETURNING id"), []any{cutoff, []string{running.String()}}).
		Return(dbtest.NewMockRows([]any{stale1}, []any{stale2}), nil)
	db.On("Exec", ctx, queryContains("UPDATE analysis_queue"), []any{[]string{stale1.String(), stale2.String()}}).
		Return(dbtest.Tag("UPDATE 5"), nil)

	n, err := repo.MarkStaleAnalysesFailed(ctx, cutoff, []uuid.UUID{running})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	db.AssertExpectations(t)
}

func TestRepository_MarkStaleAnalysesFailed_NoneStale(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	cutoff := time.Now()

	db.On("Query", ctx, mock.Anything, []any{cutoff, []string{}}).Return(dbtest.NewMockRows(), nil)

	n, err := repo.MarkStaleAnalysesFailed(ctx, cutoff, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestRepository_GetQueueItems(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	analysisID := uuid.New()
	now := time.Now()
	started := now.Add(-time.Second)

	rows := dbtest.NewMockRows(
		[]any{uuid.New(), analysisID, "osint", 0, "completed", 100, []byte(`{"scamReports":[]}`), "", started, now, now, now},
		[]any{uuid.New(), analysisID, "truecaller", 1, "failed", 100, nil, "lookup unavailable", started, now, now, now},
		[]any{uuid.New(), analysisID, "whois", 2, "queued", 0, nil, "", nil, nil, now, now},
	)
	db.On("Query", ctx, queryContains("ORDER BY position"), []any{analysisID}).Return(rows, nil)

	items, err := repo.GetQueueItems(ctx, analysisID)

	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, providers.TaskOSINT, items[0].TaskType)
	assert.Equal(t, TaskCompleted, items[0].Status)
	assert.NotNil(t, items[0].Result)
	assert.Equal(t, TaskFailed, items[1].Status)
	assert.Nil(t, items[1].Result)
	assert.Equal(t, "lookup unavailable", items[1].Error)
	assert.Nil(t, items[2].StartedAt)
	require.NotNil(t, items[0].StartedAt)
	assert.Equal(t, started, *items[0].StartedAt)
}

func TestRepository_UpdateQueueItemResult(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	ok, bad := uuid.New(), uuid.New()

	db.On("Exec", ctx, queryContains("progress = 100"), []any{ok, []byte(`{"isSpam":false}`), TaskCompleted, ""}).Return(dbtest.Tag("UPDATE 1"), nil)
	db.On("Exec", ctx, queryContains("progress = 100"), []any{bad, nil, TaskFailed, "timeout"}).Return(dbtest.Tag("UPDATE 1"), nil)

	require.NoError(t, repo.UpdateQueueItemResult(ctx, ok, json.RawMessage(`{"isSpam":false}`), TaskCompleted, ""))
	require.NoError(t, repo.UpdateQueueItemResult(ctx, bad, nil, TaskFailed, "timeout"))
	db.AssertExpectations(t)
}

func TestRepository_UpdateQueueItemProgress(t *testing.T) {
	db := new(dbtest.MockDB)
	repo := NewRepository(db)
	ctx := context.Background()
	id := uuid.New()

	db.On("Exec", ctx, queryContains("COALESCE(started_at, NOW())"), []any{id, 10, TaskProcessing}).Return(dbtest.Tag("UPDATE 1"), nil)

	require.NoError(t, repo.UpdateQueueItemProgress(ctx, id, 10, TaskProcessing))
	db.AssertExpectations(t)
}
