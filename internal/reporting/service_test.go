package reporting

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/internal/analysis"
	"github.com/richxcame/cyberguard/internal/threatintel"
	"github.com/richxcame/cyberguard/pkg/common"
	"github.com/richxcame/cyberguard/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalyses struct {
	mock.Mock
}

func (m *MockAnalyses) GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.AnalysisResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.AnalysisResult), args.Error(1)
}

type MockScamReporter struct {
	mock.Mock
}

func (m *MockScamReporter) RecordScamReport(ctx context.Context, value, reportType string, count int) (*threatintel.ScamReport, error) {
	args := m.Called(ctx, value, reportType, count)
	report, _ := args.Get(0).(*threatintel.ScamReport)
	return report, args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	args := m.Called(ctx, key, reader, size, contentType)
	result, _ := args.Get(0).(*storage.UploadResult)
	return result, args.Error(1)
}

func (m *MockStorage) GetURL(key string) string {
	return m.Called(key).String(0)
}

func (m *MockStorage) GetPresignedDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (*storage.PresignedURLResult, error) {
	args := m.Called(ctx, key, expiresIn)
	result, _ := args.Get(0).(*storage.PresignedURLResult)
	return result, args.Error(1)
}

func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(analyses AnalysisGetter, reports ScamReporter, archive storage.Storage) *Service {
	svc := NewService(analyses, reports, archive, 10*time.Minute)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func completedAnalysis() *analysis.AnalysisResult {
	return &analysis.AnalysisResult{
		ID:               uuid.New(),
		InputType:        "url",
		InputValue:       "https://fake-jobs.tk",
		FraudScore:       85,
		RiskLevel:        analysis.RiskCritical,
		DigitalFootprint: analysis.Footprint{"whois": {"age": 2}},
		RedFlags: []analysis.RedFlag{
			{Severity: analysis.SeverityCritical, Message: "Domain registered 2 days ago"},
			{Severity: analysis.SeverityHigh, Message: "No SSL certificate"},
		},
		EvidencePackage: &analysis.EvidencePackage{
			Screenshots:  []interface{}{"/s.png"},
			NetworkTrace: map[string]interface{}{"httpStatus": 200},
		},
		Status: analysis.StatusCompleted,
	}
}

func TestGenerateReport(t *testing.T) {
	analyses := new(MockAnalyses)
	svc := newTestService(analyses, nil, nil)
	a := completedAnalysis()
	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)

	report, err := svc.GenerateReport(context.Background(), a.ID)

	require.NoError(t, err)
	assert.Equal(t, "/reports/"+a.ID.String()+".pdf", report.ReportURL)
	assert.Equal(t, "CyberGuard Analysis Report - https://fake-jobs.tk", report.Title)
	assert.Equal(t, analysis.RiskCritical, report.RiskLevel)
	assert.Equal(t, 85, report.FraudScore)
	assert.Equal(t, fixedNow, report.GeneratedAt)
}

func TestGenerateReport_NotFound(t *testing.T) {
	analyses := new(MockAnalyses)
	svc := newTestService(analyses, nil, nil)
	id := uuid.New()
	analyses.On("GetAnalysis", mock.Anything, id).Return(nil, common.NewNotFoundError("analysis not found", nil))

	_, err := svc.GenerateReport(context.Background(), id)

	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 404, appErr.Code)
}

func TestExportEvidence_Placeholder(t *testing.T) {
	analyses := new(MockAnalyses)
	svc := newTestService(analyses, nil, nil)
	a := completedAnalysis()
	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)

	export, err := svc.ExportEvidence(context.Background(), a.ID)

	require.NoError(t, err)
	assert.False(t, export.Archived)
	assert.Equal(t, "/evidence/"+a.ID.String()+".pdf", export.DownloadURL)
	assert.Equal(t, "2.4 MB", export.Size)
	assert.Equal(t, "CyberGuard_Evidence_"+a.ID.String()+"_1749988800000.pdf", export.Filename)
	assert.Equal(t, EvidenceContents{
		AnalysisReport:   true,
		DigitalFootprint: true,
		RedFlags:         2,
		EvidencePackage:  true,
		Screenshots:      true,
		NetworkTrace:     true,
	}, export.Contents)
}

func TestExportEvidence_PendingAnalysis(t *testing.T) {
	analyses := new(MockAnalyses)
	svc := newTestService(analyses, nil, new(MockStorage))
	a := &analysis.AnalysisResult{ID: uuid.New(), Status: analysis.StatusPending}
	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)

	export, err := svc.ExportEvidence(context.Background(), a.ID)

	require.NoError(t, err)
	assert.Equal(t, EvidenceContents{AnalysisReport: true}, export.Contents)
	assert.False(t, export.Archived)
}

func TestExportEvidence_Presigned(t *testing.T) {
	analyses := new(MockAnalyses)
	archive := new(MockStorage)
	svc := newTestService(analyses, nil, archive)
	a := completedAnalysis()
	key := storage.EvidenceKey(a.ID.String())
	a.EvidenceKey = &key
	expires := fixedNow.Add(10 * time.Minute)

	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)
	archive.On("Exists", mock.Anything, key).Return(true, nil)
	archive.On("GetPresignedDownloadURL", mock.Anything, key, 10*time.Minute).
		Return(&storage.PresignedURLResult{URL: "https://s3.test/" + key + "?sig=abc", Method: "GET", ExpiresAt: expires}, nil)

	export, err := svc.ExportEvidence(context.Background(), a.ID)

	require.NoError(t, err)
	assert.True(t, export.Archived)
	assert.Equal(t, "https://s3.test/"+key+"?sig=abc", export.DownloadURL)
	assert.Empty(t, export.Size)
	require.NotNil(t, export.ExpiresAt)
	assert.Equal(t, expires, *export.ExpiresAt)
	assert.Contains(t, export.Filename, ".json")
}

func TestExportEvidence_PresignFailureFallsBack(t *testing.T) {
	analyses := new(MockAnalyses)
	archive := new(MockStorage)
	svc := newTestService(analyses, nil, archive)
	a := completedAnalysis()
	key := "analyses/x/evidence.json"
	a.EvidenceKey = &key

	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)
	archive.On("Exists", mock.Anything, key).Return(true, nil)
	archive.On("GetPresignedDownloadURL", mock.Anything, key, mock.Anything).Return(nil, errors.New("no credentials"))

	export, err := svc.ExportEvidence(context.Background(), a.ID)

	require.NoError(t, err)
	assert.False(t, export.Archived)
	assert.Equal(t, "/evidence/"+a.ID.String()+".pdf", export.DownloadURL)
}

func TestExportEvidence_MissingArchiveFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		err    error
	}{
		{"expired object", false, nil},
		{"head failure", false, errors.New("access denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyses := new(MockAnalyses)
			archive := new(MockStorage)
			svc := newTestService(analyses, nil, archive)
			a := completedAnalysis()
			key := storage.EvidenceKey(a.ID.String())
			a.EvidenceKey = &key

			analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)
			archive.On("Exists", mock.Anything, key).Return(tt.exists, tt.err)

			export, err := svc.ExportEvidence(context.Background(), a.ID)

			require.NoError(t, err)
			assert.False(t, export.Archived)
			assert.Equal(t, "2.4 MB", export.Size)
			archive.AssertNotCalled(t, "GetPresignedDownloadURL", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReportToAuthorities(t *testing.T) {
	analyses := new(MockAnalyses)
	reports := new(MockScamReporter)
	svc := newTestService(analyses, reports, nil)
	a := completedAnalysis()

	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)
	reports.On("RecordScamReport", mock.Anything, "https://fake-jobs.tk", "url", 1).Return(&threatintel.ScamReport{ReportCount: 1}, nil)

	report, err := svc.ReportToAuthorities(context.Background(), &AuthorityReportRequest{
		AnalysisID:   a.ID,
		Anonymous:    true,
		UserLocation: "  Lagos,\x00   Nigeria ",
	})

	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^RPT-1749988800000-[0-9a-z]{9}$`), report.ReportID)
	assert.Equal(t, "submitted", report.Status)
	assert.Equal(t, "Economic and Financial Crimes Commission (EFCC)", report.Agencies[0])
	assert.True(t, report.Anonymous)
	assert.Equal(t, "Lagos, Nigeria", report.Location)
	assert.Equal(t, a.ID, report.AnalysisID)
	assert.NotEmpty(t, report.Message)
	reports.AssertExpectations(t)
}

func TestReportToAuthorities_DefaultsAndReportFailure(t *testing.T) {
	analyses := new(MockAnalyses)
	reports := new(MockScamReporter)
	svc := newTestService(analyses, reports, nil)
	a := completedAnalysis()

	analyses.On("GetAnalysis", mock.Anything, a.ID).Return(a, nil)
	reports.On("RecordScamReport", mock.Anything, mock.Anything, mock.Anything, 1).Return(nil, errors.New("db down"))

	report, err := svc.ReportToAuthorities(context.Background(), &AuthorityReportRequest{AnalysisID: a.ID})

	require.NoError(t, err)
	assert.Equal(t, "Unknown", report.Location)
	assert.False(t, report.Anonymous)
	assert.Equal(t, defaultAgencies, report.Agencies)
}

func TestReportToAuthorities_NotFound(t *testing.T) {
	analyses := new(MockAnalyses)
	reports := new(MockScamReporter)
	svc := newTestService(analyses, reports, nil)
	id := uuid.New()

	analyses.On("GetAnalysis", mock.Anything, id).Return(nil, common.NewNotFoundError("analysis not found", nil))

	_, err := svc.ReportToAuthorities(context.Background(), &AuthorityReportRequest{AnalysisID: id})

	require.Error(t, err)
	reports.AssertNotCalled(t, "RecordScamReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAgenciesFor(t *testing.T) {
	tests := []struct {
		location string
		first    string
	}{
		{"Nairobi", "Kenya National Police - Cybercrime Unit"},
		{"KENYA", "Kenya National Police - Cybercrime Unit"},
		{"lagos", "Economic and Financial Crimes Commission (EFCC)"},
		{"Accra, Ghana", "Ghana Police Service - Cybercrime Unit"},
		{"Johannesburg", "South African Police Service - Cybercrime Unit"},
		{"Cape Town, South Africa", "South African Police Service - Cybercrime Unit"},
		{"Berlin", "Local Police Cybercrime Unit"},
		{"", "Local Police Cybercrime Unit"},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			agencies := AgenciesFor(tt.location)
			assert.Len(t, agencies, 4)
			assert.Equal(t, tt.first, agencies[0])
		})
	}
}

func TestAgenciesFor_ReturnsCopy(t *testing.T) {
	AgenciesFor("nowhere")[0] = "tampered"
	assert.Equal(t, "Local Police Cybercrime Unit", AgenciesFor("nowhere")[0])
}

func TestNewReportID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newReportID(fixedNow)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
