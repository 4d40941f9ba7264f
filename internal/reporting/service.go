package reporting

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/internal/analysis"
	"github.com/richxcame/cyberguard/internal/threatintel"
	"github.com/richxcame/cyberguard/pkg/logger"
	"github.com/richxcame/cyberguard/pkg/security"
	"github.com/richxcame/cyberguard/pkg/storage"
	"go.uber.org/zap"
)

const (
	reportIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	reportIDSuffix   = 9

	placeholderEvidenceSize = "2.4 MB"
	defaultURLExpiry        = 15 * time.Minute
	maxLocationLength       = 200

	submittedMessage = "Evidence package has been securely transmitted to the relevant cybercrime authorities."
)

// AnalysisGetter loads analyses; *analysis.Service satisfies it
type AnalysisGetter interface {
	GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.AnalysisResult, error)
}

// ScamReporter records scam reports; *threatintel.Service satisfies it
type ScamReporter interface {
	RecordScamReport(ctx context.Context, value, reportType string, count int) (*threatintel.ScamReport, error)
}

// Service builds report metadata and authority submissions
type Service struct {
	analyses  AnalysisGetter
	reports   ScamReporter
	archive   storage.Storage
	urlExpiry time.Duration
	now       func() time.Time
}

// NewService creates a reporting service. archive may be nil when evidence
// archiving is disabled.
func NewService(analyses AnalysisGetter, reports ScamReporter, archive storage.Storage, urlExpiry time.Duration) *Service {
	if urlExpiry <= 0 {
		urlExpiry = defaultURLExpiry
	}
	return &Service{
		analyses:  analyses,
		reports:   reports,
		archive:   archive,
		urlExpiry: urlExpiry,
		now:       time.Now,
	}
}

// GenerateReport returns the metadata of the report for an analysis
func (s *Service) GenerateReport(ctx context.Context, id uuid.UUID) (*ReportMetadata, error) {
	a, err := s.analyses.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ReportMetadata{
		ReportURL:   fmt.Sprintf("/reports/%s.pdf", a.ID),
		AnalysisID:  a.ID,
		GeneratedAt: s.now().UTC(),
		Title:       "CyberGuard Analysis Report - " + a.InputValue,
		RiskLevel:   a.RiskLevel,
		FraudScore:  a.FraudScore,
	}, nil
}

// ExportEvidence describes the evidence download. Archived evidence is served
// through a presigned URL; otherwise a placeholder path is returned.
func (s *Service) ExportEvidence(ctx context.Context, id uuid.UUID) (*EvidenceExport, error) {
	a, err := s.analyses.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	export := &EvidenceExport{
		Filename:    fmt.Sprintf("CyberGuard_Evidence_%s_%d.pdf", a.ID, now.UnixMilli()),
		DownloadURL: fmt.Sprintf("/evidence/%s.pdf", a.ID),
		Size:        placeholderEvidenceSize,
		GeneratedAt: now,
		Contents:    contentsOf(a),
	}

	if s.archive == nil || a.EvidenceKey == nil {
		return export, nil
	}

	exists, err := s.archive.Exists(ctx, *a.EvidenceKey)
	if err != nil || !exists {
		logger.WithContext(ctx).Warn("archived evidence unavailable",
			zap.String("analysis_id", a.ID.String()),
			zap.String("key", *a.EvidenceKey),
			zap.Error(err),
		)
		return export, nil
	}

	presigned, err := s.archive.GetPresignedDownloadURL(ctx, *a.EvidenceKey, s.urlExpiry)
	if err != nil {
		logger.WithContext(ctx).Warn("failed to presign evidence download",
			zap.String("analysis_id", a.ID.String()),
			zap.Error(err),
		)
		return export, nil
	}

	export.Filename = fmt.Sprintf("CyberGuard_Evidence_%s_%d.json", a.ID, now.UnixMilli())
	export.DownloadURL = presigned.URL
	export.Size = ""
	export.Archived = true
	export.ExpiresAt = &presigned.ExpiresAt
	return export, nil
}

// ReportToAuthorities forwards an analysis to the agencies of the reporter's
// location and counts the input as a scam report.
func (s *Service) ReportToAuthorities(ctx context.Context, req *AuthorityReportRequest) (*AuthorityReport, error) {
	a, err := s.analyses.GetAnalysis(ctx, req.AnalysisID)
	if err != nil {
		return nil, err
	}

	location := security.SanitizeInput(req.UserLocation, maxLocationLength)
	if location == "" {
		location = "Unknown"
	}

	now := s.now().UTC()
	report := &AuthorityReport{
		ReportID:    newReportID(now),
		Status:      "submitted",
		Agencies:    AgenciesFor(location),
		SubmittedAt: now,
		Anonymous:   req.Anonymous,
		AnalysisID:  a.ID,
		Location:    location,
		Message:     submittedMessage,
	}

	if s.reports != nil {
		if _, err := s.reports.RecordScamReport(ctx, a.InputValue, a.InputType, 1); err != nil {
			logger.WithContext(ctx).Warn("failed to record scam report for authority report",
				zap.String("analysis_id", a.ID.String()),
				zap.Error(err),
			)
		}
	}

	logger.WithContext(ctx).Info("analysis reported to authorities",
		zap.String("report_id", report.ReportID),
		zap.String("analysis_id", a.ID.String()),
		zap.Int("agencies", len(report.Agencies)),
	)

	return report, nil
}

func contentsOf(a *analysis.AnalysisResult) EvidenceContents {
	c := EvidenceContents{
		AnalysisReport:   true,
		DigitalFootprint: len(a.DigitalFootprint) > 0,
		RedFlags:         len(a.RedFlags),
		EvidencePackage:  a.EvidencePackage != nil,
	}
	if pkg := a.EvidencePackage; pkg != nil {
		c.Screenshots = len(pkg.Screenshots) > 0
		c.NetworkTrace = pkg.NetworkTrace != nil
	}
	return c
}

// newReportID returns RPT-<unix ms>-<9 base36 chars>
func newReportID(now time.Time) string {
	suffix := make([]byte, reportIDSuffix)
	for i := range suffix {
		suffix[i] = reportIDAlphabet[rand.IntN(len(reportIDAlphabet))]
	}
	return fmt.Sprintf("RPT-%d-%s", now.UnixMilli(), suffix)
}
