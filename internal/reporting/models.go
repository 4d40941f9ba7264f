package reporting

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/internal/analysis"
)

// ReportMetadata describes a generated analysis report
type ReportMetadata struct {
	ReportURL   string             `json:"reportUrl"`
	AnalysisID  uuid.UUID          `json:"analysisId"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Title       string             `json:"title"`
	RiskLevel   analysis.RiskLevel `json:"riskLevel"`
	FraudScore  int                `json:"fraudScore"`
}

// EvidenceContents lists what an evidence export contains
type EvidenceContents struct {
	AnalysisReport   bool `json:"analysisReport"`
	DigitalFootprint bool `json:"digitalFootprint"`
	RedFlags         int  `json:"redFlags"`
	EvidencePackage  bool `json:"evidencePackage"`
	Screenshots      bool `json:"screenshots"`
	NetworkTrace     bool `json:"networkTrace"`
}

// EvidenceExport describes where the evidence of an analysis can be downloaded
type EvidenceExport struct {
	Filename    string           `json:"filename"`
	DownloadURL string           `json:"downloadUrl"`
	Size        string           `json:"size,omitempty"`
	Archived    bool             `json:"archived"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Contents    EvidenceContents `json:"contents"`
}

// AuthorityReportRequest asks to forward an analysis to cybercrime agencies
type AuthorityReportRequest struct {
	AnalysisID   uuid.UUID `json:"analysisId" validate:"required"`
	Anonymous    bool      `json:"anonymous"`
	UserLocation string    `json:"userLocation" validate:"max=200"`
}

// AuthorityReport is the receipt of an authority report
type AuthorityReport struct {
	ReportID    string    `json:"reportId"`
	Status      string    `json:"status"`
	Agencies    []string  `json:"agencies"`
	SubmittedAt time.Time `json:"submittedAt"`
	Anonymous   bool      `json:"anonymous"`
	AnalysisID  uuid.UUID `json:"analysisId"`
	Location    string    `json:"location"`
	Message     string    `json:"message"`
}
