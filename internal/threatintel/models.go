package threatintel

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades an advisory
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Category groups advisories
type Category string

const (
	CategoryCampaign       Category = "campaign"
	CategoryDomainSpike    Category = "domain_spike"
	CategoryDatabaseUpdate Category = "database_update"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryCampaign, CategoryDomainSpike, CategoryDatabaseUpdate:
		return true
	}
	return false
}

// ThreatIntelligence is an advisory shown on the dashboard
type ThreatIntelligence struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Category    Category  `json:"category"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ScamReport counts how often an identifier was reported as a scam
type ScamReport struct {
	ID            uuid.UUID `json:"id"`
	ReportedValue string    `json:"reportedValue"`
	ReportType    string    `json:"reportType"`
	ReportCount   int       `json:"reportCount"`
	LastReported  time.Time `json:"lastReported"`
	IsVerified    bool      `json:"isVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RecordScamReportRequest files a scam report. A zero count means one report.
type RecordScamReportRequest struct {
	ReportedValue string `json:"reportedValue" validate:"required,notblank,max=2048"`
	ReportType    string `json:"reportType" validate:"required,input_type"`
	ReportCount   int    `json:"reportCount" validate:"omitempty,min=1,max=1000"`
}

// ScamReportQuery selects one scam report by value
type ScamReportQuery struct {
	Value string `form:"value" json:"value" validate:"required,notblank,max=2048"`
}
