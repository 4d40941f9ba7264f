package analysis

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/cyberguard/internal/providers"
)

// Status is the lifecycle state of an analysis
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsFinal reports whether the analysis can no longer change
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// TaskStatus is the state of a single queued check
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// RiskLevel is the tier derived from the fraud score
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "unknown"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity grades a red flag
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// RedFlag is a discrete suspicious finding
type RedFlag struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Icon     string   `json:"icon,omitempty"`
}

// ConnectedProperty is another identifier linked to the input
type ConnectedProperty struct {
	Type         string `json:"type"`
	Value        string `json:"value"`
	Relationship string `json:"relationship"`
}

// Footprint holds the raw result of every completed check keyed by task type
type Footprint map[string]providers.Result

// EvidencePackage summarizes the artifacts worth keeping from an analysis
type EvidencePackage struct {
	WhoisRecords     interface{}         `json:"whoisRecords"`
	SSLCertificate   interface{}         `json:"sslCertificate"`
	Screenshots      []interface{}       `json:"screenshots"`
	NetworkTrace     interface{}         `json:"networkTrace"`
	SocialMediaLinks []ConnectedProperty `json:"socialMediaLinks"`
	ScamReports      []interface{}       `json:"scamReports"`
	Timestamp        time.Time           `json:"timestamp"`
}

// AnalysisResult is the record of one submitted identifier
type AnalysisResult struct {
	ID                  uuid.UUID           `json:"id"`
	InputType           string              `json:"inputType"`
	InputValue          string              `json:"inputValue"`
	FraudScore          int                 `json:"fraudScore"`
	RiskLevel           RiskLevel           `json:"riskLevel"`
	DigitalFootprint    Footprint           `json:"digitalFootprint"`
	RedFlags            []RedFlag           `json:"redFlags"`
	ConnectedProperties []ConnectedProperty `json:"connectedProperties"`
	EvidencePackage     *EvidencePackage    `json:"evidencePackage"`
	EvidenceKey         *string             `json:"-"`
	Status              Status              `json:"status"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
	CompletedAt         *time.Time          `json:"completedAt,omitempty"`
}

// QueueItem tracks one check of an analysis
type QueueItem struct {
	ID          uuid.UUID          `json:"id"`
	AnalysisID  uuid.UUID          `json:"analysisId"`
	TaskType    providers.TaskType `json:"taskType"`
	Position    int                `json:"position"`
	Status      TaskStatus         `json:"status"`
	Progress    int                `json:"progress"`
	Result      providers.Result   `json:"result"`
	Error       string             `json:"error"`
	StartedAt   *time.Time         `json:"startedAt,omitempty"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// TaskProgress is the per-task view exposed to pollers
type TaskProgress struct {
	ID       uuid.UUID          `json:"id"`
	TaskType providers.TaskType `json:"taskType"`
	Status   TaskStatus         `json:"status"`
	Progress int                `json:"progress"`
	Error    string             `json:"error"`
}

// Progress is the polling view of an analysis
type Progress struct {
	AnalysisID      uuid.UUID      `json:"analysisId"`
	Status          Status         `json:"status"`
	OverallProgress int            `json:"overallProgress"`
	TotalTasks      int            `json:"totalTasks"`
	CompletedTasks  int            `json:"completedTasks"`
	FailedTasks     int            `json:"failedTasks"`
	Tasks           []TaskProgress `json:"tasks"`
}

// Stats backs the dashboard counters
type Stats struct {
	ActiveScans     int   `json:"activeScans"`
	ThreatsDetected int   `json:"threatsDetected"`
	ReportsSent     int64 `json:"reportsSent"`
	CleanResults    int   `json:"cleanResults"`
}

// CreateAnalysisRequest submits one identifier
type CreateAnalysisRequest struct {
	InputType  string `json:"inputType" validate:"required,input_type"`
	InputValue string `json:"inputValue" validate:"required,notblank,max=2048"`
}

// BulkAnalysisRequest submits several identifiers
type BulkAnalysisRequest struct {
	Items []CreateAnalysisRequest `json:"items" validate:"required,min=1,dive"`
}

// BulkAnalysisResponse lists the analyses started by a bulk request
type BulkAnalysisResponse struct {
	Analyses []*AnalysisResult `json:"analyses"`
	Count    int               `json:"count"`
}
