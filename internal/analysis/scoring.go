package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/richxcame/cyberguard/internal/providers"
)

// Score bounds and risk thresholds
const (
	MinScore = 0
	MaxScore = 100

	criticalThreshold = 80
	highThreshold     = 60
	mediumThreshold   = 30
)

// TaskScore returns the fraud-score contribution of one check result
func TaskScore(taskType providers.TaskType, r providers.Result) int {
	switch taskType {
	case providers.TaskWhois:
		age, ok := number(r, "age")
		if !ok {
			return 0
		}
		switch {
		case age < 7:
			return 25
		case age < 30:
			return 15
		case str(r, "country") == "Nigeria" && age < 90:
			return 10
		}
		return 0

	case providers.TaskSSL:
		if boolean(r, "hasSSL") {
			return 0
		}
		return 20

	case providers.TaskOSINT:
		return 5 * length(r, "scamReports")

	case providers.TaskMalware:
		if boolean(r, "isMalicious") {
			return 30
		}

	case providers.TaskTruecaller:
		if boolean(r, "isSpam") {
			score, _ := number(r, "spamScore")
			return int(score)
		}

	case providers.TaskBreachCheck:
		if boolean(r, "isBreached") {
			return 5
		}

	case providers.TaskProfileAnalysis:
		if boolean(r, "isSuspicious") {
			return 15
		}

	case providers.TaskReverseSearch:
		matches, _ := number(r, "matches")
		switch {
		case matches > 10:
			return 20
		case matches > 5:
			return 10
		}

	case providers.TaskContentAnalysis:
		if boolean(r, "isScam") {
			return 25
		}
	}
	return 0
}

// TaskRedFlags extracts the suspicious findings of one check result
func TaskRedFlags(taskType providers.TaskType, r providers.Result) []RedFlag {
	switch taskType {
	case providers.TaskWhois:
		if age, ok := number(r, "age"); ok && age < 7 {
			return []RedFlag{{SeverityCritical, fmt.Sprintf("Domain registered %d days ago", int(age)), "fas fa-exclamation-triangle"}}
		}
	case providers.TaskSSL:
		if !boolean(r, "hasSSL") {
			return []RedFlag{{SeverityHigh, "No SSL certificate", "fas fa-shield-alt"}}
		}
	case providers.TaskOSINT:
		if n := length(r, "scamReports"); n > 0 {
			return []RedFlag{{SeverityCritical, fmt.Sprintf("Found in %d scam reports", n), "fas fa-database"}}
		}
	case providers.TaskMalware:
		if boolean(r, "isMalicious") {
			return []RedFlag{{SeverityCritical, "Malicious content detected", "fas fa-virus"}}
		}
	case providers.TaskTruecaller:
		if boolean(r, "isSpam") {
			reports, _ := number(r, "reportCount")
			return []RedFlag{{SeverityHigh, fmt.Sprintf("Number flagged as spam by %d reports", int(reports)), "fas fa-phone-slash"}}
		}
	case providers.TaskBreachCheck:
		if boolean(r, "isBreached") {
			return []RedFlag{{SeverityMedium, fmt.Sprintf("Email found in %d data breaches", length(r, "breaches")), "fas fa-user-secret"}}
		}
	case providers.TaskProfileAnalysis:
		if boolean(r, "isSuspicious") {
			return []RedFlag{{SeverityHigh, "Suspicious profile indicators detected", "fas fa-user-times"}}
		}
	case providers.TaskReverseSearch:
		if matches, _ := number(r, "matches"); matches > 10 {
			return []RedFlag{{SeverityHigh, fmt.Sprintf("Image found in %d other locations", int(matches)), "fas fa-images"}}
		}
	case providers.TaskContentAnalysis:
		if boolean(r, "isScam") {
			return []RedFlag{{SeverityCritical, "Scam content indicators detected", "fas fa-exclamation-circle"}}
		}
	}
	return nil
}

// TaskConnections extracts identifiers linked to the input from an OSINT result
func TaskConnections(taskType providers.TaskType, r providers.Result) []ConnectedProperty {
	if taskType != providers.TaskOSINT {
		return nil
	}

	var props []ConnectedProperty
	for _, d := range list(r, "relatedDomains") {
		if domain, ok := d.(string); ok {
			props = append(props, ConnectedProperty{Type: "domain", Value: domain, Relationship: "related"})
		}
	}
	for _, p := range list(r, "socialProfiles") {
		profile := toResult(p)
		if profile == nil {
			continue
		}
		props = append(props, ConnectedProperty{
			Type:         "social",
			Value:        str(profile, "handle"),
			Relationship: fmt.Sprintf("%s profile (%s)", str(profile, "platform"), str(profile, "status")),
		})
	}
	return props
}

// ClampScore bounds a raw score to [0,100]
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// RiskLevelFor maps a clamped score to its tier
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score >= criticalThreshold:
		return RiskCritical
	case score >= highThreshold:
		return RiskHigh
	case score >= mediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Aggregation is the combined outcome of all completed checks
type Aggregation struct {
	FraudScore          int
	RiskLevel           RiskLevel
	DigitalFootprint    Footprint
	RedFlags            []RedFlag
	ConnectedProperties []ConnectedProperty
	EvidencePackage     *EvidencePackage
}

// Aggregate folds check results in order. Task types missing from results
// (failed checks) contribute nothing.
func Aggregate(order []providers.TaskType, results map[providers.TaskType]providers.Result, now time.Time) *Aggregation {
	agg := &Aggregation{
		DigitalFootprint:    Footprint{},
		RedFlags:            []RedFlag{},
		ConnectedProperties: []ConnectedProperty{},
	}

	score := 0
	for _, taskType := range order {
		r, ok := results[taskType]
		if !ok {
			continue
		}
		score += TaskScore(taskType, r)
		agg.RedFlags = append(agg.RedFlags, TaskRedFlags(taskType, r)...)
		agg.DigitalFootprint[string(taskType)] = r
		agg.ConnectedProperties = append(agg.ConnectedProperties, TaskConnections(taskType, r)...)
	}

	agg.FraudScore = ClampScore(score)
	agg.RiskLevel = RiskLevelFor(agg.FraudScore)
	agg.EvidencePackage = BuildEvidencePackage(results, agg.ConnectedProperties, now)
	return agg
}

// BuildEvidencePackage collects the evidence artifacts from check results
func BuildEvidencePackage(results map[providers.TaskType]providers.Result, connected []ConnectedProperty, now time.Time) *EvidencePackage {
	pkg := &EvidencePackage{
		Screenshots:      []interface{}{},
		SocialMediaLinks: []ConnectedProperty{},
		ScamReports:      []interface{}{},
		Timestamp:        now.UTC(),
	}

	if whois, ok := results[providers.TaskWhois]; ok {
		pkg.WhoisRecords = whois["records"]
	}
	if ssl, ok := results[providers.TaskSSL]; ok {
		pkg.SSLCertificate = ssl["certificate"]
	}
	if osint, ok := results[providers.TaskOSINT]; ok {
		if shots := list(osint, "screenshots"); shots != nil {
			pkg.Screenshots = shots
		}
		if reports := list(osint, "scamReports"); reports != nil {
			pkg.ScamReports = reports
		}
	}
	if malware, ok := results[providers.TaskMalware]; ok {
		pkg.NetworkTrace = malware["networkTrace"]
	}
	for _, p := range connected {
		if p.Type == "social" {
			pkg.SocialMediaLinks = append(pkg.SocialMediaLinks, p)
		}
	}
	return pkg
}

// CalculateProgress summarizes queue items for pollers
func CalculateProgress(a *AnalysisResult, items []*QueueItem) *Progress {
	p := &Progress{
		AnalysisID: a.ID,
		Status:     a.Status,
		TotalTasks: len(items),
		Tasks:      make([]TaskProgress, 0, len(items)),
	}
	for _, item := range items {
		switch item.Status {
		case TaskCompleted:
			p.CompletedTasks++
		case TaskFailed:
			p.FailedTasks++
		}
		p.Tasks = append(p.Tasks, TaskProgress{
			ID:       item.ID,
			TaskType: item.TaskType,
			Status:   item.Status,
			Progress: item.Progress,
			Error:    item.Error,
		})
	}
	if p.TotalTasks > 0 {
		p.OverallProgress = int(math.Round(100 * float64(p.CompletedTasks) / float64(p.TotalTasks)))
	}
	return p
}

// Result field accessors tolerate both in-memory values and JSON-decoded ones.

func number(r providers.Result, key string) (float64, bool) {
	switch v := r[key].(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func boolean(r providers.Result, key string) bool {
	b, _ := r[key].(bool)
	return b
}

func str(r providers.Result, key string) string {
	s, _ := r[key].(string)
	return s
}

func list(r providers.Result, key string) []interface{} {
	v := r[key]
	if v == nil {
		return nil
	}
	if l, ok := v.([]interface{}); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func length(r providers.Result, key string) int {
	return len(list(r, key))
}

func toResult(v interface{}) providers.Result {
	switch m := v.(type) {
	case providers.Result:
		return m
	case map[string]interface{}:
		return providers.Result(m)
	}
	return nil
}
