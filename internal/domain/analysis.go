package domain

import "strings"

type IssueCategory string

const (
	CategoryCleaning    IssueCategory = "cleaning"
	CategoryMaintenance IssueCategory = "maintenance"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Urgency string

const (
	UrgencyCanWait Urgency = "can_wait"
	UrgencySoon    Urgency = "soon"
	UrgencyUrgent  Urgency = "urgent"
)

// CoerceSeverity maps free-form classifier output onto the closed severity
// set. Unrecognized values become SeverityMedium.
func CoerceSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	default:
		return SeverityMedium
	}
}

// CoerceUrgency maps free-form classifier output onto the closed urgency
// set. Unrecognized values become UrgencySoon.
func CoerceUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent":
		return UrgencyUrgent
	case "can wait", "can_wait":
		return UrgencyCanWait
	case "soon":
		return UrgencySoon
	default:
		return UrgencySoon
	}
}

// Issue is one detected cleaning or maintenance complaint extracted from a
// guest comment. Produced only by the classification stage, never mutated.
type Issue struct {
	Category         IssueCategory
	Subcategory      string // free-form: location for cleaning, equipment for maintenance
	Severity         Severity
	Urgency          Urgency // maintenance only, zero value otherwise
	SourceComment    string
	DetectedKeywords []string // populated only on the fallback path
}

// Analysis is the per-property result of one classification pass. One per
// property per run; owned exclusively by that run.
type Analysis struct {
	PropertyID               string
	SatisfactionScore        float64 // [0,100]
	Issues                   []Issue
	Sentiment                string
	RecommendedAdjustmentPct float64 // [-25,+20]
	Confidence               float64 // [0,1]
	PositiveHighlights       []string
	Fallback                 bool // set when produced by the keyword fallback path
}

// ClampScore bounds a satisfaction score to [0,100].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
