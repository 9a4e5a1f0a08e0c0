package domain

import "fmt"

// ClassifierIssue is one issue entry in the classifier's structured output.
// Location carries the room for cleaning issues, Category the equipment kind
// for maintenance issues; both are free-form.
type ClassifierIssue struct {
	GuestComment string `json:"guest_comment"`
	Problem      string `json:"problem"`
	Location     string `json:"location,omitempty"`
	Category     string `json:"category,omitempty"`
	Severity     string `json:"severity"`
	Urgency      string `json:"urgency,omitempty"`
}

// ClassifierResult is the structured document requested from the external
// classifier. It mirrors the Analysis shape and must pass Validate before
// the pipeline accepts it.
type ClassifierResult struct {
	SatisfactionScore      float64           `json:"satisfaction_score"`
	CleaningIssues         []ClassifierIssue `json:"cleaning_issues"`
	MaintenanceIssues      []ClassifierIssue `json:"maintenance_issues"`
	PositiveHighlights     []string          `json:"positive_highlights"`
	GuestSentiment         string            `json:"guest_sentiment"`
	RecommendedPriceChange float64           `json:"recommended_price_change"`
	Confidence             float64           `json:"confidence"`
}

// Validate checks the numeric ranges the pipeline depends on. Severity and
// urgency strings are not validated here: unknown values are coerced to
// documented defaults during conversion instead of rejected.
func (r *ClassifierResult) Validate() error {
	if r.SatisfactionScore < 0 || r.SatisfactionScore > 100 {
		return fmt.Errorf("%w: satisfaction_score %.2f out of [0,100]", ErrMalformedResponse, r.SatisfactionScore)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.2f out of [0,1]", ErrMalformedResponse, r.Confidence)
	}
	if r.RecommendedPriceChange < -25 || r.RecommendedPriceChange > 20 {
		return fmt.Errorf("%w: recommended_price_change %.2f out of [-25,+20]", ErrMalformedResponse, r.RecommendedPriceChange)
	}
	if r.GuestSentiment == "" {
		return fmt.Errorf("%w: missing guest_sentiment", ErrMalformedResponse)
	}
	return nil
}

// ToAnalysis converts a validated result into the run-owned Analysis,
// coercing enum fields onto their closed sets.
func (r *ClassifierResult) ToAnalysis(propertyID string) Analysis {
	issues := make([]Issue, 0, len(r.CleaningIssues)+len(r.MaintenanceIssues))
	for _, ci := range r.CleaningIssues {
		issues = append(issues, Issue{
			Category:      CategoryCleaning,
			Subcategory:   ci.Location,
			Severity:      CoerceSeverity(ci.Severity),
			SourceComment: ci.GuestComment,
		})
	}
	for _, mi := range r.MaintenanceIssues {
		issues = append(issues, Issue{
			Category:      CategoryMaintenance,
			Subcategory:   mi.Category,
			Severity:      CoerceSeverity(mi.Severity),
			Urgency:       CoerceUrgency(mi.Urgency),
			SourceComment: mi.GuestComment,
		})
	}
	return Analysis{
		PropertyID:               propertyID,
		SatisfactionScore:        ClampScore(r.SatisfactionScore),
		Issues:                   issues,
		Sentiment:                r.GuestSentiment,
		RecommendedAdjustmentPct: r.RecommendedPriceChange,
		Confidence:               r.Confidence,
		PositiveHighlights:       r.PositiveHighlights,
	}
}
