package domain

import "time"

// NotificationOutcome records one channel delivery attempt.
type NotificationOutcome struct {
	Channel   string
	Recipient string
	Success   bool
	Err       string
}

// RunSummary is the read-only snapshot produced for the presentation layer.
// Counts always reflect actually-completed work; GuardrailViolations makes
// degraded runs distinguishable from clean ones.
type RunSummary struct {
	RunID                  string    `json:"run_id"`
	PropertiesAnalyzed     int       `json:"properties_analyzed"`
	AverageSatisfaction    float64   `json:"average_satisfaction"`
	TotalCleaningIssues    int       `json:"total_cleaning_issues"`
	TotalMaintenanceIssues int       `json:"total_maintenance_issues"`
	PricingAdjustments     int       `json:"pricing_adjustments_count"`
	NetRevenueImpact       float64   `json:"net_revenue_impact"`
	NotificationsSent      int       `json:"notifications_sent"`
	GuardrailViolations    int       `json:"guardrail_violations"`
	CompletedAt            time.Time `json:"completed_at"`
}
