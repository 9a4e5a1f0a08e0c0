package app

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

// Report builders render the plain-text email bodies. They are pure
// string formatting; all decisions were made upstream.

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return 3
	case domain.SeverityMedium:
		return 2
	default:
		return 1
	}
}

func issuesByCategory(analyses []domain.Analysis, cat domain.IssueCategory) map[string][]domain.Issue {
	out := make(map[string][]domain.Issue)
	for _, a := range analyses {
		for _, is := range a.Issues {
			if is.Category == cat {
				out[a.PropertyID] = append(out[a.PropertyID], is)
			}
		}
	}
	for id := range out {
		issues := out[id]
		sort.SliceStable(issues, func(i, j int) bool {
			return severityRank(issues[i].Severity) > severityRank(issues[j].Severity)
		})
	}
	return out
}

func propertyName(props []domain.PropertyRecord, id string) string {
	for _, p := range props {
		if p.ID == id {
			return p.DisplayName
		}
	}
	return id
}

// BuildCleaningAlert renders the cleaning-team email, or returns false
// when no property has cleaning issues.
func BuildCleaningAlert(props []domain.PropertyRecord, analyses []domain.Analysis, cfg NotifierConfig) (Message, bool) {
	byProp := issuesByCategory(analyses, domain.CategoryCleaning)
	if len(byProp) == 0 {
		return Message{}, false
	}

	var b strings.Builder
	b.WriteString("Hello Cleaning Team,\n\n")
	b.WriteString("Guest reviews flagged cleaning problems at the following properties.\n")
	b.WriteString("Please schedule follow-up visits, highest severity first.\n\n")

	total := 0
	for _, p := range props {
		issues, ok := byProp[p.ID]
		if !ok {
			continue
		}
		b.WriteString(strings.Repeat("=", 60) + "\n")
		fmt.Fprintf(&b, "%s (%d issue(s))\n", p.DisplayName, len(issues))
		b.WriteString(strings.Repeat("=", 60) + "\n")
		for _, is := range issues {
			fmt.Fprintf(&b, "- [%s] %s\n", strings.ToUpper(string(is.Severity)), is.Subcategory)
			if is.SourceComment != "" {
				fmt.Fprintf(&b, "  Guest said: %q\n", is.SourceComment)
			}
		}
		b.WriteString("\n")
		total += len(issues)
	}

	b.WriteString("Thank you,\nProperty Management\n")

	return Message{
		Channel:   ChannelCleaning,
		Subject:   fmt.Sprintf("Cleaning Alert: %d issue(s) across %d propert(ies)", total, len(byProp)),
		Body:      b.String(),
		Recipient: cfg.CleaningTeamEmail,
	}, true
}

// BuildMaintenanceAlert renders the maintenance email, grouped by urgency.
func BuildMaintenanceAlert(props []domain.PropertyRecord, analyses []domain.Analysis, cfg NotifierConfig) (Message, bool) {
	byProp := issuesByCategory(analyses, domain.CategoryMaintenance)
	if len(byProp) == 0 {
		return Message{}, false
	}

	var b strings.Builder
	b.WriteString("Hello Maintenance Team,\n\n")
	b.WriteString("Guest reviews reported the maintenance problems below.\n")
	b.WriteString("Items marked URGENT need attention within 24 hours.\n\n")

	total := 0
	for _, p := range props {
		issues, ok := byProp[p.ID]
		if !ok {
			continue
		}
		b.WriteString(strings.Repeat("=", 60) + "\n")
		fmt.Fprintf(&b, "%s (%d issue(s))\n", p.DisplayName, len(issues))
		b.WriteString(strings.Repeat("=", 60) + "\n")
		for _, is := range issues {
			fmt.Fprintf(&b, "- [%s / %s] %s\n",
				strings.ToUpper(string(is.Severity)),
				strings.ToUpper(string(is.Urgency)),
				is.Subcategory)
			if is.SourceComment != "" {
				fmt.Fprintf(&b, "  Guest said: %q\n", is.SourceComment)
			}
		}
		b.WriteString("\n")
		total += len(issues)
	}

	b.WriteString("Thank you,\nProperty Management\n")

	return Message{
		Channel:   ChannelMaintenance,
		Subject:   fmt.Sprintf("Maintenance Alert: %d issue(s) across %d propert(ies)", total, len(byProp)),
		Body:      b.String(),
		Recipient: cfg.ManagerEmail,
	}, true
}

// BuildPricingReport renders the manager pricing email with per-property
// decisions and daily/monthly/annual revenue projections.
func BuildPricingReport(props []domain.PropertyRecord, decisions []domain.PricingDecision, cfg NotifierConfig) (Message, bool) {
	if len(decisions) == 0 {
		return Message{}, false
	}

	var b strings.Builder
	b.WriteString("Hello,\n\n")
	b.WriteString("Pricing recommendations based on the latest guest review analysis:\n\n")

	var dailyImpact float64
	for _, d := range decisions {
		b.WriteString(strings.Repeat("-", 60) + "\n")
		fmt.Fprintf(&b, "%s\n", propertyName(props, d.PropertyID))
		fmt.Fprintf(&b, "  Current nightly rate: $%.2f\n", d.BasePrice)
		fmt.Fprintf(&b, "  Recommended rate:     $%.2f (%+.2f%%)\n", d.NewPrice, d.AdjustmentPct)
		fmt.Fprintf(&b, "  Score band:           %s\n", d.RuleBand)
		for _, p := range d.IssuePenalties {
			fmt.Fprintf(&b, "  Penalty:              %s\n", p.Label)
		}
		if d.GuardrailCapped {
			b.WriteString("  Note: adjustment capped at the configured ceiling\n")
		}
		dailyImpact += d.PriceChange()
	}
	b.WriteString(strings.Repeat("-", 60) + "\n\n")

	b.WriteString("Projected revenue impact (all properties booked nightly):\n")
	fmt.Fprintf(&b, "  Daily:   %+.2f\n", dailyImpact)
	fmt.Fprintf(&b, "  Monthly: %+.2f\n", dailyImpact*30)
	fmt.Fprintf(&b, "  Annual:  %+.2f\n", dailyImpact*365)

	b.WriteString("\nThank you,\nProperty Management\n")

	return Message{
		Channel:   ChannelPricing,
		Subject:   fmt.Sprintf("Pricing Report: %d recommendation(s), daily impact %+.2f", len(decisions), dailyImpact),
		Body:      b.String(),
		Recipient: cfg.ManagerEmail,
	}, true
}

// BuildSummaryReport renders the run-level digest sent to the manager.
func BuildSummaryReport(s domain.RunSummary, cfg NotifierConfig) Message {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "Analysis run %s completed at %s.\n\n", s.RunID, s.CompletedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Properties analyzed:    %d\n", s.PropertiesAnalyzed)
	fmt.Fprintf(&b, "Average satisfaction:   %.1f%%\n", s.AverageSatisfaction)
	fmt.Fprintf(&b, "Cleaning issues:        %d\n", s.TotalCleaningIssues)
	fmt.Fprintf(&b, "Maintenance issues:     %d\n", s.TotalMaintenanceIssues)
	fmt.Fprintf(&b, "Pricing adjustments:    %d\n", s.PricingAdjustments)
	fmt.Fprintf(&b, "Net revenue impact:     %+.2f per day\n", s.NetRevenueImpact)
	fmt.Fprintf(&b, "Notifications sent:     %d\n", s.NotificationsSent)
	fmt.Fprintf(&b, "Guardrail violations:   %d\n", s.GuardrailViolations)
	b.WriteString("\nThank you,\nProperty Management\n")

	return Message{
		Channel:   ChannelSummary,
		Subject:   fmt.Sprintf("Daily Analysis Summary: %d properties, avg satisfaction %.1f%%", s.PropertiesAnalyzed, s.AverageSatisfaction),
		Body:      b.String(),
		Recipient: cfg.ManagerEmail,
	}
}
