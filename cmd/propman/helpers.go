package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

func printSummary(s domain.RunSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", s.RunID)
	fmt.Fprintf(w, "properties analyzed\t%d\n", s.PropertiesAnalyzed)
	fmt.Fprintf(w, "average satisfaction\t%.1f%%\n", s.AverageSatisfaction)
	fmt.Fprintf(w, "cleaning issues\t%d\n", s.TotalCleaningIssues)
	fmt.Fprintf(w, "maintenance issues\t%d\n", s.TotalMaintenanceIssues)
	fmt.Fprintf(w, "pricing adjustments\t%d\n", s.PricingAdjustments)
	fmt.Fprintf(w, "net revenue impact\t%+.2f/day\n", s.NetRevenueImpact)
	fmt.Fprintf(w, "notifications sent\t%d\n", s.NotificationsSent)
	fmt.Fprintf(w, "guardrail violations\t%d\n", s.GuardrailViolations)
	_ = w.Flush()
}
