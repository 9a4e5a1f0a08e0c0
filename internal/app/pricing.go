package app

import (
	"fmt"
	"math"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
	"github.com/Akharrat1991/AI-Property-Management/internal/guardrail"
)

// PricingConfig carries the hand-tuned blend and penalty constants. The
// values are preserved from operational tuning, not derived; change them
// here, never inline.
type PricingConfig struct {
	GPTWeight float64 // weight of the classifier's recommendation vs the rules

	HighCleaningPenalty      float64 // percentage points, negative
	MediumCleaningPenalty    float64
	HighMaintenancePenalty   float64
	MediumMaintenancePenalty float64
	BothCategoriesPenalty    float64
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		GPTWeight:                0.6,
		HighCleaningPenalty:      -10,
		MediumCleaningPenalty:    -5,
		HighMaintenancePenalty:   -8,
		MediumMaintenancePenalty: -4,
		BothCategoriesPenalty:    -3,
	}
}

// scoreBand maps a satisfaction range to a base adjustment. Ordered,
// disjoint, first match wins.
type scoreBand struct {
	min  float64
	pct  float64
	desc string
}

var scoreBands = []scoreBand{
	{95, 15, "exceptional (95%+)"},
	{90, 10, "excellent (90-94%)"},
	{85, 5, "very good (85-89%)"},
	{80, 0, "average (80-84%)"},
	{75, -8, "below average (75-79%)"},
	{70, -15, "poor (70-74%)"},
	{60, -20, "very poor (60-69%)"},
	{math.Inf(-1), -25, "critical (<60%)"},
}

// PricingEngine converts one Analysis into one PricingDecision. Decide is
// deterministic: identical inputs always yield identical decisions.
type PricingEngine struct {
	guard *guardrail.Guardrail
	cfg   PricingConfig
}

func NewPricingEngine(g *guardrail.Guardrail, cfg PricingConfig) *PricingEngine {
	return &PricingEngine{guard: g, cfg: cfg}
}

// Decide blends the rule band and issue penalties with the classifier's
// recommendation, scales by confidence and enforces the magnitude cap:
//
//	combined = w*(rec/100) + (1-w)*((band+penalties)/100)
//	combined *= confidence, then clamped to the guardrail ceiling
//	new_price = round(base * (1+combined))
func (e *PricingEngine) Decide(a domain.Analysis, basePrice float64) domain.PricingDecision {
	band := bandFor(a.SatisfactionScore)
	penalties, penaltyTotal := e.issuePenalties(a.Issues)

	rule := (band.pct + penaltyTotal) / 100
	gpt := a.RecommendedAdjustmentPct / 100

	combined := e.cfg.GPTWeight*gpt + (1-e.cfg.GPTWeight)*rule
	combined *= a.Confidence

	combined, capped := e.guard.CapAdjustment(combined)

	return domain.PricingDecision{
		PropertyID:      a.PropertyID,
		BasePrice:       basePrice,
		NewPrice:        math.Round(basePrice * (1 + combined)),
		AdjustmentPct:   combined * 100,
		RuleBand:        band.desc,
		IssuePenalties:  penalties,
		GPTWeight:       e.cfg.GPTWeight,
		RuleWeight:      1 - e.cfg.GPTWeight,
		GuardrailCapped: capped,
		Confidence:      a.Confidence,
	}
}

func bandFor(score float64) scoreBand {
	for _, b := range scoreBands {
		if score >= b.min {
			return b
		}
	}
	return scoreBands[len(scoreBands)-1]
}

// issuePenalties itemizes the fixed deductions: one per present
// severity/category pair, plus an extra when both categories have issues.
func (e *PricingEngine) issuePenalties(issues []domain.Issue) ([]domain.IssuePenalty, float64) {
	var highClean, medClean, highMaint, medMaint bool
	var anyClean, anyMaint bool
	for _, is := range issues {
		switch is.Category {
		case domain.CategoryCleaning:
			anyClean = true
			switch is.Severity {
			case domain.SeverityHigh:
				highClean = true
			case domain.SeverityMedium:
				medClean = true
			}
		case domain.CategoryMaintenance:
			anyMaint = true
			switch is.Severity {
			case domain.SeverityHigh:
				highMaint = true
			case domain.SeverityMedium:
				medMaint = true
			}
		}
	}

	var out []domain.IssuePenalty
	add := func(label string, pct float64) {
		out = append(out, domain.IssuePenalty{Label: fmt.Sprintf("%s: %.1f%%", label, pct), Pct: pct})
	}
	if highClean {
		add("High cleaning issues", e.cfg.HighCleaningPenalty)
	}
	if medClean {
		add("Medium cleaning issues", e.cfg.MediumCleaningPenalty)
	}
	if highMaint {
		add("High maintenance issues", e.cfg.HighMaintenancePenalty)
	}
	if medMaint {
		add("Medium maintenance issues", e.cfg.MediumMaintenancePenalty)
	}
	if anyClean && anyMaint {
		add("Issues in both categories", e.cfg.BothCategoriesPenalty)
	}

	total := 0.0
	for _, p := range out {
		total += p.Pct
	}
	return out, total
}
