package domain

// IssuePenalty is one itemized deduction applied by the pricing rules,
// kept on the decision for auditability.
type IssuePenalty struct {
	Label string  `json:"label"`
	Pct   float64 `json:"pct"` // negative percentage points
}

// PricingDecision is derived deterministically from exactly one Analysis.
// It retains the band description, the itemized penalties and the exact
// weights applied so every price change can be explained after the fact.
type PricingDecision struct {
	PropertyID      string         `json:"property_id"`
	BasePrice       float64        `json:"base_price"`
	NewPrice        float64        `json:"new_price"`
	AdjustmentPct   float64        `json:"adjustment_pct"` // final, post-guardrail, in percent
	RuleBand        string         `json:"rule_band"`
	IssuePenalties  []IssuePenalty `json:"issue_penalties,omitempty"`
	GPTWeight       float64        `json:"gpt_weight"`
	RuleWeight      float64        `json:"rule_weight"`
	GuardrailCapped bool           `json:"guardrail_capped"`
	Confidence      float64        `json:"confidence"`
}

// PriceChange is the per-night dollar delta of the decision.
func (d PricingDecision) PriceChange() float64 { return d.NewPrice - d.BasePrice }
