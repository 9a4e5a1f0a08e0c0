package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
	"github.com/Akharrat1991/AI-Property-Management/internal/guardrail"
)

const (
	StageIngest   = "ingest"
	StageClassify = "classify"
	StagePricing  = "pricing"
	StageNotify   = "notify"
)

// Pipeline wires the four stages end to end. One Run is one full pass
// over the portfolio; the guardrail instance is shared by every stage.
type Pipeline struct {
	ingest   *IngestionEngine
	classify *ClassificationEngine
	pricing  *PricingEngine
	notify   *NotificationDispatcher
	guard    *guardrail.Guardrail
	ledger   *FeedbackLedger
	store    *SummaryStore
	cfg      NotifierConfig
}

func NewPipeline(
	ingest *IngestionEngine,
	classify *ClassificationEngine,
	pricing *PricingEngine,
	notify *NotificationDispatcher,
	guard *guardrail.Guardrail,
	ledger *FeedbackLedger,
	store *SummaryStore,
	cfg NotifierConfig,
) *Pipeline {
	return &Pipeline{
		ingest:   ingest,
		classify: classify,
		pricing:  pricing,
		notify:   notify,
		guard:    guard,
		ledger:   ledger,
		store:    store,
		cfg:      cfg,
	}
}

// Run executes ingest, classify, price and notify for the whole
// portfolio and returns the run summary. Each stage checks the iteration
// ceiling before starting; on breach the run is cancelled and the
// summary built from whatever completed is returned alongside
// ErrIterationCeiling.
func (pl *Pipeline) Run(ctx context.Context, props []domain.PropertyRecord) (domain.RunSummary, error) {
	runID := uuid.NewString()
	started := time.Now().UTC()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().Int("properties", len(props)).Msg("analysis run started")

	pl.guard.ResetIterations()
	violationsBefore := pl.guard.ViolationCount()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		analyses  []domain.Analysis
		decisions []domain.PricingDecision
		outcomes  []domain.NotificationOutcome
	)

	fatal := func(stage string) (domain.RunSummary, error) {
		cancel()
		logger.Error().Str("stage", stage).Int("iterations", pl.guard.Iterations()).
			Msg("iteration ceiling reached, aborting run")
		observability.ObserveStage(stage, "aborted")
		sum := pl.buildSummary(runID, analyses, decisions, outcomes, violationsBefore)
		pl.store.Put(sum, decisions)
		return sum, fmt.Errorf("run %s stage %s: %w", runID, stage, domain.ErrIterationCeiling)
	}

	// Ingest.
	if !pl.guard.AllowIteration() {
		return fatal(StageIngest)
	}
	comments := pl.ingest.FetchAll(ctx, props)
	observability.ObserveStage(StageIngest, "ok")
	logger.Info().Int("comments", len(comments)).Msg("ingestion complete")

	// Classify.
	if !pl.guard.AllowIteration() {
		return fatal(StageClassify)
	}
	byProp := pl.classify.AnalyzeAll(ctx, props, comments)
	for _, p := range props {
		if a, ok := byProp[p.ID]; ok {
			analyses = append(analyses, a)
			pl.rateClassification(a)
		}
	}
	observability.ObserveStage(StageClassify, "ok")
	logger.Info().Int("analyses", len(analyses)).Msg("classification complete")

	// Price.
	if !pl.guard.AllowIteration() {
		return fatal(StagePricing)
	}
	for _, a := range analyses {
		base := basePriceFor(props, a.PropertyID)
		d := pl.pricing.Decide(a, base)
		decisions = append(decisions, d)
		pl.ratePricing(d)
	}
	observability.ObserveStage(StagePricing, "ok")
	logger.Info().Int("decisions", len(decisions)).Msg("pricing complete")

	// Notify.
	if !pl.guard.AllowIteration() {
		return fatal(StageNotify)
	}
	msgs := pl.buildMessages(runID, props, analyses, decisions, violationsBefore)
	outcomes = pl.notify.Dispatch(ctx, msgs)
	observability.ObserveStage(StageNotify, "ok")

	sum := pl.buildSummary(runID, analyses, decisions, outcomes, violationsBefore)
	pl.store.Put(sum, decisions)
	logger.Info().
		Float64("avg_satisfaction", sum.AverageSatisfaction).
		Float64("net_revenue_impact", sum.NetRevenueImpact).
		Int("violations", sum.GuardrailViolations).
		Dur("elapsed", time.Since(started)).
		Msg("analysis run complete")
	return sum, nil
}

// rateClassification scores the classify stage per property. A fallback
// analysis signals degraded quality.
func (pl *Pipeline) rateClassification(a domain.Analysis) {
	score, note := 4.0, "primary classification"
	if a.Fallback {
		score, note = 2.0, "keyword fallback"
	}
	if err := pl.ledger.Rate(StageClassify, score, note); err != nil {
		log.Warn().Err(err).Msg("classification rating rejected")
	}
}

func (pl *Pipeline) ratePricing(d domain.PricingDecision) {
	score, note := 4.0, "within bounds"
	if d.GuardrailCapped {
		score, note = 2.0, "adjustment capped"
	}
	if err := pl.ledger.Rate(StagePricing, score, note); err != nil {
		log.Warn().Err(err).Msg("pricing rating rejected")
	}
}

func (pl *Pipeline) buildMessages(runID string, props []domain.PropertyRecord, analyses []domain.Analysis, decisions []domain.PricingDecision, violationsBefore int) []Message {
	var msgs []Message
	if m, ok := BuildCleaningAlert(props, analyses, pl.cfg); ok {
		msgs = append(msgs, m)
	}
	if m, ok := BuildMaintenanceAlert(props, analyses, pl.cfg); ok {
		msgs = append(msgs, m)
	}
	if m, ok := BuildPricingReport(props, decisions, pl.cfg); ok {
		msgs = append(msgs, m)
	}
	partial := pl.buildSummary(runID, analyses, decisions, nil, violationsBefore)
	msgs = append(msgs, BuildSummaryReport(partial, pl.cfg))
	return msgs
}

func (pl *Pipeline) buildSummary(runID string, analyses []domain.Analysis, decisions []domain.PricingDecision, outcomes []domain.NotificationOutcome, violationsBefore int) domain.RunSummary {
	sum := domain.RunSummary{
		RunID:              runID,
		PropertiesAnalyzed: len(analyses),
		CompletedAt:        time.Now().UTC(),
	}

	var scoreTotal float64
	for _, a := range analyses {
		scoreTotal += a.SatisfactionScore
		for _, is := range a.Issues {
			switch is.Category {
			case domain.CategoryCleaning:
				sum.TotalCleaningIssues++
			case domain.CategoryMaintenance:
				sum.TotalMaintenanceIssues++
			}
		}
	}
	if len(analyses) > 0 {
		sum.AverageSatisfaction = scoreTotal / float64(len(analyses))
	}

	for _, d := range decisions {
		if d.NewPrice != d.BasePrice {
			sum.PricingAdjustments++
		}
		sum.NetRevenueImpact += d.PriceChange()
	}

	for _, o := range outcomes {
		if o.Success {
			sum.NotificationsSent++
		}
	}

	sum.GuardrailViolations = pl.guard.ViolationCount() - violationsBefore
	return sum
}

func basePriceFor(props []domain.PropertyRecord, id string) float64 {
	for _, p := range props {
		if p.ID == id {
			return p.BasePrice
		}
	}
	return 0
}
