package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
	"github.com/Akharrat1991/AI-Property-Management/internal/guardrail"
)

func newTestPipeline(src *fakeSource, fc *fakeClassifier, tr *fakeTransport, g *guardrail.Guardrail) (*Pipeline, *SummaryStore) {
	cfg := testNotifierConfig()
	ledger := NewFeedbackLedger(3, 3.0)
	store := NewSummaryStore()
	pl := NewPipeline(
		NewIngestionEngine(src, nil, g, 3, time.Minute),
		NewClassificationEngine(fc, g, 4),
		NewPricingEngine(g, DefaultPricingConfig()),
		NewNotificationDispatcher(tr, cfg),
		g, ledger, store, cfg,
	)
	return pl, store
}

func TestPipelineEndToEnd(t *testing.T) {
	props := []domain.PropertyRecord{
		{ID: "p1", DisplayName: "Sea View Loft", BasePrice: 200},
		{ID: "p2", DisplayName: "Garden Studio", BasePrice: 120},
	}

	src := newFakeSource()
	src.batches["p1"] = []domain.ReviewComment{
		{PropertyID: "p1", Polarity: domain.PolarityPositive, Text: "spotless and quiet"},
		{PropertyID: "p1", Polarity: domain.PolarityNegative, Text: "shower pressure was weak"},
	}
	src.batches["p2"] = []domain.ReviewComment{
		{PropertyID: "p2", Polarity: domain.PolarityNegative, Text: "the bathroom was dirty"},
	}

	fc := newFakeClassifier()
	fc.results["p1"] = &domain.ClassifierResult{
		SatisfactionScore: 88,
		MaintenanceIssues: []domain.ClassifierIssue{{
			GuestComment: "shower pressure was weak",
			Problem:      "low water pressure",
			Category:     "maintenance",
			Severity:     "medium",
			Urgency:      "soon",
		}},
		GuestSentiment:         "positive",
		RecommendedPriceChange: 3,
		Confidence:             0.9,
	}
	fc.results["p2"] = &domain.ClassifierResult{
		SatisfactionScore: 72,
		CleaningIssues: []domain.ClassifierIssue{{
			GuestComment: "the bathroom was dirty",
			Problem:      "dirty bathroom",
			Category:     "cleaning",
			Severity:     "high",
		}},
		GuestSentiment:         "negative",
		RecommendedPriceChange: -10,
		Confidence:             0.85,
	}

	tr := newFakeTransport()
	g := guardrail.New(1000, time.Minute, 10, 0.25)
	pl, store := newTestPipeline(src, fc, tr, g)

	sum, err := pl.Run(context.Background(), props)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.PropertiesAnalyzed != 2 {
		t.Fatalf("PropertiesAnalyzed = %d", sum.PropertiesAnalyzed)
	}
	if sum.AverageSatisfaction != 80 {
		t.Fatalf("AverageSatisfaction = %v, want 80", sum.AverageSatisfaction)
	}
	if sum.TotalCleaningIssues != 1 || sum.TotalMaintenanceIssues != 1 {
		t.Fatalf("issue counts = %d/%d, want 1/1", sum.TotalCleaningIssues, sum.TotalMaintenanceIssues)
	}
	// cleaning alert, maintenance alert, pricing report, summary
	if sum.NotificationsSent != 4 {
		t.Fatalf("NotificationsSent = %d, want 4", sum.NotificationsSent)
	}

	stored, ok := store.Latest()
	if !ok {
		t.Fatal("store empty after a completed run")
	}
	if stored.RunID != sum.RunID {
		t.Fatalf("stored run %q, returned run %q", stored.RunID, sum.RunID)
	}
	decisions, _ := store.Decisions()
	if len(decisions) != 2 {
		t.Fatalf("stored decisions = %d, want 2", len(decisions))
	}
}

func TestPipelineIterationCeilingAborts(t *testing.T) {
	src := newFakeSource()
	fc := newFakeClassifier()
	tr := newFakeTransport()
	// ceiling of 2: ingest and classify pass, pricing is denied
	g := guardrail.New(1000, time.Minute, 2, 0.25)
	pl, store := newTestPipeline(src, fc, tr, g)

	props := []domain.PropertyRecord{{ID: "p1", DisplayName: "Sea View Loft", BasePrice: 200}}
	sum, err := pl.Run(context.Background(), props)

	if !errors.Is(err, domain.ErrIterationCeiling) {
		t.Fatalf("err = %v, want ErrIterationCeiling", err)
	}
	if !errors.Is(err, domain.ErrGuardrailBreach) {
		t.Fatal("iteration ceiling should also match the guardrail breach sentinel")
	}
	if sum.PropertiesAnalyzed != 1 {
		t.Fatalf("partial summary should carry completed stages: %+v", sum)
	}
	if tr.sentCount() != 0 {
		t.Fatal("no notifications should go out after an abort")
	}
	if sum.GuardrailViolations == 0 {
		t.Fatal("the ceiling breach should be on the violation log")
	}
	if _, ok := store.Latest(); !ok {
		t.Fatal("partial summary should still be stored for inspection")
	}
}

func TestPipelineRatesStages(t *testing.T) {
	src := newFakeSource()
	src.batches["p1"] = []domain.ReviewComment{
		{PropertyID: "p1", Polarity: domain.PolarityNegative, Text: "dusty floors"},
	}
	fc := newFakeClassifier()
	fc.errs["p1"] = errBoom // forces the keyword fallback

	tr := newFakeTransport()
	g := guardrail.New(1000, time.Minute, 10, 0.25)
	cfg := testNotifierConfig()
	ledger := NewFeedbackLedger(3, 3.0)
	pl := NewPipeline(
		NewIngestionEngine(src, nil, g, 3, time.Minute),
		NewClassificationEngine(fc, g, 4),
		NewPricingEngine(g, DefaultPricingConfig()),
		NewNotificationDispatcher(tr, cfg),
		g, ledger, NewSummaryStore(), cfg,
	)

	props := []domain.PropertyRecord{{ID: "p1", DisplayName: "Sea View Loft", BasePrice: 200}}
	if _, err := pl.Run(context.Background(), props); err != nil {
		t.Fatalf("Run: %v", err)
	}

	classifyRatings := ledger.Ratings(StageClassify)
	if len(classifyRatings) != 1 || classifyRatings[0].Score != 2 {
		t.Fatalf("fallback run should rate classify 2: %+v", classifyRatings)
	}
	pricingRatings := ledger.Ratings(StagePricing)
	if len(pricingRatings) != 1 || pricingRatings[0].Score != 4 {
		t.Fatalf("uncapped pricing should rate 4: %+v", pricingRatings)
	}
}
