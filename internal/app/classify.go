package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
	"github.com/Akharrat1991/AI-Property-Management/internal/guardrail"
)

// Neutral default returned when a property has no comments at all. No
// classifier call is made for these.
const (
	neutralScore      = 80
	neutralConfidence = 0.3
)

// Fallback constants: fixed confidence for keyword-confirmed issues, lower
// when even the fallback finds nothing informative.
const (
	fallbackConfidence      = 0.7
	fallbackEmptyConfidence = 0.4
)

// ClassificationEngine turns per-property comment batches into Analyses. It
// prefers the external classifier; when that fails, times out or returns an
// ill-shaped result it scores the negative comments against the keyword
// table instead. One property's failure never touches its siblings.
type ClassificationEngine struct {
	classifier domain.Classifier
	guard      *guardrail.Guardrail
	workers    int64

	callTimeout      time.Duration
	negWarnThreshold int // negatives above this with zero issues -> low_detection
}

func NewClassificationEngine(c domain.Classifier, g *guardrail.Guardrail, workers int) *ClassificationEngine {
	if workers <= 0 {
		workers = 4
	}
	return &ClassificationEngine{
		classifier:       c,
		guard:            g,
		workers:          int64(workers),
		callTimeout:      30 * time.Second,
		negWarnThreshold: 3,
	}
}

// AnalyzeAll runs Analyze for every property concurrently, bounded by the
// engine's own ceiling (independent of the ingestion bound).
func (e *ClassificationEngine) AnalyzeAll(ctx context.Context, props []domain.PropertyRecord, comments []domain.ReviewComment) map[string]domain.Analysis {
	byProp := make(map[string][]domain.ReviewComment, len(props))
	for _, c := range comments {
		byProp[c.PropertyID] = append(byProp[c.PropertyID], c)
	}

	sem := semaphore.NewWeighted(e.workers)
	var mu sync.Mutex
	out := make(map[string]domain.Analysis, len(props))

	for _, p := range props {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("classification canceled before completion")
			break
		}
		go func(p domain.PropertyRecord) {
			defer sem.Release(1)
			a := e.Analyze(ctx, p, byProp[p.ID])
			mu.Lock()
			out[p.ID] = a
			mu.Unlock()
		}(p)
	}
	if err := sem.Acquire(context.Background(), e.workers); err == nil {
		sem.Release(e.workers)
	}
	return out
}

// Analyze produces exactly one Analysis for one property.
func (e *ClassificationEngine) Analyze(ctx context.Context, p domain.PropertyRecord, comments []domain.ReviewComment) domain.Analysis {
	positive, negative := partition(comments)

	if len(positive) == 0 && len(negative) == 0 {
		observability.ObserveStage("classify", "ok")
		return domain.Analysis{
			PropertyID:        p.ID,
			SatisfactionScore: neutralScore,
			Sentiment:         "neutral",
			Confidence:        neutralConfidence,
		}
	}

	analysis, err := e.classifyPrimary(ctx, p, positive, negative)
	if err != nil {
		log.Warn().Str("property", p.ID).Str("keyword_table", KeywordTableVersion).Err(err).
			Msg("primary classifier unavailable, using keyword fallback")
		observability.ObserveStage("classify", "fallback")
		analysis = fallbackAnalysis(p.ID, negative)
	} else {
		observability.ObserveStage("classify", "ok")
	}

	// non-fatal quality signal: plenty of complaints but nothing detected
	if len(negative) > e.negWarnThreshold && len(analysis.Issues) == 0 {
		e.guard.RecordViolation(guardrail.KindLowDetection,
			fmt.Sprintf("%s: %d negative comments, zero issues detected", p.ID, len(negative)))
	}
	return analysis
}

func (e *ClassificationEngine) classifyPrimary(ctx context.Context, p domain.PropertyRecord, positive, negative []domain.ReviewComment) (domain.Analysis, error) {
	if !e.guard.AllowExternalCall() {
		e.guard.RecordViolation(guardrail.KindRateLimit, "classifier call denied for "+p.ID)
		return domain.Analysis{}, domain.ErrGuardrailBreach
	}

	cctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	res, err := e.classifier.Classify(cctx, p, texts(positive), texts(negative))
	if err != nil {
		return domain.Analysis{}, err
	}
	return res.ToAnalysis(p.ID), nil
}

// fallbackAnalysis scores keyword membership of each negative comment against
// the keyword table. Every matching comment yields one medium-severity issue
// of the matching category; satisfaction = max(50, 90 - 8*issueCount).
func fallbackAnalysis(propertyID string, negative []domain.ReviewComment) domain.Analysis {
	var issues []domain.Issue
	for _, c := range negative {
		for _, cat := range []domain.IssueCategory{domain.CategoryCleaning, domain.CategoryMaintenance} {
			kws := matchKeywords(c.Text, cat)
			if len(kws) == 0 {
				continue
			}
			issue := domain.Issue{
				Category:         cat,
				Subcategory:      kws[0],
				Severity:         domain.SeverityMedium,
				SourceComment:    c.Text,
				DetectedKeywords: kws,
			}
			if cat == domain.CategoryMaintenance {
				issue.Urgency = domain.UrgencySoon
			}
			issues = append(issues, issue)
		}
	}

	confidence := fallbackConfidence
	if len(issues) == 0 {
		confidence = fallbackEmptyConfidence
	}
	return domain.Analysis{
		PropertyID:        propertyID,
		SatisfactionScore: math.Max(50, 90-8*float64(len(issues))),
		Issues:            issues,
		Sentiment:         "neutral",
		Confidence:        confidence,
		Fallback:          true,
	}
}

func partition(comments []domain.ReviewComment) (positive, negative []domain.ReviewComment) {
	for _, c := range comments {
		if c.Polarity == domain.PolarityNegative {
			negative = append(negative, c)
		} else {
			positive = append(positive, c)
		}
	}
	return positive, negative
}

func texts(comments []domain.ReviewComment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.Text
	}
	return out
}
