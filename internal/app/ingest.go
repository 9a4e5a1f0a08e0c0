package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	redisad "github.com/Akharrat1991/AI-Property-Management/internal/adapters/redis"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
	"github.com/Akharrat1991/AI-Property-Management/internal/guardrail"
)

// IngestionEngine fetches raw review batches per property from the scrape
// collaborator. At most `workers` fetches run concurrently; a failing
// property contributes zero comments instead of aborting the batch.
type IngestionEngine struct {
	source  domain.ReviewSource
	cache   domain.Cache // nil disables caching
	guard   *guardrail.Guardrail
	workers int64

	cacheTTLSec  int
	fetchTimeout time.Duration
	deferBackoff time.Duration
	maxDeferrals int
}

func NewIngestionEngine(src domain.ReviewSource, cache domain.Cache, g *guardrail.Guardrail, workers int, cacheTTL time.Duration) *IngestionEngine {
	if workers <= 0 {
		workers = 3
	}
	return &IngestionEngine{
		source:       src,
		cache:        cache,
		guard:        g,
		workers:      int64(workers),
		cacheTTLSec:  int(cacheTTL.Seconds()),
		fetchTimeout: 90 * time.Second,
		deferBackoff: 500 * time.Millisecond,
		maxDeferrals: 4,
	}
}

// FetchAll returns all comments collected across the portfolio. Ordering
// across properties carries no meaning; comment order within one property is
// preserved as received from the source.
func (e *IngestionEngine) FetchAll(ctx context.Context, props []domain.PropertyRecord) []domain.ReviewComment {
	sem := semaphore.NewWeighted(e.workers)
	results := make([][]domain.ReviewComment, len(props))

	for i, p := range props {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("ingest canceled before completion")
			break
		}
		go func(i int, p domain.PropertyRecord) {
			defer sem.Release(1)
			results[i] = e.fetchOne(ctx, p)
		}(i, p)
	}
	// drain remaining permits: all workers done
	if err := sem.Acquire(context.Background(), e.workers); err == nil {
		sem.Release(e.workers)
	}

	var out []domain.ReviewComment
	for _, batch := range results {
		out = append(out, batch...)
	}
	return out
}

// fetchOne resolves one property's batch: cache first, then a guardrail-gated
// external call with bounded deferral on rate denial.
func (e *IngestionEngine) fetchOne(ctx context.Context, p domain.PropertyRecord) []domain.ReviewComment {
	if e.cache != nil {
		var cached []domain.ReviewComment
		if ok, err := e.cache.Get(ctx, redisad.ReviewKey(p.ID), &cached); err == nil && ok {
			observability.ObserveStage("ingest", "ok")
			log.Debug().Str("property", p.ID).Int("comments", len(cached)).Msg("review batch from cache")
			return cached
		}
	}

	if !e.awaitCallBudget(ctx, p) {
		observability.ObserveStage("ingest", "skip")
		return nil
	}

	fctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	comments, err := e.source.FetchReviews(fctx, p)
	if err != nil {
		observability.ObserveStage("ingest", "skip")
		log.Warn().Str("property", p.ID).Err(err).Msg("review fetch failed, contributing zero comments")
		return nil
	}
	observability.ObserveStage("ingest", "ok")
	log.Info().Str("property", p.ID).Int("comments", len(comments)).Msg("reviews fetched")

	if e.cache != nil && len(comments) > 0 {
		if err := e.cache.Set(ctx, redisad.ReviewKey(p.ID), comments, e.cacheTTLSec); err != nil {
			log.Warn().Str("property", p.ID).Err(err).Msg("review cache set failed")
		}
	}
	return comments
}

// awaitCallBudget asks the guardrail for an external-call slot, deferring
// with a bounded backoff when denied. A property that never gets a slot is
// skipped with a recorded violation, not dropped silently.
func (e *IngestionEngine) awaitCallBudget(ctx context.Context, p domain.PropertyRecord) bool {
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		if e.guard.AllowExternalCall() {
			return true
		}
		if attempt >= e.maxDeferrals {
			e.guard.RecordViolation(guardrail.KindRateLimit,
				fmt.Sprintf("fetch for %s skipped after %d deferrals", p.ID, attempt))
			return false
		}
		if !sleepCtx(ctx, e.deferBackoff) {
			return false
		}
	}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
