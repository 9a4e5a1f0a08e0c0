// Package guardrail enforces the process-wide safety limits every pipeline
// stage consults before touching an external collaborator or applying a
// price change: a sliding-window call-rate limit, an iteration ceiling and a
// symmetric adjustment-magnitude cap. All operations are safe under
// concurrent use from any number of in-flight property analyses.
package guardrail

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
)

const (
	KindRateLimit    = "rate_limit"
	KindIteration    = "iteration"
	KindMagnitude    = "magnitude"
	KindLowDetection = "low_detection"
)

// Violation is one append-only entry in the guardrail's log. Violations are
// non-fatal except the iteration ceiling, which the pipeline surfaces as a
// top-level error.
type Violation struct {
	Kind   string
	Detail string
	At     time.Time
}

// Guardrail holds the shared limits consulted by every pipeline stage. The
// call window and violation log span the process lifetime; the iteration
// counter is reset per run.
type Guardrail struct {
	mu            sync.Mutex
	window        time.Duration
	maxCalls      int
	calls         []time.Time
	iterations    int
	maxIterations int
	maxAdjustment float64 // symmetric cap, fraction domain (0.25 = ±25%)
	violations    []Violation
}

// New builds a guardrail allowing maxCalls external calls per window,
// maxIterations stage iterations per run, and price adjustments within
// ±maxAdjustment (a fraction, e.g. 0.25).
func New(maxCalls int, window time.Duration, maxIterations int, maxAdjustment float64) *Guardrail {
	if maxCalls <= 0 {
		maxCalls = 20
	}
	if window <= 0 {
		window = time.Minute
	}
	if maxIterations <= 0 {
		maxIterations = 10
	}
	if maxAdjustment <= 0 {
		maxAdjustment = 0.25
	}
	return &Guardrail{
		window:        window,
		maxCalls:      maxCalls,
		maxIterations: maxIterations,
		maxAdjustment: maxAdjustment,
	}
}

// AllowExternalCall reports whether fewer than the limit of calls occurred in
// the trailing window, recording the call when allowed. Denied calls are not
// recorded, so a denied caller may retry once the window slides.
func (g *Guardrail) AllowExternalCall() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-g.window)

	// drop timestamps that slid out of the window
	kept := g.calls[:0]
	for _, t := range g.calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	g.calls = kept

	if len(g.calls) >= g.maxCalls {
		return false
	}
	g.calls = append(g.calls, now)
	return true
}

// AllowIteration increments the run's iteration counter unconditionally and
// reports whether the ceiling has not been exceeded. A false return is fatal
// to the run.
func (g *Guardrail) AllowIteration() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.iterations++
	if g.iterations > g.maxIterations {
		g.appendViolation(KindIteration, "iteration ceiling exceeded")
		return false
	}
	return true
}

// ResetIterations zeroes the iteration counter for a fresh run. The
// sliding call window and violation log are deliberately left alone.
func (g *Guardrail) ResetIterations() {
	g.mu.Lock()
	g.iterations = 0
	g.mu.Unlock()
}

// CapAdjustment clamps a price-adjustment fraction to the configured
// symmetric range and reports whether clamping occurred. Capping records a
// magnitude violation.
func (g *Guardrail) CapAdjustment(pct float64) (float64, bool) {
	if pct > g.maxAdjustment {
		g.RecordViolation(KindMagnitude, "adjustment capped at upper bound")
		return g.maxAdjustment, true
	}
	if pct < -g.maxAdjustment {
		g.RecordViolation(KindMagnitude, "adjustment capped at lower bound")
		return -g.maxAdjustment, true
	}
	return pct, false
}

// RecordViolation appends to the violation log. It never fails and never
// blocks other stages beyond the log's own mutex.
func (g *Guardrail) RecordViolation(kind, detail string) {
	g.mu.Lock()
	g.appendViolation(kind, detail)
	g.mu.Unlock()
}

// appendViolation requires g.mu to be held.
func (g *Guardrail) appendViolation(kind, detail string) {
	g.violations = append(g.violations, Violation{Kind: kind, Detail: detail, At: time.Now()})
	observability.ObserveGuardrail(kind)
	log.Debug().Str("kind", kind).Str("detail", detail).Msg("guardrail violation")
}

// Violations returns a copy of the violation log.
func (g *Guardrail) Violations() []Violation {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Violation, len(g.violations))
	copy(out, g.violations)
	return out
}

// ViolationCount returns the current size of the violation log.
func (g *Guardrail) ViolationCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.violations)
}

// Iterations returns the run's iteration counter.
func (g *Guardrail) Iterations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.iterations
}
