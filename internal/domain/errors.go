package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Stage-local failures (one property, one channel) are
// logged and isolated; only ErrConfig at startup and ErrIterationCeiling
// during a run abort anything.
var (
	// ErrTransientExternal marks network/timeout failures on scrape,
	// classify or send calls. Recovered locally via fallback or skip.
	ErrTransientExternal = errors.New("transient external failure")

	// ErrMalformedResponse marks classifier output that fails shape
	// validation. Recovered via the deterministic fallback.
	ErrMalformedResponse = errors.New("malformed classifier response")

	// ErrGuardrailBreach covers rate, iteration and magnitude limits.
	ErrGuardrailBreach = errors.New("guardrail breach")

	// ErrIterationCeiling is the only fatal guardrail breach.
	ErrIterationCeiling = fmt.Errorf("%w: iteration ceiling exceeded", ErrGuardrailBreach)

	// ErrConfig marks missing required credentials or handles. Fatal at
	// startup, never silently degraded.
	ErrConfig = errors.New("configuration error")
)
