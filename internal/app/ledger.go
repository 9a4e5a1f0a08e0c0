package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

const (
	ratingMin = 1
	ratingMax = 5

	defaultLedgerWindow    = 3
	defaultLedgerThreshold = 3.0
)

// Rating is one append-only quality score for a pipeline stage.
type Rating struct {
	Stage      string    `json:"stage"`
	Score      float64   `json:"score"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AdaptationEvent is emitted when a stage's trailing mean drops below the
// configured threshold. Emission is advisory; nothing changes behavior.
type AdaptationEvent struct {
	Stage        string    `json:"stage"`
	TrailingMean float64   `json:"trailing_mean"`
	Window       int       `json:"window"`
	EmittedAt    time.Time `json:"emitted_at"`
}

// FeedbackLedger records stage ratings and watches the trailing mean per
// stage. Ratings are never mutated or removed once accepted.
type FeedbackLedger struct {
	mu        sync.Mutex
	window    int
	threshold float64
	ratings   map[string][]Rating
	events    []AdaptationEvent
}

func NewFeedbackLedger(window int, threshold float64) *FeedbackLedger {
	if window <= 0 {
		window = defaultLedgerWindow
	}
	if threshold <= 0 {
		threshold = defaultLedgerThreshold
	}
	return &FeedbackLedger{
		window:    window,
		threshold: threshold,
		ratings:   make(map[string][]Rating),
	}
}

// Rate appends one rating for stage. Scores outside [1,5] are rejected
// and leave the ledger untouched. When the stage has at least window
// ratings and their trailing mean falls below the threshold, an
// AdaptationEvent is recorded.
func (l *FeedbackLedger) Rate(stage string, score float64, note string) error {
	if score < ratingMin || score > ratingMax {
		return fmt.Errorf("%w: rating %.1f outside [%d,%d]", domain.ErrMalformedResponse, score, ratingMin, ratingMax)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	l.ratings[stage] = append(l.ratings[stage], Rating{
		Stage:      stage,
		Score:      score,
		Note:       note,
		RecordedAt: now,
	})

	rs := l.ratings[stage]
	if len(rs) < l.window {
		return nil
	}

	sum := 0.0
	for _, r := range rs[len(rs)-l.window:] {
		sum += r.Score
	}
	mean := sum / float64(l.window)
	if mean < l.threshold {
		l.events = append(l.events, AdaptationEvent{
			Stage:        stage,
			TrailingMean: mean,
			Window:       l.window,
			EmittedAt:    now,
		})
		log.Warn().Str("stage", stage).Float64("trailing_mean", mean).Int("window", l.window).
			Msg("stage quality below threshold, adaptation suggested")
	}
	return nil
}

// Ratings returns a copy of every rating recorded for stage, oldest first.
func (l *FeedbackLedger) Ratings(stage string) []Rating {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Rating, len(l.ratings[stage]))
	copy(out, l.ratings[stage])
	return out
}

// Events returns a copy of every adaptation event emitted so far.
func (l *FeedbackLedger) Events() []AdaptationEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AdaptationEvent, len(l.events))
	copy(out, l.events)
	return out
}
