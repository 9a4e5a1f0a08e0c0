package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	redisad "github.com/Akharrat1991/AI-Property-Management/internal/adapters/redis"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

func someProps(n int) []domain.PropertyRecord {
	out := make([]domain.PropertyRecord, n)
	for i := range out {
		out[i] = domain.PropertyRecord{ID: fmt.Sprintf("prop-%d", i), DisplayName: fmt.Sprintf("Listing %d", i)}
	}
	return out
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	src := newFakeSource()
	src.block = make(chan struct{})
	props := someProps(10)
	for _, p := range props {
		src.batches[p.ID] = []domain.ReviewComment{{PropertyID: p.ID, Polarity: domain.PolarityPositive, Text: "nice"}}
	}
	e := NewIngestionEngine(src, nil, newTestGuardrail(), 3, time.Minute)

	done := make(chan []domain.ReviewComment)
	go func() { done <- e.FetchAll(context.Background(), props) }()

	// give the workers time to saturate the semaphore before unblocking
	time.Sleep(100 * time.Millisecond)
	close(src.block)
	out := <-done

	if max := atomic.LoadInt64(&src.maxInFlight); max > 3 {
		t.Fatalf("observed %d concurrent fetches, want at most 3", max)
	}
	if len(out) != len(props) {
		t.Fatalf("got %d comments, want %d", len(out), len(props))
	}
}

func TestFetchAllToleratesFailures(t *testing.T) {
	src := newFakeSource()
	props := someProps(3)
	src.batches["prop-0"] = []domain.ReviewComment{{PropertyID: "prop-0", Polarity: domain.PolarityPositive, Text: "good"}}
	src.fail["prop-1"] = true
	src.batches["prop-2"] = []domain.ReviewComment{{PropertyID: "prop-2", Polarity: domain.PolarityNegative, Text: "dirty"}}

	e := NewIngestionEngine(src, nil, newTestGuardrail(), 3, time.Minute)
	out := e.FetchAll(context.Background(), props)

	if len(out) != 2 {
		t.Fatalf("got %d comments, want 2 (the failing property contributes zero)", len(out))
	}
	for _, c := range out {
		if c.PropertyID == "prop-1" {
			t.Fatal("failing property leaked comments into the batch")
		}
	}
}

func TestFetchOnePreservesCommentOrder(t *testing.T) {
	src := newFakeSource()
	want := []domain.ReviewComment{
		{PropertyID: "prop-0", Polarity: domain.PolarityPositive, Text: "first"},
		{PropertyID: "prop-0", Polarity: domain.PolarityNegative, Text: "second"},
		{PropertyID: "prop-0", Polarity: domain.PolarityPositive, Text: "third"},
	}
	src.batches["prop-0"] = want

	e := NewIngestionEngine(src, nil, newTestGuardrail(), 3, time.Minute)
	got := e.FetchAll(context.Background(), someProps(1))

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("comment order changed (-want +got):\n%s", diff)
	}
}

func TestFetchOneServesFromCache(t *testing.T) {
	src := newFakeSource()
	cache := newFakeCache()
	cached := []domain.ReviewComment{{PropertyID: "prop-0", Polarity: domain.PolarityPositive, Text: "cached"}}
	cache.items[redisad.ReviewKey("prop-0")] = cached

	e := NewIngestionEngine(src, cache, newTestGuardrail(), 3, time.Minute)
	out := e.FetchAll(context.Background(), someProps(1))

	if diff := cmp.Diff(cached, out); diff != "" {
		t.Fatalf("cache miss (-want +got):\n%s", diff)
	}
	if src.callCount("prop-0") != 0 {
		t.Fatal("cache hit should skip the source entirely")
	}
}

func TestFetchOnePopulatesCache(t *testing.T) {
	src := newFakeSource()
	cache := newFakeCache()
	src.batches["prop-0"] = []domain.ReviewComment{{PropertyID: "prop-0", Polarity: domain.PolarityPositive, Text: "fresh"}}

	e := NewIngestionEngine(src, cache, newTestGuardrail(), 3, time.Minute)
	e.FetchAll(context.Background(), someProps(1))

	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}
}
