package scrapeapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/scrapeapi"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

var prop = domain.PropertyRecord{
	ID:          "room-n5-downtown",
	DisplayName: "Room N5 Downtown",
	BasePrice:   200,
	ListingURL:  "https://example.com/room-n5",
}

func TestFetchReviews_MapsPolarityAndPreservesOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`[
			{"reviewDate":"2026-05-01T00:00:00Z","likedText":"Great location","dislikedText":"Bathroom was dirty"},
			{"reviewDate":"2026-05-03T00:00:00Z","likedText":"","dislikedText":"WiFi kept dropping"},
			{"reviewDate":"2026-05-04T00:00:00Z","likedText":"Comfortable bed","dislikedText":""}
		]`))
	}))
	defer ts.Close()

	cl, err := scrapeapi.New(ts.URL, "test-token", 100, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.FetchReviews(ctx, prop)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("comments: got %d, want 4", len(got))
	}
	wantTexts := []string{"Great location", "Bathroom was dirty", "WiFi kept dropping", "Comfortable bed"}
	wantPol := []domain.Polarity{
		domain.PolarityPositive, domain.PolarityNegative,
		domain.PolarityNegative, domain.PolarityPositive,
	}
	for i, c := range got {
		if c.Text != wantTexts[i] || c.Polarity != wantPol[i] {
			t.Errorf("comment %d: got (%q,%s), want (%q,%s)", i, c.Text, c.Polarity, wantTexts[i], wantPol[i])
		}
		if c.PropertyID != prop.ID {
			t.Errorf("comment %d: property %q", i, c.PropertyID)
		}
	}
	if got[0].ObservedDate != "2026-05-01" {
		t.Errorf("date: got %q", got[0].ObservedDate)
	}
}

func TestFetchReviews_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`[{"reviewDate":"2026-01-01","likedText":"Nice","dislikedText":""}]`))
		}
	}))
	defer ts.Close()

	cl, _ := scrapeapi.New(ts.URL, "test-token", 100, 100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.FetchReviews(ctx, prop)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("comments: got %d, want 1", len(got))
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestFetchReviews_BadStatusIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := scrapeapi.New(ts.URL, "bad-token", 100, 100)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := cl.FetchReviews(ctx, prop)
	if !errors.Is(err, domain.ErrTransientExternal) {
		t.Fatalf("expected ErrTransientExternal, got %v", err)
	}
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := scrapeapi.New("https://api.example.com", "", 5, 100)
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
