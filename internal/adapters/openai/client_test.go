package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/openai"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

var prop = domain.PropertyRecord{ID: "room-2-luxury", DisplayName: "Room 2 Luxury", BasePrice: 280}

func chatEnvelope(content string) string {
	env := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(env)
	return string(b)
}

func TestClassify_ParsesStructuredResult(t *testing.T) {
	analysis := `{
		"satisfaction_score": 85.7,
		"cleaning_issues": [{"guest_comment":"Kitchen could be cleaner","problem":"Kitchen cleanliness","location":"kitchen","severity":"Medium"}],
		"maintenance_issues": [{"guest_comment":"Shower pressure low","problem":"Water pressure","category":"plumbing","severity":"medium","urgency":"Soon"}],
		"positive_highlights": ["Spacious"],
		"guest_sentiment": "satisfied",
		"recommended_price_change": 3,
		"confidence": 0.82
	}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header: %q", got)
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte(chatEnvelope(analysis)))
	}))
	defer ts.Close()

	cl, err := openai.New(ts.URL, "test-key", "gpt-4", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := cl.Classify(ctx, prop, []string{"Spacious"}, []string{"Kitchen could be cleaner"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.SatisfactionScore != 85.7 || res.Confidence != 0.82 {
		t.Fatalf("unexpected result: %+v", res)
	}

	a := res.ToAnalysis(prop.ID)
	if len(a.Issues) != 2 {
		t.Fatalf("issues: got %d, want 2", len(a.Issues))
	}
	if a.Issues[0].Category != domain.CategoryCleaning || a.Issues[0].Severity != domain.SeverityMedium {
		t.Fatalf("cleaning issue: %+v", a.Issues[0])
	}
	if a.Issues[1].Urgency != domain.UrgencySoon {
		t.Fatalf("maintenance urgency: %+v", a.Issues[1])
	}
}

func TestClassify_FencedJSONAccepted(t *testing.T) {
	analysis := "```json\n{\"satisfaction_score\": 90, \"guest_sentiment\": \"happy\", \"recommended_price_change\": 5, \"confidence\": 0.9}\n```"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatEnvelope(analysis)))
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	res, err := cl.Classify(context.Background(), prop, []string{"ok"}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.SatisfactionScore != 90 {
		t.Fatalf("score: %v", res.SatisfactionScore)
	}
}

func TestClassify_UnparsableContentIsMalformed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatEnvelope("the guests seemed mostly happy overall")))
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	_, err := cl.Classify(context.Background(), prop, nil, []string{"dirty"})
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClassify_OutOfRangeShapeRejected(t *testing.T) {
	analysis := `{"satisfaction_score": 140, "guest_sentiment": "happy", "recommended_price_change": 5, "confidence": 0.9}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatEnvelope(analysis)))
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	_, err := cl.Classify(context.Background(), prop, nil, []string{"dirty"})
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClassify_ServerErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	_, err := cl.Classify(context.Background(), prop, nil, []string{"dirty"})
	if !errors.Is(err, domain.ErrTransientExternal) {
		t.Fatalf("expected ErrTransientExternal, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := openai.New("", "", "", 0)
	if !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
