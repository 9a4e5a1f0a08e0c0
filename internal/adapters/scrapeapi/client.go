// Package scrapeapi is the HTTP client for the external review-scraping
// actor. The actor is an opaque fetch-by-URL collaborator: given a listing
// URL it returns raw review records; anything that goes wrong is surfaced as
// an error and the ingestion stage treats it as zero comments.
package scrapeapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

const actorPath = "/v2/acts/voyager~booking-reviews-scraper/run-sync-get-dataset-items"

type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
	max   int // max reviews requested per property
}

func New(base, token string, rps, maxReviews int) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: scrape API token is required", domain.ErrConfig)
	}
	if rps <= 0 {
		rps = 2
	}
	if maxReviews <= 0 {
		maxReviews = 100
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 60 * time.Second},
		token: token,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
		max:   maxReviews,
	}, nil
}

type runInput struct {
	StartURLs          []startURL     `json:"startUrls"`
	MaxReviewsPerHotel int            `json:"maxReviewsPerHotel"`
	ProxyConfiguration map[string]any `json:"proxyConfiguration"`
}

type startURL struct {
	URL string `json:"url"`
}

type reviewItem struct {
	ReviewDate   string `json:"reviewDate"`
	LikedText    string `json:"likedText"`
	DislikedText string `json:"dislikedText"`
}

// FetchReviews runs the actor synchronously for one listing and maps the raw
// items to polarity-tagged comments. Item order from the actor is preserved;
// a liked and a disliked text on the same item yield two comments.
func (c *Client) FetchReviews(ctx context.Context, p domain.PropertyRecord) ([]domain.ReviewComment, error) {
	in := runInput{
		StartURLs:          []startURL{{URL: p.ListingURL}},
		MaxReviewsPerHotel: c.max,
		ProxyConfiguration: map[string]any{"useApifyProxy": true},
	}
	var items []reviewItem
	if err := c.post(ctx, c.base+actorPath+"?token="+c.token, in, &items); err != nil {
		return nil, err
	}

	out := make([]domain.ReviewComment, 0, len(items))
	for _, it := range items {
		date, _, _ := strings.Cut(it.ReviewDate, "T")
		if t := strings.TrimSpace(it.LikedText); t != "" {
			out = append(out, domain.ReviewComment{
				PropertyID:   p.ID,
				Polarity:     domain.PolarityPositive,
				Text:         t,
				ObservedDate: date,
			})
		}
		if t := strings.TrimSpace(it.DislikedText); t != "" {
			out = append(out, domain.ReviewComment{
				PropertyID:   p.ID,
				Polarity:     domain.PolarityNegative,
				Text:         t,
				ObservedDate: date,
			})
		}
	}
	return out, nil
}

// post performs a POST with client-side rate limiting, retries and JSON
// decode into out. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) post(ctx context.Context, url string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", domain.ErrTransientExternal, ctx.Err())
			}
			observability.ObserveExternal("scrape", "run-sync", 0, time.Since(start))
			lastErr = fmt.Errorf("%w: %v", domain.ErrTransientExternal, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("scrape", "run-sync", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decode actor items: %v", domain.ErrTransientExternal, err)
			}
			return nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: actor returned %d", domain.ErrTransientExternal, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", domain.ErrTransientExternal, ctx.Err())
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%w: actor status %d: %s", domain.ErrTransientExternal,
				resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% concurrency-safe jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
