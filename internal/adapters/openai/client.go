// Package openai is the HTTP client for the external review classifier. The
// classifier is a capability, not an implementation detail: the pipeline only
// depends on "classify(text batches) -> structured result or error", and any
// transport failure, timeout or unparsable/ill-shaped reply comes back as an
// error so the classification engine can fall back deterministically.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Akharrat1991/AI-Property-Management/internal/adapters/observability"
	"github.com/Akharrat1991/AI-Property-Management/internal/domain"
)

const (
	DefaultBase  = "https://api.openai.com/v1"
	DefaultModel = "gpt-4"
)

type Client struct {
	base  string
	hc    *http.Client
	key   string
	model string
	rl    *rate.Limiter
}

func New(base, key, model string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: classifier API key is required", domain.ErrConfig)
	}
	if base == "" {
		base = DefaultBase
	}
	if model == "" {
		model = DefaultModel
	}
	if rps <= 0 {
		rps = 3
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		hc:    &http.Client{Timeout: 30 * time.Second},
		key:   key,
		model: model,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify sends the full comment text for one property and decodes the
// model's reply into the structured analysis shape. The reply is validated
// before acceptance; an invalid shape is treated identically to an error.
func (c *Client) Classify(ctx context.Context, p domain.PropertyRecord, positive, negative []string) (*domain.ClassifierResult, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientExternal, err)
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: buildPrompt(p, positive, negative)}},
		Temperature:    0,
		MaxTokens:      1200,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("classifier", "chat", 0, time.Since(start))
		return nil, fmt.Errorf("%w: %v", domain.ErrTransientExternal, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("classifier", "chat", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: classifier status %d: %s", domain.ErrTransientExternal,
			resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", domain.ErrMalformedResponse, err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", domain.ErrMalformedResponse)
	}

	content := stripFences(cr.Choices[0].Message.Content)
	var result domain.ClassifierResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: decode analysis: %v", domain.ErrMalformedResponse, err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

func buildPrompt(p domain.PropertyRecord, positive, negative []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You analyze guest reviews for the rental property %q.\n\n", p.DisplayName)
	b.WriteString("POSITIVE COMMENTS:\n")
	writeNumbered(&b, positive)
	b.WriteString("\nNEGATIVE COMMENTS:\n")
	writeNumbered(&b, negative)
	b.WriteString(`
Return ONLY a JSON object with exactly these fields:
{
  "satisfaction_score": <0-100>,
  "cleaning_issues": [{"guest_comment": "<exact original text>", "problem": "...", "location": "...", "severity": "low|medium|high"}],
  "maintenance_issues": [{"guest_comment": "<exact original text>", "problem": "...", "category": "AC|heating|WiFi|TV|bed|appliance|plumbing|electrical|locks|noise|other", "severity": "low|medium|high", "urgency": "can_wait|soon|urgent"}],
  "positive_highlights": ["..."],
  "guest_sentiment": "...",
  "recommended_price_change": <-25 to +20>,
  "confidence": <0.0-1.0>
}
Use the exact original comment text in guest_comment. Do not invent issues.`)
	return b.String()
}

func writeNumbered(b *strings.Builder, texts []string) {
	if len(texts) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for i, t := range texts {
		fmt.Fprintf(b, "COMMENT %d: %s\n", i+1, t)
	}
}

// stripFences removes a ```json ... ``` wrapper some models add despite the
// JSON response format.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
