package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"MisinfoSentry/internal/config"
	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/ports"
)

const systemPrompt = `Analyze the headline and classify it into ONE of these categories.
Be specific. Do not just say "Clickbait" if it is actually a Scam or Political.

CATEGORIES & RULES:
1. DEEPFAKE: Mentions "leaked audio", "AI video", or impossible behavior by public figures.
2. SCAM: Mentions "free money", "crypto giveaway", "urgent investment", or "hack trick".
3. POLITICAL_BIAS: Highly opinionated, attacking a party, or using charged words like "destroy", "traitor".
4. MISLEADING: Factually doubtful, missing context, or cherry-picked facts.
5. CLICKBAIT: Exaggerated ("You won't believe", "Shocking") but harmless.
6. SATIRE: Clearly a joke or meme.
7. LIKELY_REAL: Neutral news reporting (e.g., "Sensex down 200 points").
8. IRRELEVANT: Not news-like at all.

Output strictly valid JSON:
{"score": 0-100, "category": "CATEGORY_NAME", "reason": "short explanation"}
(Score 100 = Dangerous/Fake, Score 0 = Safe/Real)`

// Client implements ports.Classifier against an OpenAI-compatible
// chat-completions endpoint in JSON mode.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.Classifier = (*Client)(nil)

// NewClient builds a classifier client from configuration. Calls are paced
// by the configured minimum interval because the gateway credential is
// shared across all feeds.
func NewClient(cfg config.ClassifierConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
		limiter: rate.NewLimiter(rate.Every(cfg.MinRequestInterval()), 1),
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat formatSpec    `json:"response_format"`
	Temperature    float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type verdictPayload struct {
	Score    *float64 `json:"score"`
	Category string   `json:"category"`
	Reason   string   `json:"reason"`
}

// Classify submits the headline and parses the structured verdict. Any
// deviation from the contract is an error for the caller to degrade; a
// quota signal is reported as ErrRateLimited.
func (c *Client) Classify(ctx context.Context, title string) (domain.Classification, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return domain.Classification{}, fmt.Errorf("classifier client misconfigured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Classification{}, fmt.Errorf("wait for request slot: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Classify this: %q", title)},
		},
		ResponseFormat: formatSpec{Type: "json_object"},
		Temperature:    0.3,
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("marshal classify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Classification{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Classification{}, ports.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Classification{}, fmt.Errorf("classifier error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.Classification{}, fmt.Errorf("decode completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return domain.Classification{}, fmt.Errorf("completion has no choices")
	}

	return parseVerdict(chat.Choices[0].Message.Content)
}

// parseVerdict enforces the structured-response contract: a JSON object
// with a 0-100 score and a category name. No text scraping.
func parseVerdict(content string) (domain.Classification, error) {
	var payload verdictPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return domain.Classification{}, fmt.Errorf("parse verdict payload: %w", err)
	}
	if payload.Score == nil {
		return domain.Classification{}, fmt.Errorf("verdict payload missing score")
	}
	if payload.Category == "" {
		return domain.Classification{}, fmt.Errorf("verdict payload missing category")
	}

	risk := *payload.Score / 100.0
	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}

	category := strings.ToUpper(strings.TrimSpace(payload.Category))
	category = strings.ReplaceAll(category, " ", "_")

	return domain.Classification{
		Category: domain.Category(category),
		Risk:     risk,
		Reason:   payload.Reason,
	}, nil
}
