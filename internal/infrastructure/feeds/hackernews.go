package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
)

const defaultHNBaseURL = "https://hacker-news.firebaseio.com/v0"
const hnFallbackLink = "https://news.ycombinator.com"

// techTerms widen the risk-keyword prefilter for this feed; the tech forum
// surfaces scams and AI stories that the general list misses.
var techTerms = []string{"ai", "gpt", "crypto", "attack", "bug", "data", "leak"}

// HackerNewsScanner polls the Hacker News top-stories API and keeps only
// titles matching the risk-keyword prefilter.
type HackerNewsScanner struct {
	client   *http.Client
	keywords []string
}

var _ feed.Scanner = (*HackerNewsScanner)(nil)

// NewHackerNewsScanner wires an HTTP client and the risk-keyword list.
func NewHackerNewsScanner(client *http.Client, keywords []string) *HackerNewsScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HackerNewsScanner{client: client, keywords: keywords}
}

// Name identifies the strategy inside the registry.
func (s *HackerNewsScanner) Name() string {
	return "hackernews"
}

type hnItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int64  `json:"score"`
}

// Scan walks a bounded prefix of the top-story ids and emits the stories
// passing the keyword prefilter. Reach is the story score scaled by 100.
func (s *HackerNewsScanner) Scan(ctx context.Context, req feed.Request) ([]domain.CandidateEvent, error) {
	baseURL := req.Options["apiUrl"]
	if baseURL == "" {
		baseURL = defaultHNBaseURL
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	var ids []int64
	if err := s.getJSON(ctx, baseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	var events []domain.CandidateEvent
	for _, id := range ids {
		var item hnItem
		if err := s.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", baseURL, id), &item); err != nil {
			// one broken item must not sink the batch
			continue
		}
		if item.Title == "" {
			continue
		}
		if !s.matchesKeywords(item.Title) {
			continue
		}

		link := item.URL
		if link == "" {
			link = hnFallbackLink
		}

		events = append(events, domain.CandidateEvent{
			Platform:   domain.PlatformTechForum,
			Title:      item.Title,
			URL:        link,
			Engagement: item.Score * 100,
			Tag:        "tech",
		})
	}

	return events, nil
}

func (s *HackerNewsScanner) matchesKeywords(title string) bool {
	lowered := strings.ToLower(title)
	for _, kw := range s.keywords {
		if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	for _, kw := range techTerms {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func (s *HackerNewsScanner) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hacker news returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
