package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
)

const defaultNewsRSS = "https://news.google.com/rss/search?hl=en-IN&gl=IN&ceid=IN:en"

// flat engagement assumed for wire headlines; the feed exposes no counters.
const newsAssumedViews = 50000

// NewsRSSScanner searches the Google News RSS endpoint for the per-pass
// topic.
type NewsRSSScanner struct {
	client *http.Client
}

var _ feed.Scanner = (*NewsRSSScanner)(nil)

// NewNewsRSSScanner wires an HTTP client; nil gets a 20s-timeout default.
func NewNewsRSSScanner(client *http.Client) *NewsRSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &NewsRSSScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *NewsRSSScanner) Name() string {
	return "newsrss"
}

// Scan queries the news search feed for the pass topic and emits a bounded
// prefix of headlines.
func (s *NewsRSSScanner) Scan(ctx context.Context, req feed.Request) ([]domain.CandidateEvent, error) {
	searchURL, err := buildSearchURL(req.Options["rssUrl"], req.Topic)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 2
	}

	parser := gofeed.NewParser()
	parser.Client = s.client

	parsed, err := parser.ParseURLWithContext(searchURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}

	events := make([]domain.CandidateEvent, 0, limit)
	for _, item := range parsed.Items {
		if len(events) >= limit {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}

		events = append(events, domain.CandidateEvent{
			Platform:   domain.PlatformNewsFeed,
			Title:      item.Title,
			URL:        item.Link,
			Engagement: newsAssumedViews,
			Tag:        req.Topic,
		})
	}

	return events, nil
}

func buildSearchURL(base, topic string) (string, error) {
	if base == "" {
		base = defaultNewsRSS
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid news rss url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("q", topic)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
