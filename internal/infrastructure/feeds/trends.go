package feeds

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
)

const defaultTrendsRSS = "https://trends.google.com/trends/trendingsearches/daily/rss?geo=IN"

// approximate traffic reported when the feed omits the figure.
const defaultTrendTraffic = 10000

// TrendsScanner polls the Google Trends daily trending-searches RSS feed.
// Traffic and picture come from the feed's "ht" namespace extensions.
type TrendsScanner struct {
	client *http.Client
}

var _ feed.Scanner = (*TrendsScanner)(nil)

// NewTrendsScanner wires an HTTP client; nil gets a 20s-timeout default.
func NewTrendsScanner(client *http.Client) *TrendsScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &TrendsScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (s *TrendsScanner) Name() string {
	return "trends"
}

// Scan fetches the trending feed and emits a bounded prefix of entries.
func (s *TrendsScanner) Scan(ctx context.Context, req feed.Request) ([]domain.CandidateEvent, error) {
	rssURL := req.Options["rssUrl"]
	if rssURL == "" {
		rssURL = defaultTrendsRSS
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 3
	}

	parser := gofeed.NewParser()
	parser.Client = s.client

	parsed, err := parser.ParseURLWithContext(rssURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse trends feed: %w", err)
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
			Platform:   domain.PlatformTrendingSearch,
			Title:      item.Title,
			URL:        item.Link,
			ImageURL:   htExtension(item, "picture"),
			Engagement: parseTraffic(htExtension(item, "approx_traffic")),
			Tag:        "viral-trend",
		})
	}

	return events, nil
}

func htExtension(item *gofeed.Item, field string) string {
	ns, ok := item.Extensions["ht"]
	if !ok {
		return ""
	}
	values, ok := ns[field]
	if !ok || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// parseTraffic turns figures like "200,000+" into an integer.
func parseTraffic(raw string) int64 {
	cleaned := strings.NewReplacer(",", "", "+", "").Replace(raw)
	traffic, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || traffic <= 0 {
		return defaultTrendTraffic
	}
	return traffic
}
