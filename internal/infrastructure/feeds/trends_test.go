package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
)

const trendsFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:ht="https://trends.google.com/trends/trendingsearches/daily">
  <channel>
    <title>Daily Search Trends</title>
    <item>
      <title>market crash rumours</title>
      <link>https://trends.example/story/1</link>
      <ht:approx_traffic>200,000+</ht:approx_traffic>
      <ht:picture>https://img.example/1.png</ht:picture>
    </item>
    <item>
      <title>celebrity deepfake video</title>
      <link>https://trends.example/story/2</link>
    </item>
    <item>
      <title>third trend</title>
      <link>https://trends.example/story/3</link>
      <ht:approx_traffic>50,000+</ht:approx_traffic>
    </item>
  </channel>
</rss>`

func TestTrendsScan(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(trendsFixture))
	}))
	defer server.Close()

	sc := NewTrendsScanner(server.Client())
	events, err := sc.Scan(context.Background(), feed.Request{
		Limit:   2,
		Options: map[string]string{"rssUrl": server.URL},
	})
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("limit must bound the batch, got %d events", len(events))
	}

	first := events[0]
	if first.Platform != domain.PlatformTrendingSearch {
		t.Fatalf("unexpected platform: %s", first.Platform)
	}
	if first.Engagement != 200000 {
		t.Fatalf("traffic figure must be parsed, got %d", first.Engagement)
	}
	if first.ImageURL != "https://img.example/1.png" {
		t.Fatalf("unexpected picture: %s", first.ImageURL)
	}
	if first.Tag != "viral-trend" {
		t.Fatalf("unexpected tag: %s", first.Tag)
	}

	// entry without a traffic extension falls back to the default estimate
	if events[1].Engagement != defaultTrendTraffic {
		t.Fatalf("missing traffic must default, got %d", events[1].Engagement)
	}
}

func TestParseTraffic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want int64
	}{
		{"200,000+", 200000},
		{"1,500", 1500},
		{"", defaultTrendTraffic},
		{"not-a-number", defaultTrendTraffic},
	}
	for _, tc := range cases {
		if got := parseTraffic(tc.raw); got != tc.want {
			t.Fatalf("parseTraffic(%q): want %d, got %d", tc.raw, tc.want, got)
		}
	}
}
