package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
	"MisinfoSentry/internal/risk"
)

const (
	defaultYTSearchURL = "https://www.youtube.com/results"
	defaultYTAPIURL    = "https://www.googleapis.com/youtube/v3/videos"
)

// emit thresholds: a video must either move fast or already be big.
const (
	minVideoVirality = 100
	minVideoViews    = 50000
)

var videoIDExpr = regexp.MustCompile(`"videoId":"([a-zA-Z0-9_-]{11})"`)

// YouTubeScanner discovers candidate videos by scraping the public search
// results page (the search API costs quota), then pulls view counts and
// publish times from the videos API.
type YouTubeScanner struct {
	client *http.Client
	apiKey string
	now    func() time.Time
}

var _ feed.Scanner = (*YouTubeScanner)(nil)

// NewYouTubeScanner wires an HTTP client and the videos API key.
func NewYouTubeScanner(client *http.Client, apiKey string) *YouTubeScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &YouTubeScanner{client: client, apiKey: apiKey, now: time.Now}
}

// Name identifies the strategy inside the registry.
func (s *YouTubeScanner) Name() string {
	return "youtube"
}

type ytStatsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
			Thumbnails  struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// Scan searches for the pass topic, resolves statistics, and emits only
// the videos clearing the virality or reach threshold.
func (s *YouTubeScanner) Scan(ctx context.Context, req feed.Request) ([]domain.CandidateEvent, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("youtube api key not configured")
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	ids, err := s.searchVideoIDs(ctx, req.Options["searchUrl"], req.Topic, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	stats, err := s.fetchStats(ctx, req.Options["apiUrl"], ids)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var events []domain.CandidateEvent
	for _, item := range stats.Items {
		views, err := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
		if err != nil || item.Snippet.Title == "" {
			continue
		}

		ageHours := now.Sub(item.Snippet.PublishedAt.UTC()).Hours()
		virality := risk.EstimateVirality(views, ageHours, risk.Fallback{})

		if virality <= minVideoVirality && views <= minVideoViews {
			continue
		}

		events = append(events, domain.CandidateEvent{
			Platform:   domain.PlatformVideoPlatform,
			Title:      item.Snippet.Title,
			URL:        "https://youtu.be/" + item.ID,
			ImageURL:   item.Snippet.Thumbnails.Medium.URL,
			Engagement: views,
			Tag:        req.Topic,
			AgeHours:   ageHours,
		})
	}

	return events, nil
}

// searchVideoIDs scrapes video ids out of the search page's script blobs.
func (s *YouTubeScanner) searchVideoIDs(ctx context.Context, searchURL, topic string, limit int) ([]string, error) {
	if searchURL == "" {
		searchURL = defaultYTSearchURL
	}
	query := url.Values{}
	query.Set("search_query", topic+" -gaming")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	seen := map[string]struct{}{}
	var ids []string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		for _, match := range videoIDExpr.FindAllStringSubmatch(script.Text(), -1) {
			id := match[1]
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			if len(ids) >= limit {
				return false
			}
		}
		return true
	})

	return ids, nil
}

func (s *YouTubeScanner) fetchStats(ctx context.Context, apiURL string, ids []string) (*ytStatsResponse, error) {
	if apiURL == "" {
		apiURL = defaultYTAPIURL
	}
	query := url.Values{}
	query.Set("id", strings.Join(ids, ","))
	query.Set("part", "statistics,snippet")
	query.Set("key", s.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build stats request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch video stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("videos api returned %s", resp.Status)
	}

	var stats ytStatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decode video stats: %w", err)
	}
	return &stats, nil
}
