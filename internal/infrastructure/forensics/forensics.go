package forensics

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"

	"MisinfoSentry/internal/ports"
)

// Discrete manipulation-likelihood scores. This is a heuristic oracle built
// on metadata inspection, not a guarantee.
const (
	scoreEditingMarker = 0.95 // known editing-tool provenance found
	scoreNoMetadata    = 0.3  // metadata stripped entirely
	scoreCleanMetadata = 0.1  // metadata present, no markers
	scoreUnscannable   = 0.0  // no media, fetch failure, or undecodable bytes
)

// editingTools are provenance markers searched for in EXIF data.
var editingTools = []string{"Photoshop", "GIMP", "Adobe", "Canva"}

const maxImageBytes = 8 << 20

// browser-like agent; some image hosts reject unknown clients.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Scanner fetches a media asset and inspects its metadata for editing
// traces.
type Scanner struct {
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ForensicsScanner = (*Scanner)(nil)

// NewScanner wires an HTTP client with the given per-fetch timeout.
func NewScanner(timeout time.Duration, logger *slog.Logger) *Scanner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Scanner{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ScanMedia returns the manipulation sub-score for the referenced asset.
// An empty reference scores 0 with no call; every failure mode also scores
// 0 rather than erroring, so media trouble never blocks an event.
func (s *Scanner) ScanMedia(ctx context.Context, mediaURL string) (float64, error) {
	if mediaURL == "" {
		return scoreUnscannable, nil
	}

	data, err := s.fetch(ctx, mediaURL)
	if err != nil {
		s.debug("media fetch failed", "url", mediaURL, "error", err)
		return scoreUnscannable, nil
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		s.debug("media is not a decodable image", "url", mediaURL, "error", err)
		return scoreUnscannable, nil
	}

	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil || meta == nil {
		return scoreNoMetadata, nil
	}

	return scoreMetadata(meta.String()), nil
}

// scoreMetadata searches the stringified EXIF payload for editing-tool
// provenance markers.
func scoreMetadata(meta string) float64 {
	for _, tool := range editingTools {
		if strings.Contains(meta, tool) {
			return scoreEditingMarker
		}
	}
	return scoreCleanMetadata
}

func (s *Scanner) fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media host returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read media body: %w", err)
	}
	return data, nil
}

func (s *Scanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
