package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"MisinfoSentry/internal/config"
	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
	"MisinfoSentry/internal/ports"
)

// MultiSource implements EventSource by fanning one poll out across every
// configured feed. Feeds share no mutable state, so they run concurrently;
// a failing feed contributes an empty batch and a warning, never an error.
type MultiSource struct {
	registry *feed.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.EventSource = (*MultiSource)(nil)

// NewMultiSource wires the scanner registry with config-defined feeds.
func NewMultiSource(reg *feed.Registry, feeds []config.FeedConfig, log *slog.Logger) *MultiSource {
	return &MultiSource{
		registry: reg,
		feeds:    feeds,
		logger:   log,
	}
}

// FetchBatch polls every feed with the pass topic and merges the batches.
func (s *MultiSource) FetchBatch(ctx context.Context, topic string) ([]domain.CandidateEvent, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("feed registry is not configured")
	}

	s.debug("fetch batch", "feeds", len(s.feeds), "topic", topic)

	var (
		mu         sync.Mutex
		aggregated []domain.CandidateEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, fc := range s.feeds {
		fc := fc
		g.Go(func() error {
			scanner, err := s.registry.Resolve(fc.Scanner)
			if err != nil {
				s.warn("feed misconfigured", "feed", fc.Name, "error", err)
				return nil
			}

			req := feed.Request{
				FeedName: fc.Name,
				Topic:    topic,
				Limit:    fc.Limit,
				Options:  fc.Options,
			}

			results, err := scanner.Scan(gctx, req)
			if err != nil {
				// adapter-local failure: empty batch this pass, retry next
				s.warn("feed scan failed", "feed", fc.Name, "error", err)
				return nil
			}

			s.debug("feed produced events", "feed", fc.Name, "count", len(results))
			mu.Lock()
			aggregated = append(aggregated, results...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.debug("multi source done", "total_events", len(aggregated))
	return aggregated, nil
}

func (s *MultiSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *MultiSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
