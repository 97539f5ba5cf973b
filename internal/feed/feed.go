package feed

import (
	"context"
	"fmt"

	"MisinfoSentry/internal/domain"
)

// Request carries the parameters for one poll of one feed.
type Request struct {
	FeedName string
	Topic    string // per-pass search topic for query-driven feeds
	Limit    int    // bounded prefix size; 0 means the scanner's default
	Options  map[string]string
}

// Scanner is a single feed strategy (Google Trends, Hacker News, etc.).
// A poll returns a finite batch; scanners keep no cross-call state beyond
// their HTTP client.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.CandidateEvent, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("feed scanner %s is not registered", name)
}
