package ports

import (
	"context"
	"errors"
	"time"

	"MisinfoSentry/internal/domain"
)

// ErrRateLimited is returned by a Classifier when the gateway reports
// quota exhaustion. The orchestrator responds with a process-wide cooldown
// instead of retrying inline.
var ErrRateLimited = errors.New("classification gateway rate limited")

// EventSource pulls a bounded batch of candidate events from all configured
// feeds. Individual feed failures must not surface here; they are logged and
// yield smaller batches.
type EventSource interface {
	FetchBatch(ctx context.Context, topic string) ([]domain.CandidateEvent, error)
}

// ContentRepository persists accepted events and answers dedup queries
// against the log's unique url key. Save is idempotent: inserting an
// already-logged identity is a no-op and reports inserted=false.
type ContentRepository interface {
	Seen(ctx context.Context, url string) (bool, error)
	Save(ctx context.Context, entry domain.ContentLogEntry) (inserted bool, err error)
	Recent(ctx context.Context, limit int) ([]domain.ContentLogEntry, error)
	Stats(ctx context.Context) (domain.LogStats, error)
}

// CredibilityProvider maps a source domain to a trust score in [0,1].
// Unknown domains resolve to the neutral 0.5.
type CredibilityProvider interface {
	Credibility(ctx context.Context, domain string) (float64, error)
}

// Classifier sends a headline to the classification gateway. Transport or
// parse failures come back as errors; a quota-exhaustion signal is the
// distinguished error the orchestrator turns into a cooldown.
type Classifier interface {
	Classify(ctx context.Context, title string) (domain.Classification, error)
}

// ForensicsScanner rates the manipulation likelihood of a media asset.
// An empty mediaURL returns 0 without any remote call.
type ForensicsScanner interface {
	ScanMedia(ctx context.Context, mediaURL string) (float64, error)
}

// Scheduler controls when ingestion passes execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
