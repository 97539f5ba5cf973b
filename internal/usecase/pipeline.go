package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/ports"
	"MisinfoSentry/internal/risk"
)

// PipelineDeps wires all driven adapters into the ingestion orchestrator.
type PipelineDeps struct {
	Source      ports.EventSource
	Repository  ports.ContentRepository
	Credibility ports.CredibilityProvider
	Classifier  ports.Classifier
	Forensics   ports.ForensicsScanner
	Logger      *slog.Logger

	Weights       risk.Weights
	Thresholds    risk.Thresholds
	FusedVerdicts bool
	CooldownFor   time.Duration
	Topics        []string
	Fallbacks     map[domain.Platform]risk.Fallback
}

// Pipeline drives one ingestion pass: poll, dedup, classify, score, fuse,
// persist. Every failure mode is contained; the pipeline never aborts a
// pass for one bad event.
type Pipeline struct {
	source      ports.EventSource
	repository  ports.ContentRepository
	credibility ports.CredibilityProvider
	classifier  ports.Classifier
	forensics   ports.ForensicsScanner
	logger      *slog.Logger

	weights       risk.Weights
	thresholds    risk.Thresholds
	fusedVerdicts bool
	cooldownFor   time.Duration
	topics        []string
	fallbacks     map[domain.Platform]risk.Fallback

	cooldown *Cooldown
	now      func() time.Time
	pick     func(n int) int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	weights := deps.Weights
	if weights == (risk.Weights{}) {
		weights = risk.DefaultWeights()
	}
	thresholds := deps.Thresholds
	if thresholds == (risk.Thresholds{}) {
		thresholds = risk.DefaultThresholds()
	}
	cooldownFor := deps.CooldownFor
	if cooldownFor <= 0 {
		cooldownFor = time.Minute
	}

	return &Pipeline{
		source:        deps.Source,
		repository:    deps.Repository,
		credibility:   deps.Credibility,
		classifier:    deps.Classifier,
		forensics:     deps.Forensics,
		logger:        deps.Logger,
		weights:       weights,
		thresholds:    thresholds,
		fusedVerdicts: deps.FusedVerdicts,
		cooldownFor:   cooldownFor,
		topics:        deps.Topics,
		fallbacks:     deps.Fallbacks,
		cooldown:      &Cooldown{},
		now:           time.Now,
		pick:          rand.IntN,
	}
}

// RunPass executes one poll-to-persist cycle. Only a missing dependency or
// a cancelled context surfaces as an error; per-event and per-feed trouble
// is logged and contained.
func (p *Pipeline) RunPass(ctx context.Context) error {
	if p.source == nil || p.repository == nil || p.classifier == nil {
		return fmt.Errorf("pipeline is missing required dependencies")
	}

	topic := p.pickTopic()
	p.debug("pass started", "topic", topic)

	events, err := p.source.FetchBatch(ctx, topic)
	if err != nil {
		return fmt.Errorf("fetch batch: %w", err)
	}

	// identities already examined in this pass: two feeds can surface the
	// same link, and per-identity processing must be serialized
	inPass := map[string]struct{}{}

	accepted := 0
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		if event.Title == "" || event.URL == "" {
			p.debug("skipping malformed event", "platform", event.Platform)
			continue
		}

		if _, dup := inPass[event.URL]; dup {
			continue
		}
		inPass[event.URL] = struct{}{}

		if p.cooldown.Active(p.now()) {
			p.warn("cooldown active, skipping remaining events",
				"remaining", p.cooldown.Remaining(p.now()).Round(time.Second))
			break
		}

		stop, persisted := p.processEvent(ctx, event)
		if persisted {
			accepted++
		}
		if stop {
			break
		}
	}

	if stats, err := p.repository.Stats(ctx); err == nil {
		p.info("pass finished", "topic", topic, "events", len(events),
			"accepted", accepted, "log_size", stats.Scanned,
			"confirmed_fakes", stats.ConfirmedFakes,
			"high_velocity", stats.HighVelocity)
	}

	return nil
}

// processEvent runs dedup, the gateways, fusion, and the persist step for
// one candidate. stop reports that the rest of the pass must be skipped
// (rate limit hit).
func (p *Pipeline) processEvent(ctx context.Context, event domain.CandidateEvent) (stop, persisted bool) {
	seen, err := p.repository.Seen(ctx, event.URL)
	if err != nil {
		p.warn("dedup check failed", "url", event.URL, "error", err)
		return false, false
	}
	if seen {
		p.debug("already logged", "url", event.URL)
		return false, false
	}

	// dedup passed; gateway spend is now justified
	cls, err := p.classifier.Classify(ctx, event.Title)
	rateLimited := false
	switch {
	case errors.Is(err, ports.ErrRateLimited):
		rateLimited = true
		p.cooldown.Trip(p.now(), p.cooldownFor)
		p.warn("gateway quota exhausted, cooling down", "for", p.cooldownFor)
		cls = domain.Classification{Category: domain.CategoryError, Risk: 0.5}
	case err != nil:
		p.warn("classification degraded", "title", event.Title, "error", err)
		cls = domain.Classification{Category: domain.CategoryError, Risk: 0.0}
	}

	if cls.Category == domain.CategoryIrrelevant {
		p.debug("classifier dropped event", "title", event.Title)
		return false, false
	}

	media := 0.0
	if p.forensics != nil && event.ImageURL != "" && !rateLimited {
		score, err := p.forensics.ScanMedia(ctx, event.ImageURL)
		if err != nil {
			p.warn("forensics degraded", "url", event.ImageURL, "error", err)
		} else {
			media = score
		}
	}

	credibility := 0.5
	if p.credibility != nil {
		score, err := p.credibility.Credibility(ctx, hostOf(event.URL))
		if err != nil {
			p.warn("credibility lookup degraded", "url", event.URL, "error", err)
		} else {
			credibility = score
		}
	}

	virality := risk.EstimateVirality(event.Engagement, event.AgeHours, p.fallbacks[event.Platform])

	verdict := string(cls.Category)
	if p.fusedVerdicts {
		final := risk.Fuse(p.weights, credibility, cls.Risk, media)
		verdict = p.thresholds.Verdict(final)
	}

	entry := domain.ContentLogEntry{
		Platform:     event.Platform,
		Title:        event.Title,
		URL:          event.URL,
		ImageURL:     event.ImageURL,
		Views:        event.Engagement,
		Tags:         event.Tag,
		PanicScore:   cls.Risk,
		Verdict:      verdict,
		ViralityRate: virality,
		Timestamp:    p.now().UTC(),
	}

	inserted, err := p.repository.Save(ctx, entry)
	if err != nil {
		p.warn("persist failed", "url", event.URL, "error", err)
		return rateLimited, false
	}
	if !inserted {
		// lost an identity race; the other writer's row stands
		p.debug("duplicate identity, insert absorbed", "url", event.URL)
		return rateLimited, false
	}

	p.info("logged", "verdict", verdict, "platform", event.Platform,
		"title", truncate(event.Title, 60), "panic", cls.Risk, "virality", virality)
	return rateLimited, true
}

func (p *Pipeline) pickTopic() string {
	if len(p.topics) == 0 {
		return "fake news"
	}
	return p.topics[p.pick(len(p.topics))]
}

// hostOf extracts the credibility-lookup domain from an identity url.
func hostOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
