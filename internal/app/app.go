package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"MisinfoSentry/internal/config"
	"MisinfoSentry/internal/domain"
	"MisinfoSentry/internal/feed"
	"MisinfoSentry/internal/infrastructure/feeds"
	"MisinfoSentry/internal/infrastructure/forensics"
	"MisinfoSentry/internal/infrastructure/llm"
	"MisinfoSentry/internal/infrastructure/scheduler"
	"MisinfoSentry/internal/infrastructure/storage"
	"MisinfoSentry/internal/logging"
	"MisinfoSentry/internal/ports"
	"MisinfoSentry/internal/risk"
	"MisinfoSentry/internal/usecase"
)

// Application wires configuration into adapters, the ingestion pipeline and
// the lifecycle around them.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	repo   *storage.SQLiteRepository
	runner *usecase.Runner
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	// modernc sqlite serializes writes itself; one connection avoids
	// SQLITE_BUSY under the scheduler
	db.SetMaxOpenConns(1)

	repo := storage.NewSQLiteRepository(db)

	registry := feed.NewRegistry()
	registry.Register(feeds.NewTrendsScanner(nil))
	registry.Register(feeds.NewHackerNewsScanner(nil, cfg.Keywords))
	registry.Register(feeds.NewNewsRSSScanner(nil))
	registry.Register(feeds.NewYouTubeScanner(nil, cfg.YouTube.APIKey))

	source := feeds.NewMultiSource(registry, activeFeeds(cfg), logging.Component(baseLogger, "source"))

	var classifier ports.Classifier
	if cfg.Classifier.APIKey != "" {
		classifier = llm.NewClient(cfg.Classifier)
	} else {
		baseLogger.Warn("no gateway credential configured, using keyword heuristic")
		classifier = risk.NewKeywordClassifier(cfg.Keywords)
	}

	var mediaScanner ports.ForensicsScanner
	if cfg.Forensics.Enabled {
		mediaScanner = forensics.NewScanner(cfg.Forensics.RequestTimeout(),
			logging.Component(baseLogger, "forensics"))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		Repository:  repo,
		Credibility: repo,
		Classifier:  classifier,
		Forensics:   mediaScanner,
		Logger:      logging.Component(baseLogger, "pipeline"),
		Weights: risk.Weights{
			Source: cfg.Fusion.SourceWeight,
			Panic:  cfg.Fusion.PanicWeight,
			Media:  cfg.Fusion.MediaWeight,
		},
		Thresholds: risk.Thresholds{
			HighRisk: cfg.Fusion.HighRiskThreshold,
			Caution:  cfg.Fusion.CautionThreshold,
		},
		FusedVerdicts: cfg.Fusion.Fused(),
		CooldownFor:   cfg.Classifier.Cooldown(),
		Topics:        cfg.Keywords,
		Fallbacks:     viralityFallbacks(cfg.Feeds),
	})

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Interval())
	runner := usecase.NewRunner(driver, pipeline, logging.Component(baseLogger, "scheduler"))

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		repo:   repo,
		runner: runner,
	}, nil
}

// Run prepares storage and keeps ingestion passes going until the context
// is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.db.Close()

	if err := a.repo.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	for sourceDomain, score := range a.cfg.Credibility.Seeds {
		if err := a.repo.UpsertSource(ctx, sourceDomain, score); err != nil {
			return fmt.Errorf("seed credibility for %s: %w", sourceDomain, err)
		}
	}

	if err := a.runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("surveillance started",
		"interval", a.cfg.Scheduler.Interval(),
		"feeds", len(activeFeeds(a.cfg)),
		"database", a.cfg.Database.Path)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.runner.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}

	a.logger.Info("surveillance stopped")
	return nil
}

// activeFeeds drops feeds whose scanner cannot work without a credential.
func activeFeeds(cfg config.Config) []config.FeedConfig {
	out := make([]config.FeedConfig, 0, len(cfg.Feeds))
	for _, fc := range cfg.Feeds {
		if fc.Scanner == "youtube" && cfg.YouTube.APIKey == "" {
			continue
		}
		out = append(out, fc)
	}
	return out
}

// viralityFallbacks resolves each feed's no-timestamp estimate, keyed by
// the platform its scanner emits.
func viralityFallbacks(feedsCfg []config.FeedConfig) map[domain.Platform]risk.Fallback {
	out := make(map[domain.Platform]risk.Fallback, len(feedsCfg))
	for _, fc := range feedsCfg {
		platform, ok := scannerPlatform(fc.Scanner)
		if !ok {
			continue
		}
		out[platform] = risk.Fallback{
			Divisor: fc.Virality.Divisor,
			Flat:    fc.Virality.Flat,
		}
	}
	return out
}

func scannerPlatform(name string) (domain.Platform, bool) {
	switch name {
	case "trends":
		return domain.PlatformTrendingSearch, true
	case "hackernews":
		return domain.PlatformTechForum, true
	case "newsrss":
		return domain.PlatformNewsFeed, true
	case "youtube":
		return domain.PlatformVideoPlatform, true
	default:
		return "", false
	}
}
