package usecase

import (
	"context"
	"log/slog"
	"time"

	"MisinfoSentry/internal/ports"
)

// Runner wires the interval driver with the ingestion pipeline.
type Runner struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewRunner returns a helper to start/stop the recurring ingestion job.
func NewRunner(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Runner {
	return &Runner{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline pass as the recurring job.
func (r *Runner) Start(ctx context.Context) error {
	return r.driver.Start(ctx, func(_ time.Time) {
		if err := r.pipeline.RunPass(ctx); err != nil && r.logger != nil {
			r.logger.Error("ingestion pass failed", "error", err)
		}
	})
}

// Stop gracefully tears down the underlying scheduler.
func (r *Runner) Stop(ctx context.Context) error {
	return r.driver.Stop(ctx)
}
