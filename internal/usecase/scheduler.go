package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ClaudeDigest/internal/ports"
)

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler. A failed run is
// logged and the next tick runs normally.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		res, err := s.pipeline.Run(ctx, trigger)
		switch {
		case errors.Is(err, ErrNoContent):
			s.logger.Info("scheduled run found nothing new", "run_id", res.RunID)
		case err != nil:
			s.logger.Error("scheduled run failed", "run_id", res.RunID, "error", err)
		default:
			s.logger.Info("scheduled run finished", "run_id", res.RunID, "total_items", res.Digest.TotalItems)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
