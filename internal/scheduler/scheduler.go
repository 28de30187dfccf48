// Package scheduler drives the periodic evaluator pass: calibration
// refresh, drift detection, safeguard evaluation, and the sweep for due or
// overdue rollback checks. Each pass is a short-lived, stateless computation;
// everything it needs to resume after a crash lives in the stores.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	driftmodels "modelguard/internal/drift/models"
	"modelguard/internal/retrain"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// maxConcurrentModels bounds the per-pass fan-out across watched models.
const maxConcurrentModels = 4

// CalibrationRefresher rebuilds a model's calibration set from history.
type CalibrationRefresher interface {
	Refresh(ctx context.Context, modelID domain.ModelID) error
}

// DriftRunner executes one drift detection pass for a model.
type DriftRunner interface {
	Run(ctx context.Context, modelID domain.ModelID) ([]*driftmodels.DriftReport, error)
}

// RetrainEvaluator applies the safeguard to one drift report.
type RetrainEvaluator interface {
	Evaluate(ctx context.Context, report *driftmodels.DriftReport) (retrain.Decision, error)
}

// RollbackChecker sweeps persisted activation records for due checks.
type RollbackChecker interface {
	RunDueChecks(ctx context.Context) error
}

// Scheduler runs the evaluator pass on a fixed interval for a fixed set of
// watched models.
type Scheduler struct {
	models    []domain.ModelID
	refresher CalibrationRefresher
	drift     DriftRunner
	retrain   RetrainEvaluator
	rollback  RollbackChecker
	interval  time.Duration
	logger    *slog.Logger
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithInterval overrides the default pass interval.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

// New creates a scheduler over the given pipeline stages.
func New(models []domain.ModelID, refresher CalibrationRefresher, drift DriftRunner, evaluator RetrainEvaluator, rollback RollbackChecker, opts ...Option) (*Scheduler, error) {
	if len(models) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "at least one watched model is required")
	}
	if refresher == nil || drift == nil || evaluator == nil || rollback == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "all pipeline stages are required")
	}
	s := &Scheduler{
		models:    models,
		refresher: refresher,
		drift:     drift,
		retrain:   evaluator,
		rollback:  rollback,
		interval:  time.Hour,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "pass interval must be positive, got %v", s.interval)
	}
	return s, nil
}

// Run executes passes until the context is cancelled. One pass runs
// immediately on start so a restarted process does not wait a full interval
// to pick up overdue work.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Pass(ctx)
		}
	}
}

// Pass executes one full evaluator pass. Per-model failures are logged and
// isolated; one model's bad data never stops the others. The rollback sweep
// always runs, even when every model pass failed.
func (s *Scheduler) Pass(ctx context.Context) {
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentModels)
	for _, modelID := range s.models {
		modelID := modelID
		g.Go(func() error {
			s.passModel(gctx, modelID)
			return nil
		})
	}
	_ = g.Wait()

	if err := s.rollback.RunDueChecks(ctx); err != nil {
		s.logger.ErrorContext(ctx, "rollback sweep reported a failure needing operator action", "error", err)
	}

	s.logger.InfoContext(ctx, "evaluator pass complete",
		"models", len(s.models),
		"duration", time.Since(start),
	)
}

// passModel runs refresh, drift detection, and the safeguard for one model.
func (s *Scheduler) passModel(ctx context.Context, modelID domain.ModelID) {
	if err := s.refresher.Refresh(ctx, modelID); err != nil {
		// Calibration going stale degrades predictions to point-only;
		// detection still proceeds.
		s.logger.ErrorContext(ctx, "calibration refresh failed",
			"model_id", modelID.Key(), "error", err)
	}

	reports, err := s.drift.Run(ctx, modelID)
	if err != nil {
		s.logger.ErrorContext(ctx, "drift detection failed",
			"model_id", modelID.Key(), "error", err)
		return
	}

	for _, report := range reports {
		if !report.Detected {
			continue
		}
		decision, err := s.retrain.Evaluate(ctx, report)
		if err != nil {
			s.logger.ErrorContext(ctx, "safeguard evaluation failed",
				"model_id", modelID.Key(), "error", err)
			continue
		}
		if decision.ShouldTrigger {
			s.logger.InfoContext(ctx, "retraining commissioned",
				"model_id", modelID.Key(),
				"job_id", decision.Handle.JobID,
				"severity", decision.Severity,
			)
		}
	}
}
