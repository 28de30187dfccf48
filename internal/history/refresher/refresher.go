// Package refresher rebuilds calibration sets from the prediction log. It is
// the single logical writer per model identity for the calibration store.
package refresher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	conformalmodels "modelguard/internal/conformal/models"
	"modelguard/internal/conformal/ports"
	"modelguard/internal/history/models"
	historyports "modelguard/internal/history/ports"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// Config holds the refresher tunables.
type Config struct {
	// Window is how far back to pull outcome-resolved predictions.
	Window time.Duration
	// TTL is the lifetime of each refreshed calibration set. Kept longer
	// than the refresh cadence so a skipped run degrades to a slightly
	// stale set rather than a cold-start miss.
	TTL time.Duration
	// MaxPairs bounds the set size; the most recent pairs win.
	MaxPairs int
}

// DefaultConfig returns the refresher defaults.
func DefaultConfig() Config {
	return Config{
		Window:   7 * 24 * time.Hour,
		TTL:      2 * time.Hour,
		MaxPairs: 1000,
	}
}

// Refresher pulls outcome-known predictions and rewrites the calibration set
// for a model.
type Refresher struct {
	log    historyports.PredictionLogReader
	store  ports.CalibrationStore
	config Config
	logger *slog.Logger
}

// Option configures the Refresher.
type Option func(*Refresher)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// WithConfig overrides the default tunables.
func WithConfig(cfg Config) Option {
	return func(r *Refresher) {
		r.config = cfg
	}
}

// New constructs a calibration refresher.
func New(log historyports.PredictionLogReader, store ports.CalibrationStore, opts ...Option) (*Refresher, error) {
	if log == nil {
		return nil, fmt.Errorf("prediction log reader is required")
	}
	if store == nil {
		return nil, fmt.Errorf("calibration store is required")
	}

	r := &Refresher{
		log:    log,
		store:  store,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Refresh rebuilds the calibration set for one model from its recent
// outcome-resolved predictions. Too little data is a soft outcome: the prior
// set (if any) stays live until its TTL and no error reaches the scheduler's
// failure path.
func (r *Refresher) Refresh(ctx context.Context, modelID domain.ModelID) error {
	now := time.Now()
	window := models.TimeRange{From: now.Add(-r.config.Window), To: now}

	records, err := r.log.Query(ctx, modelID, window, true)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read prediction log")
	}

	if len(records) > r.config.MaxPairs {
		records = records[len(records)-r.config.MaxPairs:]
	}

	if len(records) < conformalmodels.MinCalibrationSize {
		if r.logger != nil {
			r.logger.InfoContext(ctx, "skipping calibration refresh, not enough resolved outcomes",
				"model_id", modelID.Key(),
				"resolved", len(records),
				"required", conformalmodels.MinCalibrationSize,
			)
		}
		return nil
	}

	set := &conformalmodels.CalibrationSet{
		ModelID:     modelID,
		Predictions: make([]float64, len(records)),
		Actuals:     make([]int, len(records)),
		CapturedAt:  now,
		TTL:         r.config.TTL,
	}
	for i, rec := range records {
		set.Predictions[i] = rec.PointEstimate
		set.Actuals[i] = *rec.ActualOutcome
	}

	if err := r.store.Put(ctx, set); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store calibration set")
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "calibration set refreshed",
			"model_id", modelID.Key(),
			"pairs", set.Size(),
		)
	}
	return nil
}
