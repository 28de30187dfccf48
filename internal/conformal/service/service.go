// Package service provides the "predict with uncertainty" entry point:
// calibration lookup plus conformal interval computation, with a fail-open
// default so predictions keep flowing when no calibration data exists.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"modelguard/internal/conformal"
	"modelguard/internal/conformal/models"
	"modelguard/internal/conformal/ports"
	"modelguard/internal/platform/metrics"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// Config holds the predictor's tunable policy constants.
type Config struct {
	// DefaultCoverage is used when the caller does not request a level.
	DefaultCoverage models.CoverageLevel
	// NarrowThreshold is the maximum width at which an interval counts as
	// narrow enough for full automation. A policy constant, not a
	// statistical property.
	NarrowThreshold float64
}

// DefaultConfig returns the conservative defaults: 90% coverage, 0.2 width.
func DefaultConfig() Config {
	return Config{
		DefaultCoverage: models.Coverage90,
		NarrowThreshold: 0.2,
	}
}

// Validate rejects malformed tunables at load time.
func (c Config) Validate() error {
	if err := c.DefaultCoverage.Validate(); err != nil {
		return err
	}
	if c.NarrowThreshold <= 0 || c.NarrowThreshold > 1 {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"narrow threshold must be in (0, 1], got %f", c.NarrowThreshold)
	}
	return nil
}

// Service orchestrates calibration store lookup and interval calculation.
type Service struct {
	store   ports.CalibrationStore
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithConfig overrides the default tunables.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New constructs the predictor service.
func New(store ports.CalibrationStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("calibration store is required")
	}

	svc := &Service{
		store:  store,
		config: DefaultConfig(),
		tracer: otel.Tracer("modelguard/conformal"),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if err := svc.config.Validate(); err != nil {
		return nil, err
	}

	return svc, nil
}

// PredictWithInterval attaches a conformal interval to a point prediction.
//
// Returns (nil, nil) - not an error - when no calibration data exists for the
// model identity, or when the stored set cannot guarantee the requested
// coverage. Callers fall back to point-prediction-only; this fail-open
// default keeps predictions flowing during cold start and after a
// model-version bump. A zero level selects the configured default.
func (s *Service) PredictWithInterval(ctx context.Context, pointPrediction float64, modelID domain.ModelID, level models.CoverageLevel) (*models.ConformalInterval, error) {
	if level == 0 {
		level = s.config.DefaultCoverage
	}
	if err := level.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "conformal.predict_with_interval",
		trace.WithAttributes(
			attribute.String("model_id", modelID.Key()),
			attribute.Int("coverage_level", int(level)),
		))
	defer span.End()

	set, err := s.store.Get(ctx, modelID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.miss(ctx, modelID, "no calibration set")
			return nil, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to retrieve calibration set")
	}

	interval, err := conformal.ComputeInterval(pointPrediction, set, level)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInsufficientData) {
			s.miss(ctx, modelID, err.Error())
			return nil, nil
		}
		return nil, err
	}

	span.SetAttributes(attribute.Float64("interval_width", interval.Width))
	if s.metrics != nil {
		s.metrics.IntervalsComputed.WithLabelValues(modelID.Type.String(), strconv.Itoa(int(level))).Inc()
		s.metrics.IntervalWidth.Observe(interval.Width)
	}

	return interval, nil
}

// IsNarrow is the policy hook consumers use to gate full automation against
// human review: a narrow interval means the model is confident enough to act
// on without escalation.
func (s *Service) IsNarrow(interval *models.ConformalInterval) bool {
	if interval == nil {
		return false
	}
	return interval.Width <= s.config.NarrowThreshold
}

func (s *Service) miss(ctx context.Context, modelID domain.ModelID, reason string) {
	if s.metrics != nil {
		s.metrics.CalibrationMisses.Inc()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "serving point prediction without interval",
			"model_id", modelID.Key(),
			"reason", reason,
		)
	}
}
