package deploy

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"modelguard/internal/deploy/models"
	"modelguard/internal/deploy/ports"
	historymodels "modelguard/internal/history/models"
	historyports "modelguard/internal/history/ports"
	"modelguard/internal/platform/metrics"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// BaselineWindow is how far back the service looks when capturing the
// outgoing model's realized accuracy at activation time.
const BaselineWindow = 7 * 24 * time.Hour

// Service validates candidates and performs atomic activation. The rollback
// check is not scheduled with a timer: the persisted record's ActivatedAt
// plus the monitor's delay define when it is due.
type Service struct {
	store     ports.ActivationStore
	log       historyports.PredictionLogReader
	validator *Validator
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
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

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithValidator replaces the default validator with a tuned one.
func WithValidator(v *Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// NewService creates an activation service over the given store and
// prediction log.
func NewService(store ports.ActivationStore, log historyports.PredictionLogReader, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "activation store is required")
	}
	if log == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "prediction log is required")
	}
	validator, err := NewValidator()
	if err != nil {
		return nil, err
	}
	s := &Service{
		store:     store,
		log:       log,
		validator: validator,
		logger:    slog.Default(),
		tracer:    otel.Tracer("modelguard/deploy"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ValidateAndActivate runs the candidate through validation and, on a pass,
// atomically flips it to active. A threshold miss comes back in the result
// with no activation and no error; a lost activation race is a conflict
// error the caller must surface, never retry blindly.
func (s *Service) ValidateAndActivate(ctx context.Context, candidate *models.CandidateModel) (models.ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "deploy.ValidateAndActivate",
		trace.WithAttributes(attribute.String("model_id", candidate.ModelID.Key())))
	defer span.End()

	result, err := s.validator.Validate(candidate)
	if err != nil {
		return models.ValidationResult{}, err
	}
	if !result.Valid {
		s.logger.InfoContext(ctx, "candidate rejected",
			"model_id", candidate.ModelID.Key(),
			"failed_metric", result.FailedMetric,
			"reason", result.Reason,
		)
		return result, nil
	}

	family := candidate.ModelID.Family()
	now := s.now()

	previousID := domain.ModelID{}
	previousAccuracy := 0.0
	current, err := s.store.GetActive(ctx, family)
	switch {
	case err == nil:
		previousID = current.ModelID
		previousAccuracy = s.baselineAccuracy(ctx, current, now)
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		// Bootstrap: first activation for the family.
	default:
		return result, dErrors.Wrap(err, dErrors.CodeInternal, "read current activation")
	}

	record := models.ActivationRecord{
		ModelID:           candidate.ModelID,
		ActivatedAt:       now,
		ValidationMetrics: candidate.ValidationMetrics,
		PreviousModelID:   previousID,
		PreviousAccuracy:  previousAccuracy,
		RollbackState:     models.RollbackScheduled,
	}
	if err := s.store.Activate(ctx, record, previousID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) && s.metrics != nil {
			s.metrics.ActivationConflicts.Inc()
		}
		return result, err
	}

	if s.metrics != nil {
		s.metrics.Activations.Inc()
	}
	s.logger.InfoContext(ctx, "model activated",
		"model_id", candidate.ModelID.Key(),
		"previous_model", previousID.Key(),
		"previous_accuracy", previousAccuracy,
		"rollback_check_state", record.RollbackState,
	)
	return result, nil
}

// LastActivation reports when the family's current model went live. Serves
// the retrain safeguard's cooldown check.
func (s *Service) LastActivation(ctx context.Context, family string) (time.Time, bool, error) {
	record, err := s.store.GetActive(ctx, family)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return record.ActivatedAt, true, nil
}

// baselineAccuracy captures the outgoing model's realized accuracy over the
// trailing window. Falls back to its recorded validation accuracy when no
// outcomes resolved yet.
func (s *Service) baselineAccuracy(ctx context.Context, current *models.ActivationRecord, now time.Time) float64 {
	window := historymodels.TimeRange{From: now.Add(-BaselineWindow), To: now}
	records, err := s.log.Query(ctx, current.ModelID, window, true)
	if err != nil {
		s.logger.WarnContext(ctx, "baseline accuracy read failed, using validation accuracy",
			"model_id", current.ModelID.Key(), "error", err)
		return current.ValidationMetrics.Accuracy
	}
	accuracy, resolved := historymodels.RealizedAccuracy(records)
	if resolved == 0 {
		return current.ValidationMetrics.Accuracy
	}
	return accuracy
}
