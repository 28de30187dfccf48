// Package retrain implements the safeguard around automatic retraining.
// Drift alone never triggers a job: every guard condition must pass, and a
// veto always says exactly which conditions blocked it.
package retrain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	driftmodels "modelguard/internal/drift/models"
	jobports "modelguard/internal/jobs/ports"
	"modelguard/internal/platform/metrics"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

//go:generate mockgen -source=retrain.go -destination=mocks/mocks.go -package=mocks ActivationReader,SampleCounter

// Blocking condition labels. Stable strings: they appear in decisions,
// logs, and the veto metric.
const (
	BlockDisabled            = "auto_retrain_disabled"
	BlockSeverityBelow       = "severity_below_threshold"
	BlockCooldownActive      = "cooldown_active"
	BlockInsufficientSamples = "insufficient_new_samples"
	BlockJobInFlight         = "job_in_flight"
)

// ActivationReader reports when a model family last went live. Backed by the
// deployment activation store.
type ActivationReader interface {
	// LastActivation returns the most recent activation time for the
	// family, with found=false when the family has never been activated.
	LastActivation(ctx context.Context, family string) (at time.Time, found bool, err error)
}

// SampleCounter counts outcome-resolved training samples accumulated since a
// point in time. Backed by the prediction log.
type SampleCounter interface {
	NewSamplesSince(ctx context.Context, modelID domain.ModelID, since time.Time) (int, error)
}

// Config holds the guard thresholds.
type Config struct {
	// AutoRetrainEnabled is the master switch. Off by default: automatic
	// retraining is opt-in per deployment.
	AutoRetrainEnabled bool
	// MinSeverity is the weakest drift grade that may trigger.
	MinSeverity driftmodels.Severity
	// Cooldown is the minimum gap since the family's last activation.
	Cooldown time.Duration
	// MinNewSamples is the minimum count of new outcome-resolved samples
	// accumulated since the last activation.
	MinNewSamples int
}

// DefaultConfig returns the standard guard thresholds with the master
// switch off.
func DefaultConfig() Config {
	return Config{
		AutoRetrainEnabled: false,
		MinSeverity:        driftmodels.SeverityHigh,
		Cooldown:           7 * 24 * time.Hour,
		MinNewSamples:      100,
	}
}

// Validate rejects malformed thresholds at load time.
func (c Config) Validate() error {
	if c.MinSeverity.Rank() == 0 && c.MinSeverity != driftmodels.SeverityNone {
		return dErrors.Newf(dErrors.CodeConfiguration, "unknown minimum severity %q", c.MinSeverity)
	}
	if c.Cooldown < 0 {
		return dErrors.Newf(dErrors.CodeConfiguration, "cooldown must not be negative, got %v", c.Cooldown)
	}
	if c.MinNewSamples < 0 {
		return dErrors.Newf(dErrors.CodeConfiguration, "minimum new samples must not be negative, got %d", c.MinNewSamples)
	}
	return nil
}

// Decision is the safeguard's verdict on one drift report. BlockingReasons
// holds every failed condition, not just the first: operators need the full
// list to know what to change.
type Decision struct {
	ModelID         domain.ModelID        `json:"model_id"`
	Severity        driftmodels.Severity  `json:"severity"`
	ShouldTrigger   bool                  `json:"should_trigger"`
	BlockingReasons []string              `json:"blocking_reasons,omitempty"`
	Handle          *jobports.JobHandle   `json:"handle,omitempty"`
	EvaluatedAt     time.Time             `json:"evaluated_at"`
}

// Evaluator applies the guard conditions and commissions training when all
// pass. Fail-closed throughout: a collaborator failure blocks, never allows.
type Evaluator struct {
	activations ActivationReader
	samples     SampleCounter
	registry    jobports.JobRegistry
	invoker     jobports.TrainingInvoker
	config      Config
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// Option configures the Evaluator.
type Option func(*Evaluator)

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) {
		e.metrics = m
	}
}

// WithConfig overrides the default thresholds.
func WithConfig(cfg Config) Option {
	return func(e *Evaluator) {
		e.config = cfg
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		e.now = now
	}
}

// New creates a safeguard evaluator. All four collaborators are required.
func New(activations ActivationReader, samples SampleCounter, registry jobports.JobRegistry, invoker jobports.TrainingInvoker, opts ...Option) (*Evaluator, error) {
	if activations == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "activation reader is required")
	}
	if samples == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "sample counter is required")
	}
	if registry == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "job registry is required")
	}
	if invoker == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "training invoker is required")
	}
	e := &Evaluator{
		activations: activations,
		samples:     samples,
		registry:    registry,
		invoker:     invoker,
		config:      DefaultConfig(),
		logger:      slog.Default(),
		tracer:      otel.Tracer("modelguard/retrain"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.config.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Evaluate applies every guard condition to the report and, when all pass,
// submits a training job and registers it as in flight. All conditions are
// always checked so the decision lists every blocker.
func (e *Evaluator) Evaluate(ctx context.Context, report *driftmodels.DriftReport) (Decision, error) {
	ctx, span := e.tracer.Start(ctx, "retrain.Evaluate",
		trace.WithAttributes(
			attribute.String("model_id", report.ModelID.Key()),
			attribute.String("severity", string(report.Severity)),
		))
	defer span.End()

	now := e.now()
	decision := Decision{
		ModelID:     report.ModelID,
		Severity:    report.Severity,
		EvaluatedAt: now,
	}
	block := func(reason string) {
		decision.BlockingReasons = append(decision.BlockingReasons, reason)
	}

	if !e.config.AutoRetrainEnabled {
		block(BlockDisabled)
	}

	if !report.Severity.AtLeast(e.config.MinSeverity) {
		block(BlockSeverityBelow)
	}

	lastActivation := e.checkCooldown(ctx, report.ModelID, now, block)
	e.checkSamples(ctx, report.ModelID, lastActivation, block)
	e.checkInFlight(ctx, report.ModelID, block)

	if len(decision.BlockingReasons) > 0 {
		e.recordVetoes(decision.BlockingReasons)
		e.logger.InfoContext(ctx, "retrain vetoed",
			"model_id", report.ModelID.Key(),
			"severity", report.Severity,
			"blocking_reasons", decision.BlockingReasons,
		)
		return decision, nil
	}

	reason := fmt.Sprintf("%s drift %s", report.Type, report.Severity)
	handle, err := e.invoker.SubmitTraining(ctx, report.ModelID, reason)
	if err != nil {
		return decision, dErrors.Wrap(err, dErrors.CodeInternal, "submit training")
	}
	if err := e.registry.Register(ctx, handle); err != nil {
		// The job was submitted; a failed mark only risks a duplicate later.
		e.logger.ErrorContext(ctx, "training job submitted but registry mark failed",
			"model_id", report.ModelID.Key(), "job_id", handle.JobID, "error", err)
	}

	decision.ShouldTrigger = true
	decision.Handle = &handle
	if e.metrics != nil {
		e.metrics.RetrainTriggers.Inc()
	}
	e.logger.InfoContext(ctx, "retrain triggered",
		"model_id", report.ModelID.Key(),
		"severity", report.Severity,
		"job_id", handle.JobID,
	)
	return decision, nil
}

// checkCooldown blocks while the family is inside the post-activation
// cooldown. Returns the last activation time (zero when never activated) for
// the sample-count window. A read failure blocks.
func (e *Evaluator) checkCooldown(ctx context.Context, modelID domain.ModelID, now time.Time, block func(string)) time.Time {
	at, found, err := e.activations.LastActivation(ctx, modelID.Family())
	if err != nil {
		e.logger.ErrorContext(ctx, "activation lookup failed, blocking retrain",
			"model_id", modelID.Key(), "error", err)
		block(BlockCooldownActive)
		return time.Time{}
	}
	if !found {
		// Never activated: no cooldown applies.
		return time.Time{}
	}
	if now.Sub(at) < e.config.Cooldown {
		block(BlockCooldownActive)
	}
	return at
}

// checkSamples blocks when too few outcome-resolved samples accumulated
// since the last activation. A read failure blocks.
func (e *Evaluator) checkSamples(ctx context.Context, modelID domain.ModelID, since time.Time, block func(string)) {
	n, err := e.samples.NewSamplesSince(ctx, modelID, since)
	if err != nil {
		e.logger.ErrorContext(ctx, "sample count failed, blocking retrain",
			"model_id", modelID.Key(), "error", err)
		block(BlockInsufficientSamples)
		return
	}
	if n < e.config.MinNewSamples {
		block(BlockInsufficientSamples)
	}
}

// checkInFlight blocks while any job is already running for the family. A
// registry failure blocks.
func (e *Evaluator) checkInFlight(ctx context.Context, modelID domain.ModelID, block func(string)) {
	active, err := e.registry.HasActiveJob(ctx, modelID)
	if err != nil {
		e.logger.ErrorContext(ctx, "job registry check failed, blocking retrain",
			"model_id", modelID.Key(), "error", err)
		block(BlockJobInFlight)
		return
	}
	if active {
		block(BlockJobInFlight)
	}
}

func (e *Evaluator) recordVetoes(reasons []string) {
	if e.metrics == nil {
		return
	}
	for _, reason := range reasons {
		e.metrics.RetrainVetoes.WithLabelValues(reason).Inc()
	}
}
