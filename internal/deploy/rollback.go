package deploy

import (
	"context"
	"fmt"
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
	dErrors "modelguard/pkg/domain-errors"
)

// MinEvaluationOutcomes is the floor of resolved outcomes below which the
// monitor will not judge a fresh activation. With fewer, the check confirms
// with the reason recorded rather than rolling back on noise.
const MinEvaluationOutcomes = 30

// MonitorConfig holds the rollback check tunables.
type MonitorConfig struct {
	// Delay is how long after activation the one-shot check runs.
	Delay time.Duration
	// Margin is the accuracy drop beyond which the candidate is reverted.
	Margin float64
	// ClaimLease bounds how long an EVALUATING claim stands before a later
	// sweep may take the check over. A check finishes in seconds; a claim
	// older than the lease belongs to a run that died mid-check.
	ClaimLease time.Duration
}

// DefaultMonitorConfig returns the standard 24h delay, 0.05 margin, and
// 15 minute claim lease.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Delay:      24 * time.Hour,
		Margin:     0.05,
		ClaimLease: 15 * time.Minute,
	}
}

// Validate rejects malformed tunables at load time.
func (c MonitorConfig) Validate() error {
	if c.Delay <= 0 {
		return dErrors.Newf(dErrors.CodeConfiguration, "rollback delay must be positive, got %v", c.Delay)
	}
	if c.Margin <= 0 || c.Margin >= 1 {
		return dErrors.Newf(dErrors.CodeConfiguration, "rollback margin must be in (0, 1), got %v", c.Margin)
	}
	if c.ClaimLease <= 0 {
		return dErrors.Newf(dErrors.CodeConfiguration, "claim lease must be positive, got %v", c.ClaimLease)
	}
	return nil
}

// Monitor runs the delayed one-shot rollback check. Due checks are derived
// from the persisted activation record, so the monitor picks up overdue
// checks after a crash; the SCHEDULED to EVALUATING claim makes each check
// run exactly once even with competing monitor processes, and the claim
// lease recovers checks whose owner died before recording an outcome.
type Monitor struct {
	store   ports.ActivationStore
	log     historyports.PredictionLogReader
	config  MonitorConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

// MonitorOption configures the Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets a logger.
func WithMonitorLogger(logger *slog.Logger) MonitorOption {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithMonitorMetrics sets the metrics collector.
func WithMonitorMetrics(mx *metrics.Metrics) MonitorOption {
	return func(m *Monitor) {
		m.metrics = mx
	}
}

// WithMonitorConfig overrides the default delay and margin.
func WithMonitorConfig(cfg MonitorConfig) MonitorOption {
	return func(m *Monitor) {
		m.config = cfg
	}
}

// WithMonitorClock overrides the time source. Tests only.
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.now = now
	}
}

// NewMonitor creates a rollback monitor over the activation store and
// prediction log.
func NewMonitor(store ports.ActivationStore, log historyports.PredictionLogReader, opts ...MonitorOption) (*Monitor, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "activation store is required")
	}
	if log == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "prediction log is required")
	}
	m := &Monitor{
		store:  store,
		log:    log,
		config: DefaultMonitorConfig(),
		logger: slog.Default(),
		tracer: otel.Tracer("modelguard/deploy"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// RunDueChecks scans every active record and evaluates each check whose
// delay has elapsed, overdue ones included. A failed rollback is returned
// after the scan completes; it must reach a human, not stop other families'
// checks.
func (m *Monitor) RunDueChecks(ctx context.Context) error {
	records, err := m.store.ListActive(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list active models")
	}

	now := m.now()
	var failed error
	for i := range records {
		record := records[i]
		switch {
		case record.CheckDue(now, m.config.Delay):
		case record.ClaimExpired(now, m.config.ClaimLease):
			if !m.reclaim(ctx, &record) {
				continue
			}
		default:
			continue
		}
		if err := m.check(ctx, &record); err != nil {
			if dErrors.HasCode(err, dErrors.CodeRollbackFailed) {
				failed = err
				continue
			}
			m.logger.ErrorContext(ctx, "rollback check failed",
				"model_id", record.ModelID.Key(), "error", err)
		}
	}
	return failed
}

// reclaim resets an abandoned EVALUATING claim back to SCHEDULED so the
// check can run again. Resetting is itself a guarded transition, so two
// sweeps racing for the same stale claim produce one winner.
func (m *Monitor) reclaim(ctx context.Context, record *models.ActivationRecord) bool {
	family := record.ModelID.Family()
	m.logger.ErrorContext(ctx, "rollback check claim expired, taking it over",
		"model_id", record.ModelID.Key(),
		"claimed_at", record.ClaimedAt,
	)
	err := m.store.TransitionRollback(ctx, family,
		models.RollbackEvaluating, models.RollbackScheduled, "")
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			m.logger.ErrorContext(ctx, "stale claim reset failed",
				"model_id", record.ModelID.Key(), "error", err)
		}
		return false
	}
	return true
}

// check evaluates one due record. The first transition claims the check;
// losing that claim means another monitor run owns it.
func (m *Monitor) check(ctx context.Context, record *models.ActivationRecord) error {
	ctx, span := m.tracer.Start(ctx, "deploy.RollbackCheck",
		trace.WithAttributes(attribute.String("model_id", record.ModelID.Key())))
	defer span.End()

	family := record.ModelID.Family()
	err := m.store.TransitionRollback(ctx, family,
		models.RollbackScheduled, models.RollbackEvaluating, "")
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil
		}
		return err
	}

	newAccuracy, resolved, err := m.realizedAccuracy(ctx, record)
	if err != nil {
		// Leave the record EVALUATING; once the claim lease expires a
		// later sweep takes the check over and retries with fresh data.
		return dErrors.Wrap(err, dErrors.CodeInternal, "read post-activation accuracy")
	}

	if resolved < MinEvaluationOutcomes {
		reason := fmt.Sprintf("only %d resolved outcomes since activation, keeping candidate", resolved)
		m.recordOutcome(ctx, family, models.RollbackConfirmed, reason)
		return nil
	}

	drop := record.PreviousAccuracy - newAccuracy
	span.SetAttributes(
		attribute.Float64("previous_accuracy", record.PreviousAccuracy),
		attribute.Float64("new_accuracy", newAccuracy),
	)

	if drop <= m.config.Margin {
		reason := fmt.Sprintf("accuracy %.3f vs previous %.3f, within margin %.2f",
			newAccuracy, record.PreviousAccuracy, m.config.Margin)
		m.recordOutcome(ctx, family, models.RollbackConfirmed, reason)
		return nil
	}

	return m.rollBack(ctx, record, newAccuracy, drop)
}

// rollBack reverts to the previous model. Attempted once: the record is
// already marked ROLLED_BACK when reactivation runs, so a failure cannot be
// silently retried by a later pass. It escalates instead.
func (m *Monitor) rollBack(ctx context.Context, record *models.ActivationRecord, newAccuracy, drop float64) error {
	family := record.ModelID.Family()
	reason := fmt.Sprintf("accuracy %.3f dropped %.3f below previous %.3f, margin %.2f",
		newAccuracy, drop, record.PreviousAccuracy, m.config.Margin)

	if record.PreviousModelID.IsNil() {
		m.countRollback("rollback_failed")
		m.logger.ErrorContext(ctx, "ROLLBACK FAILED: no previous model to reactivate, operator action required",
			"model_id", record.ModelID.Key(), "reason", reason)
		return dErrors.Newf(dErrors.CodeRollbackFailed,
			"underperforming model %s has no previous model to revert to", record.ModelID.Key())
	}

	if err := m.store.TransitionRollback(ctx, family,
		models.RollbackEvaluating, models.RolledBack, reason); err != nil {
		return err
	}

	reactivation := models.ActivationRecord{
		ModelID:          record.PreviousModelID,
		ActivatedAt:      m.now(),
		PreviousModelID:  record.ModelID,
		PreviousAccuracy: newAccuracy,
		// The restored model already proved itself; no fresh check.
		RollbackState:  models.RollbackConfirmed,
		RollbackReason: reason,
	}
	if err := m.store.Activate(ctx, reactivation, record.ModelID); err != nil {
		m.countRollback("rollback_failed")
		m.logger.ErrorContext(ctx, "ROLLBACK FAILED: previous model could not be reactivated, operator action required",
			"model_id", record.ModelID.Key(),
			"previous_model", record.PreviousModelID.Key(),
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeRollbackFailed, "reactivate previous model")
	}

	m.countRollback("rolled_back")
	m.logger.WarnContext(ctx, "model rolled back",
		"model_id", record.ModelID.Key(),
		"restored_model", record.PreviousModelID.Key(),
		"reason", reason,
	)
	return nil
}

func (m *Monitor) recordOutcome(ctx context.Context, family string, state models.RollbackState, reason string) {
	if err := m.store.TransitionRollback(ctx, family,
		models.RollbackEvaluating, state, reason); err != nil {
		m.logger.ErrorContext(ctx, "rollback outcome write failed",
			"family", family, "state", state, "error", err)
		return
	}
	m.countRollback("confirmed")
	m.logger.InfoContext(ctx, "activation confirmed", "family", family, "reason", reason)
}

func (m *Monitor) realizedAccuracy(ctx context.Context, record *models.ActivationRecord) (float64, int, error) {
	window := historymodels.TimeRange{From: record.ActivatedAt, To: m.now()}
	records, err := m.log.Query(ctx, record.ModelID, window, true)
	if err != nil {
		return 0, 0, err
	}
	accuracy, resolved := historymodels.RealizedAccuracy(records)
	return accuracy, resolved, nil
}

func (m *Monitor) countRollback(outcome string) {
	if m.metrics != nil {
		m.metrics.Rollbacks.WithLabelValues(outcome).Inc()
	}
}
