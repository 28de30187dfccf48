// Package service orchestrates one drift detection pass: it pulls the recent
// and baseline windows from history, runs both detectors, records the
// outcome, and hands detected reports to the alert sink.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"modelguard/internal/alert"
	"modelguard/internal/drift"
	"modelguard/internal/drift/models"
	historymodels "modelguard/internal/history/models"
	historyports "modelguard/internal/history/ports"
	"modelguard/internal/platform/metrics"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// WindowConfig fixes the comparison windows for both detectors. The recent
// window ends now; the baseline window is a band further back, separated
// from the recent window so a slow ramp registers as a shift.
type WindowConfig struct {
	// RecentWindow is how far back the recent window reaches.
	RecentWindow time.Duration
	// BaselineStart and BaselineEnd bound the baseline window, as offsets
	// back from now. Start must be further back than End.
	BaselineStart time.Duration
	BaselineEnd   time.Duration
}

// DefaultWindowConfig compares the last week against the 30-60 day band.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		RecentWindow:  7 * 24 * time.Hour,
		BaselineStart: 60 * 24 * time.Hour,
		BaselineEnd:   30 * 24 * time.Hour,
	}
}

// Validate rejects inverted or empty windows at load time.
func (c WindowConfig) Validate() error {
	if c.RecentWindow <= 0 {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"recent window must be positive, got %v", c.RecentWindow)
	}
	if c.BaselineStart <= c.BaselineEnd {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"baseline start offset (%v) must be further back than end offset (%v)",
			c.BaselineStart, c.BaselineEnd)
	}
	if c.BaselineEnd < c.RecentWindow {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"baseline window (ending %v back) overlaps recent window (%v)",
			c.BaselineEnd, c.RecentWindow)
	}
	return nil
}

// Service runs both detectors for a model and publishes detected drift.
// The two pipelines are independent: either can fire without the other, and
// a failure in one does not suppress the other.
type Service struct {
	log         historyports.PredictionLogReader
	snapshots   historyports.SnapshotReader
	sink        alert.Sink
	statistical *drift.StatisticalDetector
	performance *drift.PerformanceDetector
	windows     WindowConfig
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	now         func() time.Time

	mu     sync.RWMutex
	latest map[string][]*models.DriftReport
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

// WithWindows overrides the default comparison windows.
func WithWindows(cfg WindowConfig) Option {
	return func(s *Service) {
		s.windows = cfg
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a drift detection service over the given history readers and
// alert sink.
func New(log historyports.PredictionLogReader, snapshots historyports.SnapshotReader, sink alert.Sink, opts ...Option) (*Service, error) {
	statistical, err := drift.NewStatisticalDetector(drift.StatisticalConfig{})
	if err != nil {
		return nil, err
	}
	performance, err := drift.NewPerformanceDetector(drift.PerformanceConfig{})
	if err != nil {
		return nil, err
	}
	s := &Service{
		log:         log,
		snapshots:   snapshots,
		sink:        sink,
		statistical: statistical,
		performance: performance,
		windows:     DefaultWindowConfig(),
		logger:      slog.Default(),
		tracer:      otel.Tracer("modelguard/drift"),
		now:         time.Now,
		latest:      make(map[string][]*models.DriftReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.windows.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run executes one detection pass for one model. Both detectors always run;
// the returned reports hold whatever each produced (nil entries are dropped).
// A read failure in one pipeline is logged and that pipeline skipped.
func (s *Service) Run(ctx context.Context, modelID domain.ModelID) ([]*models.DriftReport, error) {
	ctx, span := s.tracer.Start(ctx, "drift.Run",
		trace.WithAttributes(attribute.String("model_id", modelID.Key())))
	defer span.End()

	now := s.now()
	var reports []*models.DriftReport

	if report, err := s.runStatistical(ctx, modelID, now); err != nil {
		s.logger.ErrorContext(ctx, "statistical drift pass failed",
			"model_id", modelID.Key(), "error", err)
		s.countRun("statistical", "error")
	} else if report != nil {
		reports = append(reports, report)
	}

	if report, err := s.runPerformance(ctx, modelID, now); err != nil {
		s.logger.ErrorContext(ctx, "performance drift pass failed",
			"model_id", modelID.Key(), "error", err)
		s.countRun("performance", "error")
	} else if report != nil {
		reports = append(reports, report)
	}

	s.record(modelID, reports)

	for _, report := range reports {
		span.SetAttributes(attribute.String("severity."+string(report.Type), string(report.Severity)))
		if !report.Detected {
			continue
		}
		recommendation := alert.RecommendationFor(report)
		if err := s.sink.Publish(ctx, report, recommendation); err != nil {
			s.logger.ErrorContext(ctx, "drift alert publish failed",
				"model_id", modelID.Key(), "drift_type", report.Type, "error", err)
		}
	}
	return reports, nil
}

// Latest returns the reports from the most recent completed pass for the
// model, or nil if none has run yet.
func (s *Service) Latest(modelID domain.ModelID) []*models.DriftReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[modelID.Key()]
}

func (s *Service) record(modelID domain.ModelID, reports []*models.DriftReport) {
	if reports == nil {
		// A completed pass with nothing to report must stay readable as
		// "ran, no signal", not as "never ran".
		reports = []*models.DriftReport{}
	}
	s.mu.Lock()
	s.latest[modelID.Key()] = reports
	s.mu.Unlock()

	if s.metrics == nil {
		return
	}
	for _, report := range reports {
		s.metrics.DriftSeverity.
			WithLabelValues(modelID.Key(), string(report.Type)).
			Set(float64(report.Severity.Rank()))
	}
}

func (s *Service) runStatistical(ctx context.Context, modelID domain.ModelID, now time.Time) (*models.DriftReport, error) {
	recentWindow := historymodels.TimeRange{From: now.Add(-s.windows.RecentWindow), To: now}
	baselineWindow := historymodels.TimeRange{
		From: now.Add(-s.windows.BaselineStart),
		To:   now.Add(-s.windows.BaselineEnd),
	}

	recent, err := s.log.Query(ctx, modelID, recentWindow, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query recent predictions")
	}
	baseline, err := s.log.Query(ctx, modelID, baselineWindow, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query baseline predictions")
	}

	report := s.statistical.Detect(modelID, pointEstimates(recent), pointEstimates(baseline), now)
	s.countStatisticalOutcome(report, len(recent), len(baseline))
	return report, nil
}

func (s *Service) runPerformance(ctx context.Context, modelID domain.ModelID, now time.Time) (*models.DriftReport, error) {
	recentWindow := historymodels.TimeRange{From: now.Add(-s.windows.RecentWindow), To: now}
	baselineWindow := historymodels.TimeRange{
		From: now.Add(-s.windows.BaselineStart),
		To:   now.Add(-s.windows.BaselineEnd),
	}

	recent, err := s.snapshots.Query(ctx, modelID, recentWindow)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query recent snapshots")
	}
	baseline, err := s.snapshots.Query(ctx, modelID, baselineWindow)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query baseline snapshots")
	}

	report := s.performance.Detect(modelID, recent, baseline, now)
	if report == nil {
		s.countRun("performance", "insufficient_data")
		s.logger.DebugContext(ctx, "performance drift skipped, not enough snapshot days",
			"model_id", modelID.Key(), "recent_days", len(recent), "baseline_days", len(baseline))
		return nil, nil
	}
	s.countRun("performance", outcomeLabel(report))
	return report, nil
}

func (s *Service) countStatisticalOutcome(report *models.DriftReport, recentN, baselineN int) {
	if report == nil {
		s.countRun("statistical", "insufficient_data")
		s.logger.Debug("statistical drift skipped, window below sample floor",
			"recent_samples", recentN, "baseline_samples", baselineN)
		return
	}
	s.countRun("statistical", outcomeLabel(report))
}

func (s *Service) countRun(detector, outcome string) {
	if s.metrics != nil {
		s.metrics.DriftRunsTotal.WithLabelValues(detector, outcome).Inc()
	}
}

func outcomeLabel(report *models.DriftReport) string {
	if report.Detected {
		return "detected"
	}
	return "clean"
}

func pointEstimates(records []historymodels.PredictionRecord) []float64 {
	values := make([]float64, len(records))
	for i := range records {
		values[i] = records[i].PointEstimate
	}
	return values
}
