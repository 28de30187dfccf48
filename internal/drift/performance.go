package drift

import (
	"math"
	"time"

	"modelguard/internal/drift/models"
	historymodels "modelguard/internal/history/models"
	"modelguard/internal/stats"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// MinWindowDays is the per-window floor of snapshot days below which the
// performance detector reports nothing.
const MinWindowDays = 5

// PerformanceConfig holds the metric-drop severity bands, applied to the
// absolute drop and checked most-severe-first.
type PerformanceConfig struct {
	DropCritical float64
	DropHigh     float64
	DropMedium   float64
}

// DefaultPerformanceConfig returns the standard drop bands.
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		DropCritical: 0.20,
		DropHigh:     0.10,
		DropMedium:   0.05,
	}
}

// Validate rejects a malformed band table at load time.
func (c PerformanceConfig) Validate() error {
	if !(c.DropMedium > 0 && c.DropMedium < c.DropHigh && c.DropHigh < c.DropCritical && c.DropCritical <= 1) {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"performance severity bands must satisfy 0 < medium < high < critical <= 1, got %v/%v/%v",
			c.DropCritical, c.DropHigh, c.DropMedium)
	}
	return nil
}

// PerformanceDetector grades realized-metric degradation between a recent
// and a baseline window of daily snapshots.
type PerformanceDetector struct {
	config PerformanceConfig
}

// NewPerformanceDetector constructs a detector; a zero config selects the
// defaults.
func NewPerformanceDetector(cfg PerformanceConfig) (*PerformanceDetector, error) {
	if cfg == (PerformanceConfig{}) {
		cfg = DefaultPerformanceConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &PerformanceDetector{config: cfg}, nil
}

// Detect compares per-metric means between the windows. Returns nil when
// either window has fewer than MinWindowDays snapshots.
//
// Severity applies only to negative deltas: improvement is never drift, no
// matter how large. The report carries the worst-degraded metric plus every
// per-metric delta.
func (d *PerformanceDetector) Detect(modelID domain.ModelID, recent, baseline []historymodels.PerformanceSnapshot, now time.Time) *models.DriftReport {
	if len(recent) < MinWindowDays || len(baseline) < MinWindowDays {
		return nil
	}

	metrics := []struct {
		name    string
		extract func(historymodels.PerformanceSnapshot) float64
	}{
		{"accuracy", func(s historymodels.PerformanceSnapshot) float64 { return s.Accuracy }},
		{"precision", func(s historymodels.PerformanceSnapshot) float64 { return s.Precision }},
		{"recall", func(s historymodels.PerformanceSnapshot) float64 { return s.Recall }},
	}

	deltas := make(map[string]float64, len(metrics))
	severity := models.SeverityNone
	worstMetric := ""
	worstDelta := math.Inf(1)

	for _, m := range metrics {
		recentMean := meanOf(recent, m.extract)
		baselineMean := meanOf(baseline, m.extract)
		delta := recentMean - baselineMean
		deltas[m.name] = delta

		if grade := d.grade(delta); grade.Rank() > severity.Rank() {
			severity = grade
		}
		if delta < worstDelta {
			worstMetric = m.name
			worstDelta = delta
		}
	}

	recentAccuracy := meanOf(recent, func(s historymodels.PerformanceSnapshot) float64 { return s.Accuracy })
	baselineAccuracy := meanOf(baseline, func(s historymodels.PerformanceSnapshot) float64 { return s.Accuracy })

	return &models.DriftReport{
		ModelID:         modelID,
		Type:            models.DriftPerformance,
		Severity:        severity,
		Detected:        severity != models.SeverityNone,
		Metric:          worstMetric,
		Delta:           deltas[worstMetric],
		Deltas:          deltas,
		RecentMean:      recentAccuracy,
		BaselineMean:    baselineAccuracy,
		MeanShift:       recentAccuracy - baselineAccuracy,
		RecentSamples:   len(recent),
		BaselineSamples: len(baseline),
		Timestamp:       now,
	}
}

// grade maps a per-metric delta to a severity. Positive deltas always map to
// NONE: improving is never classified as drift.
func (d *PerformanceDetector) grade(delta float64) models.Severity {
	if delta >= 0 {
		return models.SeverityNone
	}
	drop := -delta
	switch {
	case drop >= d.config.DropCritical:
		return models.SeverityCritical
	case drop >= d.config.DropHigh:
		return models.SeverityHigh
	case drop >= d.config.DropMedium:
		return models.SeverityMedium
	default:
		return models.SeverityNone
	}
}

func meanOf(snaps []historymodels.PerformanceSnapshot, extract func(historymodels.PerformanceSnapshot) float64) float64 {
	values := make([]float64, len(snaps))
	for i, s := range snaps {
		values[i] = extract(s)
	}
	return stats.Mean(values)
}
