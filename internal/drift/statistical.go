// Package drift implements the two independent drift detectors: a
// distributional test over raw prediction values and a realized-performance
// comparison over daily snapshots. Both are pure computations over provided
// windows; alert emission happens elsewhere.
package drift

import (
	"time"

	"modelguard/internal/drift/models"
	"modelguard/internal/stats"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// MinWindowSamples is the per-window floor below which the statistical
// detector reports nothing at all.
const MinWindowSamples = 30

// StatisticalConfig holds the p-value severity bands, checked
// most-severe-first.
type StatisticalConfig struct {
	PCritical float64
	PHigh     float64
	PMedium   float64
}

// DefaultStatisticalConfig returns the standard significance bands.
func DefaultStatisticalConfig() StatisticalConfig {
	return StatisticalConfig{
		PCritical: 0.001,
		PHigh:     0.01,
		PMedium:   0.05,
	}
}

// Validate rejects a malformed band table at load time.
func (c StatisticalConfig) Validate() error {
	if !(c.PCritical > 0 && c.PCritical < c.PHigh && c.PHigh < c.PMedium && c.PMedium < 1) {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"statistical severity bands must satisfy 0 < critical < high < medium < 1, got %v/%v/%v",
			c.PCritical, c.PHigh, c.PMedium)
	}
	return nil
}

// StatisticalDetector grades distribution shift between a recent and a
// baseline window of raw prediction values.
type StatisticalDetector struct {
	config StatisticalConfig
}

// NewStatisticalDetector constructs a detector; a zero config selects the
// defaults.
func NewStatisticalDetector(cfg StatisticalConfig) (*StatisticalDetector, error) {
	if cfg == (StatisticalConfig{}) {
		cfg = DefaultStatisticalConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &StatisticalDetector{config: cfg}, nil
}

// Detect runs a two-sample Kolmogorov-Smirnov test between the windows.
// Returns nil when either window has fewer than MinWindowSamples values:
// absence of signal, not an error and not a report.
func (d *StatisticalDetector) Detect(modelID domain.ModelID, recent, baseline []float64, now time.Time) *models.DriftReport {
	if len(recent) < MinWindowSamples || len(baseline) < MinWindowSamples {
		return nil
	}

	res := stats.KSTwoSample(recent, baseline)
	severity := d.grade(res.PValue)

	recentMean := stats.Mean(recent)
	baselineMean := stats.Mean(baseline)

	return &models.DriftReport{
		ModelID:         modelID,
		Type:            models.DriftStatistical,
		Severity:        severity,
		Detected:        severity != models.SeverityNone,
		Statistic:       res.Statistic,
		PValue:          res.PValue,
		RecentMean:      recentMean,
		BaselineMean:    baselineMean,
		MeanShift:       recentMean - baselineMean,
		RecentSamples:   len(recent),
		BaselineSamples: len(baseline),
		Timestamp:       now,
	}
}

// grade maps a p-value to a severity, most-severe band first.
func (d *StatisticalDetector) grade(pValue float64) models.Severity {
	switch {
	case pValue < d.config.PCritical:
		return models.SeverityCritical
	case pValue < d.config.PHigh:
		return models.SeverityHigh
	case pValue < d.config.PMedium:
		return models.SeverityMedium
	default:
		return models.SeverityNone
	}
}
