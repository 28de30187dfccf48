package conformal

import (
	"modelguard/internal/conformal/models"
	"modelguard/internal/stats"
	dErrors "modelguard/pkg/domain-errors"
)

// ComputeInterval turns a calibration set and a new point prediction into a
// coverage-guaranteed interval.
//
// The quantile rank uses the finite-sample correction ceil((n+1) * level/100).
// That correction is what makes the coverage a guarantee for exchangeable
// data rather than an asymptotic approximation. When the corrected rank
// exceeds n the available data cannot guarantee the requested coverage; that
// condition is surfaced as an insufficient-data error, never silently
// approximated by clipping.
func ComputeInterval(pointPrediction float64, set *models.CalibrationSet, level models.CoverageLevel) (*models.ConformalInterval, error) {
	if err := level.Validate(); err != nil {
		return nil, err
	}
	if set == nil {
		return nil, dErrors.New(dErrors.CodeInsufficientData, "no calibration set")
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	scores, err := Scores(set.Predictions, set.Actuals)
	if err != nil {
		return nil, err
	}
	sorted := stats.SortedCopy(scores)

	n := len(sorted)
	// Integer ceil of (n+1)*level/100; avoids float rounding at the rank
	// boundary.
	rank := ((n+1)*int(level) + 99) / 100
	if rank > n {
		return nil, dErrors.Newf(dErrors.CodeInsufficientData,
			"%d calibration pairs cannot guarantee %d%% coverage (corrected rank %d exceeds n)",
			n, int(level), rank)
	}

	quantile := sorted[rank-1]

	lower := stats.Clamp(pointPrediction-quantile, 0, 1)
	upper := stats.Clamp(pointPrediction+quantile, 0, 1)
	width := upper - lower

	return &models.ConformalInterval{
		Lower:            lower,
		Upper:            upper,
		Width:            width,
		CalibrationScore: 1 - width,
		CoverageLevel:    level,
	}, nil
}
