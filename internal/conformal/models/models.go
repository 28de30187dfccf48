// Package models defines the data types of the conformal prediction
// subsystem: calibration sets and the intervals derived from them.
package models

import (
	"time"

	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// Calibration set size bounds.
const (
	// MinCalibrationSize is the hard floor below which a calibration set is
	// rejected outright: quantile ranks become meaningless under 30 pairs.
	MinCalibrationSize = 30
	// RecommendedCalibrationSize is the soft floor below which intervals are
	// served but flagged in logs as statistically thin.
	RecommendedCalibrationSize = 50
)

// CoverageLevel is the target probability, in percent, that the true outcome
// lies inside a produced interval. Only the three supported levels are valid.
type CoverageLevel int

// Supported coverage levels.
const (
	Coverage90 CoverageLevel = 90
	Coverage95 CoverageLevel = 95
	Coverage99 CoverageLevel = 99
)

// Validate rejects unsupported coverage levels with a configuration error.
func (c CoverageLevel) Validate() error {
	switch c {
	case Coverage90, Coverage95, Coverage99:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeConfiguration, "unsupported coverage level %d (supported: 90, 95, 99)", int(c))
	}
}

// CalibrationSet is a snapshot of recent (prediction, outcome) pairs for one
// model, used as the held-out set for conformal interval computation.
// Predictions and Actuals are parallel sequences; the set is immutable once
// stored and expires after TTL.
type CalibrationSet struct {
	ModelID     domain.ModelID `json:"model_id"`
	Predictions []float64      `json:"predictions"`
	Actuals     []int          `json:"actuals"`
	CapturedAt  time.Time      `json:"captured_at"`
	TTL         time.Duration  `json:"ttl"`
}

// Size returns the number of calibration pairs.
func (c *CalibrationSet) Size() int {
	return len(c.Predictions)
}

// Validate enforces the structural invariants: parallel sequences of equal
// length, and at least MinCalibrationSize pairs.
func (c *CalibrationSet) Validate() error {
	if c.ModelID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "calibration set requires a model id")
	}
	if len(c.Predictions) != len(c.Actuals) {
		return dErrors.Newf(dErrors.CodeValidation,
			"calibration sequences must be equal length: %d predictions, %d actuals",
			len(c.Predictions), len(c.Actuals))
	}
	if len(c.Predictions) < MinCalibrationSize {
		return dErrors.Newf(dErrors.CodeInsufficientData,
			"calibration set has %d pairs, need at least %d", len(c.Predictions), MinCalibrationSize)
	}
	return nil
}

// ConformalInterval is an uncertainty interval around a point prediction,
// carrying the finite-sample coverage guarantee of split-conformal
// prediction for the requested level.
type ConformalInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Width float64 `json:"width"`
	// CalibrationScore is 1 - Width: a tightness heuristic for dashboards
	// and routing policy. It is NOT a statistical guarantee of any kind;
	// only the coverage level carries one.
	CalibrationScore float64       `json:"calibration_score"`
	CoverageLevel    CoverageLevel `json:"coverage_level"`
}
