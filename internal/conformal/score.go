// Package conformal implements split-conformal prediction: nonconformity
// scoring over a calibration set and finite-sample-corrected interval
// computation around a point prediction.
package conformal

import (
	"math"

	dErrors "modelguard/pkg/domain-errors"
)

// Score is the nonconformity score for a single (prediction, outcome) pair:
// the absolute residual |prediction - actual|. For predictions in [0,1] and
// binary outcomes the score is in [0,1], and 0 only on an exact match.
func Score(prediction float64, actual int) float64 {
	return math.Abs(prediction - float64(actual))
}

// Scores vectorizes Score over parallel prediction/outcome sequences.
// The only failure mode is a shape mismatch.
func Scores(predictions []float64, actuals []int) ([]float64, error) {
	if len(predictions) != len(actuals) {
		return nil, dErrors.Newf(dErrors.CodeValidation,
			"score sequences must be equal length: %d predictions, %d actuals",
			len(predictions), len(actuals))
	}
	scores := make([]float64, len(predictions))
	for i, p := range predictions {
		scores[i] = Score(p, actuals[i])
	}
	return scores, nil
}
