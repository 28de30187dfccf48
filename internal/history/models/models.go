// Package models defines the read models this pipeline consumes from
// external writers: the prediction log and the daily performance snapshot
// series. Their schemas are hard dependencies on those writers.
package models

import (
	"time"

	"modelguard/pkg/domain"
)

// DecisionThreshold is the cut at which a point estimate counts as a
// positive call when deriving realized accuracy from the prediction log.
const DecisionThreshold = 0.5

// PredictionRecord is one inference event. Created at inference time; the
// actual outcome is backfilled later by an external resolver and the record
// is append-only once the outcome is set.
type PredictionRecord struct {
	ModelID       domain.ModelID `json:"model_id"`
	PointEstimate float64        `json:"point_estimate"`
	Timestamp     time.Time      `json:"timestamp"`
	// ActualOutcome is nil until the external resolver backfills it.
	ActualOutcome *int `json:"actual_outcome,omitempty"`
}

// HasOutcome reports whether the outcome has been resolved.
func (p *PredictionRecord) HasOutcome() bool {
	return p.ActualOutcome != nil
}

// Correct reports whether the thresholded prediction matched the outcome.
// Only meaningful when the outcome is resolved.
func (p *PredictionRecord) Correct() bool {
	if p.ActualOutcome == nil {
		return false
	}
	predicted := 0
	if p.PointEstimate >= DecisionThreshold {
		predicted = 1
	}
	return predicted == *p.ActualOutcome
}

// RealizedAccuracy computes the fraction of outcome-resolved records whose
// thresholded prediction matched the outcome. Returns (0, 0) when no record
// has a resolved outcome; callers treat that as no signal.
func RealizedAccuracy(records []PredictionRecord) (accuracy float64, resolved int) {
	correct := 0
	for i := range records {
		if !records[i].HasOutcome() {
			continue
		}
		resolved++
		if records[i].Correct() {
			correct++
		}
	}
	if resolved == 0 {
		return 0, 0
	}
	return float64(correct) / float64(resolved), resolved
}

// PerformanceSnapshot is one day of realized metrics for one model, written
// by an external aggregation process.
type PerformanceSnapshot struct {
	ModelID         domain.ModelID `json:"model_id"`
	Date            time.Time      `json:"date"`
	Accuracy        float64        `json:"accuracy"`
	Precision       float64        `json:"precision"`
	Recall          float64        `json:"recall"`
	F1              float64        `json:"f1"`
	PRAUC           float64        `json:"pr_auc"`
	SampleCount     int            `json:"sample_count"`
	OutcomeCoverage float64        `json:"outcome_coverage_fraction"`
}

// TimeRange is a half-open [From, To) window.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls in the window.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}
