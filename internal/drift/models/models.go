// Package models defines drift detection outcomes: severity grades and the
// reports handed to the alert sink and the retrain safeguard.
package models

import (
	"time"

	"modelguard/pkg/domain"
)

// DriftType distinguishes the two independent detection pipelines.
type DriftType string

const (
	// DriftStatistical is a shift in the distribution of raw prediction
	// values, independent of known outcomes.
	DriftStatistical DriftType = "statistical"
	// DriftPerformance is a decline in realized accuracy/precision/recall.
	DriftPerformance DriftType = "performance"
)

// Severity grades a drift signal. Ordering matters: the safeguard evaluator
// auto-triggers only at High or Critical.
type Severity string

const (
	SeverityNone     Severity = "NONE"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the numeric order of the severity, 0 for NONE.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// DriftReport is the outcome of one detection run for one model. Ephemeral;
// evidence fields are populated per drift type (test statistic and p-value
// for statistical runs, metric deltas for performance runs).
type DriftReport struct {
	ModelID  domain.ModelID `json:"model_id"`
	Type     DriftType      `json:"type"`
	Severity Severity       `json:"severity"`
	Detected bool           `json:"detected"`

	// Statistical evidence.
	Statistic float64 `json:"statistic,omitempty"`
	PValue    float64 `json:"p_value,omitempty"`

	// Performance evidence: the worst-degraded metric and its delta
	// (recent mean minus baseline mean; negative means degradation), plus
	// every per-metric delta for the full picture.
	Metric string             `json:"metric,omitempty"`
	Delta  float64            `json:"delta,omitempty"`
	Deltas map[string]float64 `json:"deltas,omitempty"`

	RecentMean      float64   `json:"recent_mean"`
	BaselineMean    float64   `json:"baseline_mean"`
	MeanShift       float64   `json:"mean_shift"`
	RecentSamples   int       `json:"recent_samples"`
	BaselineSamples int       `json:"baseline_samples"`
	Timestamp       time.Time `json:"timestamp"`
}
