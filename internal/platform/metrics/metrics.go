package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	IntervalsComputed   *prometheus.CounterVec
	IntervalWidth       prometheus.Histogram
	CalibrationMisses   prometheus.Counter
	DriftRunsTotal      *prometheus.CounterVec
	DriftSeverity       *prometheus.GaugeVec
	RetrainTriggers     prometheus.Counter
	RetrainVetoes       *prometheus.CounterVec
	Activations         prometheus.Counter
	ActivationConflicts prometheus.Counter
	Rollbacks           *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		IntervalsComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modelguard_intervals_computed_total",
			Help: "Conformal intervals computed, by model type and coverage level",
		}, []string{"model_type", "coverage_level"}),
		IntervalWidth: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelguard_interval_width",
			Help:    "Width of computed conformal intervals",
			Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1.0},
		}),
		CalibrationMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modelguard_calibration_misses_total",
			Help: "Predictions served without an interval because no calibration set existed",
		}),
		DriftRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modelguard_drift_runs_total",
			Help: "Drift detection runs, by detector and outcome",
		}, []string{"detector", "outcome"}),
		DriftSeverity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "modelguard_drift_severity",
			Help: "Most recent drift severity per model (0=none 1=medium 2=high 3=critical)",
		}, []string{"model", "detector"}),
		RetrainTriggers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modelguard_retrain_triggers_total",
			Help: "Retrain jobs commissioned by the safeguard evaluator",
		}),
		RetrainVetoes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modelguard_retrain_vetoes_total",
			Help: "Safeguard vetoes, by blocking condition",
		}, []string{"condition"}),
		Activations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modelguard_activations_total",
			Help: "Candidate models activated",
		}),
		ActivationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "modelguard_activation_conflicts_total",
			Help: "Activation attempts rejected because another activation won the race",
		}),
		Rollbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "modelguard_rollbacks_total",
			Help: "Rollback monitor outcomes",
		}, []string{"outcome"}),
	}
}
