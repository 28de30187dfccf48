// Package models defines the deployment lifecycle types: trained candidates,
// validation verdicts, and the activation record the rollback monitor reads.
package models

import (
	"time"

	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// ValidationMetrics holds a candidate's held-out evaluation results.
type ValidationMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	PRAUC     float64 `json:"pr_auc"`
}

// CandidateModel is the output of a completed training job, presented for
// validation and possible activation.
type CandidateModel struct {
	ModelID           domain.ModelID    `json:"model_id"`
	TrainedAt         time.Time         `json:"trained_at"`
	ValidationMetrics ValidationMetrics `json:"validation_metrics"`
	ValidationSamples int               `json:"validation_samples"`
}

// Validate rejects a structurally unusable candidate. Metric thresholds and
// the sample floor are the validator's job; this only guards shape.
func (c *CandidateModel) Validate() error {
	if c.ModelID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "candidate requires a model identity")
	}
	return nil
}

// ValidationResult is the validator's verdict. A threshold miss is an
// expected outcome carried in the result, not an error.
type ValidationResult struct {
	Valid         bool              `json:"valid"`
	Metrics       ValidationMetrics `json:"metrics"`
	FailedMetric  string            `json:"failed_metric,omitempty"`
	FailedValue   float64           `json:"failed_value,omitempty"`
	RequiredValue float64           `json:"required_value,omitempty"`
	Reason        string            `json:"reason,omitempty"`
}

// RollbackState is the lifecycle of the post-activation check.
type RollbackState string

const (
	// RollbackScheduled means the check is pending its delay.
	RollbackScheduled RollbackState = "SCHEDULED"
	// RollbackEvaluating means one monitor run has claimed the check.
	RollbackEvaluating RollbackState = "EVALUATING"
	// RollbackConfirmed means the candidate held its ground and stays.
	RollbackConfirmed RollbackState = "CONFIRMED"
	// RolledBack means the previous model was reactivated.
	RolledBack RollbackState = "ROLLED_BACK"
)

// ActivationRecord is the persisted fact of one activation. Superseded,
// never deleted, on rollback. The rollback check is re-derived from
// ActivatedAt plus the configured delay, not from any in-memory timer.
type ActivationRecord struct {
	ModelID           domain.ModelID    `json:"model_id"`
	ActivatedAt       time.Time         `json:"activated_at"`
	ValidationMetrics ValidationMetrics `json:"validation_metrics"`
	// PreviousModelID is the model this activation replaced; nil identity
	// on bootstrap.
	PreviousModelID domain.ModelID `json:"previous_model_id"`
	// PreviousAccuracy is the replaced model's realized accuracy captured
	// at activation time, the rollback comparison baseline.
	PreviousAccuracy float64       `json:"previous_accuracy"`
	RollbackState    RollbackState `json:"rollback_state"`
	// RollbackReason is set when the state reaches ROLLED_BACK.
	RollbackReason string `json:"rollback_reason,omitempty"`
	// ClaimedAt is stamped by the store on the SCHEDULED to EVALUATING
	// transition. A claim whose holder died leaves the record EVALUATING;
	// the lease on this timestamp lets a later sweep take it back.
	ClaimedAt time.Time `json:"claimed_at,omitempty"`
}

// CheckDue reports whether the rollback check should run, given the
// configured delay. Only meaningful in the SCHEDULED state.
func (r *ActivationRecord) CheckDue(now time.Time, delay time.Duration) bool {
	return r.RollbackState == RollbackScheduled && !now.Before(r.ActivatedAt.Add(delay))
}

// ClaimExpired reports whether an EVALUATING claim has outlived its lease
// and may be taken over. A zero ClaimedAt counts as expired.
func (r *ActivationRecord) ClaimExpired(now time.Time, lease time.Duration) bool {
	return r.RollbackState == RollbackEvaluating && !now.Before(r.ClaimedAt.Add(lease))
}

// Terminal reports whether the check has reached an end state.
func (r *ActivationRecord) Terminal() bool {
	return r.RollbackState == RollbackConfirmed || r.RollbackState == RolledBack
}
