// Package deploy covers the model deployment lifecycle: candidate
// validation, atomic activation, and the delayed rollback check.
package deploy

import (
	"fmt"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// threshold is one metric floor a candidate must clear.
type threshold struct {
	metric  string
	minimum float64
	extract func(models.ValidationMetrics) float64
}

// thresholdTable fixes the per-model-type floors. Fraud models gate on
// accuracy and precision; churn models gate on PR-AUC because their positive
// class is rare enough that accuracy is uninformative.
var thresholdTable = map[domain.ModelType][]threshold{
	domain.ModelTypeFraud: {
		{"accuracy", 0.70, func(m models.ValidationMetrics) float64 { return m.Accuracy }},
		{"precision", 0.60, func(m models.ValidationMetrics) float64 { return m.Precision }},
	},
	domain.ModelTypeChurn: {
		{"pr_auc", 0.70, func(m models.ValidationMetrics) float64 { return m.PRAUC }},
	},
}

// ValidatorConfig holds the candidate validation tunables.
type ValidatorConfig struct {
	// MinValidationSamples is the held-out set floor below which a
	// candidate cannot be judged at all.
	MinValidationSamples int
}

// DefaultValidatorConfig returns the standard 30 sample floor.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{MinValidationSamples: 30}
}

// Validate rejects malformed tunables at load time.
func (c ValidatorConfig) Validate() error {
	if c.MinValidationSamples <= 0 {
		return dErrors.Newf(dErrors.CodeConfiguration,
			"min validation samples must be positive, got %d", c.MinValidationSamples)
	}
	return nil
}

// Validator accepts or rejects trained candidates against the per-type
// metric floors.
type Validator struct {
	config ValidatorConfig
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorConfig overrides the default sample floor.
func WithValidatorConfig(cfg ValidatorConfig) ValidatorOption {
	return func(v *Validator) {
		v.config = cfg
	}
}

// NewValidator creates a validator over the standard threshold table.
func NewValidator(opts ...ValidatorOption) (*Validator, error) {
	v := &Validator{config: DefaultValidatorConfig()}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.config.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Validate compares the candidate's held-out metrics against its type's
// floors. A threshold miss is carried in the result with the failing metric
// named; only a structurally unusable candidate or an unknown model type is
// an error.
func (v *Validator) Validate(candidate *models.CandidateModel) (models.ValidationResult, error) {
	if err := candidate.Validate(); err != nil {
		return models.ValidationResult{}, err
	}
	if candidate.ValidationSamples < v.config.MinValidationSamples {
		return models.ValidationResult{}, dErrors.Newf(dErrors.CodeInsufficientData,
			"candidate has %d validation samples, need at least %d",
			candidate.ValidationSamples, v.config.MinValidationSamples)
	}
	floors, ok := thresholdTable[candidate.ModelID.Type]
	if !ok {
		return models.ValidationResult{}, dErrors.Newf(dErrors.CodeConfiguration,
			"no validation thresholds for model type %q", candidate.ModelID.Type)
	}

	for _, t := range floors {
		value := t.extract(candidate.ValidationMetrics)
		if value < t.minimum {
			return models.ValidationResult{
				Valid:         false,
				Metrics:       candidate.ValidationMetrics,
				FailedMetric:  t.metric,
				FailedValue:   value,
				RequiredValue: t.minimum,
				Reason: fmt.Sprintf("%s %.3f below required %.2f",
					t.metric, value, t.minimum),
			}, nil
		}
	}
	return models.ValidationResult{Valid: true, Metrics: candidate.ValidationMetrics}, nil
}
