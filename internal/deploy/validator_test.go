package deploy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// =============================================================================
// Validator Tests
// =============================================================================

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	var err error
	s.validator, err = NewValidator()
	s.Require().NoError(err)
}

func (s *ValidatorSuite) candidate(modelType domain.ModelType, metrics models.ValidationMetrics) *models.CandidateModel {
	return &models.CandidateModel{
		ModelID:           domain.ModelID{Type: modelType, Version: "v9"},
		TrainedAt:         time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		ValidationMetrics: metrics,
		ValidationSamples: 200,
	}
}

func (s *ValidatorSuite) TestFraudCandidatePassesBothFloors() {
	result, err := s.validator.Validate(s.candidate(domain.ModelTypeFraud,
		models.ValidationMetrics{Accuracy: 0.82, Precision: 0.71, Recall: 0.65}))

	s.Require().NoError(err)
	s.True(result.Valid)
	s.Empty(result.FailedMetric)
}

func (s *ValidatorSuite) TestFraudAccuracyMissNamesMetric() {
	result, err := s.validator.Validate(s.candidate(domain.ModelTypeFraud,
		models.ValidationMetrics{Accuracy: 0.65, Precision: 0.71}))

	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("accuracy", result.FailedMetric)
	s.InDelta(0.65, result.FailedValue, 1e-9)
	s.InDelta(0.70, result.RequiredValue, 1e-9)
	s.Contains(result.Reason, "accuracy")
}

func (s *ValidatorSuite) TestFraudPrecisionMissNamesMetric() {
	result, err := s.validator.Validate(s.candidate(domain.ModelTypeFraud,
		models.ValidationMetrics{Accuracy: 0.80, Precision: 0.55}))

	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("precision", result.FailedMetric)
}

func (s *ValidatorSuite) TestChurnGatesOnPRAUCOnly() {
	// Low accuracy with PR-AUC above the floor still passes.
	result, err := s.validator.Validate(s.candidate(domain.ModelTypeChurn,
		models.ValidationMetrics{Accuracy: 0.40, PRAUC: 0.74}))
	s.Require().NoError(err)
	s.True(result.Valid)

	result, err = s.validator.Validate(s.candidate(domain.ModelTypeChurn,
		models.ValidationMetrics{Accuracy: 0.95, PRAUC: 0.61}))
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("pr_auc", result.FailedMetric)
}

func (s *ValidatorSuite) TestExactFloorPasses() {
	result, err := s.validator.Validate(s.candidate(domain.ModelTypeFraud,
		models.ValidationMetrics{Accuracy: 0.70, Precision: 0.60}))

	s.Require().NoError(err)
	s.True(result.Valid)
}

func (s *ValidatorSuite) TestTooFewValidationSamplesIsAnError() {
	candidate := s.candidate(domain.ModelTypeFraud,
		models.ValidationMetrics{Accuracy: 0.90, Precision: 0.90})
	candidate.ValidationSamples = 29

	_, err := s.validator.Validate(candidate)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientData))
}

func (s *ValidatorSuite) TestSampleFloorIsTunable() {
	s.Run("tuned floor applies", func() {
		validator, err := NewValidator(WithValidatorConfig(ValidatorConfig{MinValidationSamples: 500}))
		s.Require().NoError(err)

		candidate := s.candidate(domain.ModelTypeFraud,
			models.ValidationMetrics{Accuracy: 0.90, Precision: 0.90})
		_, err = validator.Validate(candidate)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientData))
	})

	s.Run("default floor is 30", func() {
		candidate := s.candidate(domain.ModelTypeFraud,
			models.ValidationMetrics{Accuracy: 0.90, Precision: 0.90})
		candidate.ValidationSamples = 30
		result, err := s.validator.Validate(candidate)
		s.Require().NoError(err)
		s.True(result.Valid)
	})

	s.Run("nonsense floor rejected at load", func() {
		_, err := NewValidator(WithValidatorConfig(ValidatorConfig{MinValidationSamples: 0}))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func (s *ValidatorSuite) TestNilIdentityIsAnError() {
	candidate := s.candidate(domain.ModelTypeFraud, models.ValidationMetrics{})
	candidate.ModelID = domain.ModelID{}

	_, err := s.validator.Validate(candidate)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
