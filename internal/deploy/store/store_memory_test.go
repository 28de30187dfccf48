package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// =============================================================================
// In-Memory Activation Store Tests
// =============================================================================

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
	now   time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
	s.now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func (s *MemoryStoreSuite) record(version string) models.ActivationRecord {
	return models.ActivationRecord{
		ModelID:       domain.ModelID{Type: domain.ModelTypeFraud, Version: version},
		ActivatedAt:   s.now,
		RollbackState: models.RollbackScheduled,
	}
}

func (s *MemoryStoreSuite) TestGetActiveOnEmptyFamilyIsNotFound() {
	_, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *MemoryStoreSuite) TestBootstrapActivation() {
	s.Require().NoError(s.store.Activate(s.ctx, s.record("v1"), domain.ModelID{}))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal("v1", active.ModelID.Version)
}

func (s *MemoryStoreSuite) TestActivationSupersedesMatchingCurrent() {
	v1 := s.record("v1")
	s.Require().NoError(s.store.Activate(s.ctx, v1, domain.ModelID{}))

	v2 := s.record("v2")
	v2.PreviousModelID = v1.ModelID
	s.Require().NoError(s.store.Activate(s.ctx, v2, v1.ModelID))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal("v2", active.ModelID.Version)

	history := s.store.History("fraud")
	s.Require().Len(history, 1)
	s.Equal("v1", history[0].ModelID.Version)
}

func (s *MemoryStoreSuite) TestStaleExpectationIsAConflict() {
	v1 := s.record("v1")
	s.Require().NoError(s.store.Activate(s.ctx, v1, domain.ModelID{}))
	v2 := s.record("v2")
	s.Require().NoError(s.store.Activate(s.ctx, v2, v1.ModelID))

	// A second writer still expecting v1 must lose, not overwrite.
	v3 := s.record("v3")
	err := s.store.Activate(s.ctx, v3, v1.ModelID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal("v2", active.ModelID.Version)
}

func (s *MemoryStoreSuite) TestBootstrapWithExpectationIsAConflict() {
	err := s.store.Activate(s.ctx, s.record("v2"), s.record("v1").ModelID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *MemoryStoreSuite) TestTransitionRollbackIsCompareAndSwap() {
	s.Require().NoError(s.store.Activate(s.ctx, s.record("v1"), domain.ModelID{}))

	s.Require().NoError(s.store.TransitionRollback(s.ctx, "fraud",
		models.RollbackScheduled, models.RollbackEvaluating, ""))

	claimed, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.False(claimed.ClaimedAt.IsZero(), "claim must be stamped on the EVALUATING transition")

	// A second claim of the same transition loses.
	err = s.store.TransitionRollback(s.ctx, "fraud",
		models.RollbackScheduled, models.RollbackEvaluating, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Require().NoError(s.store.TransitionRollback(s.ctx, "fraud",
		models.RollbackEvaluating, models.RollbackConfirmed, "held accuracy"))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal(models.RollbackConfirmed, active.RollbackState)
	s.Equal("held accuracy", active.RollbackReason)
}

func (s *MemoryStoreSuite) TestListActiveCoversAllFamilies() {
	s.Require().NoError(s.store.Activate(s.ctx, s.record("v1"), domain.ModelID{}))
	churn := models.ActivationRecord{
		ModelID:       domain.ModelID{Type: domain.ModelTypeChurn, Version: "v5"},
		ActivatedAt:   s.now,
		RollbackState: models.RollbackConfirmed,
	}
	s.Require().NoError(s.store.Activate(s.ctx, churn, domain.ModelID{}))

	records, err := s.store.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}
