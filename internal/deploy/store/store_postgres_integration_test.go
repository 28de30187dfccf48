//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
	"modelguard/pkg/testutil/containers"
)

// =============================================================================
// Postgres Activation Store Integration Tests
// =============================================================================
// Justification: the compare-and-swap activation and the guarded rollback
// transition are raw SQL; only a real Postgres proves the partial unique
// index and the predicate UPDATEs behave under contention.

const activationSchema = `
CREATE TABLE IF NOT EXISTS model_activations (
    id                 BIGSERIAL PRIMARY KEY,
    family             TEXT        NOT NULL,
    model_type         TEXT        NOT NULL,
    model_version      TEXT        NOT NULL,
    model_scope        TEXT        NOT NULL DEFAULT '',
    activated_at       TIMESTAMPTZ NOT NULL,
    validation_metrics JSONB       NOT NULL,
    previous_model     TEXT        NOT NULL DEFAULT '',
    previous_accuracy  DOUBLE PRECISION NOT NULL DEFAULT 0,
    rollback_state     TEXT        NOT NULL,
    rollback_reason    TEXT        NOT NULL DEFAULT '',
    claimed_at         TIMESTAMPTZ,
    superseded_at      TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS model_activations_current
    ON model_activations (family) WHERE superseded_at IS NULL;`

type PostgresStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *containers.PostgresContainer
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container = containers.GetManager().GetPostgres(s.T())
	s.container.Exec(s.T(), activationSchema)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.container.Exec(s.T(), "TRUNCATE model_activations")
	s.store = NewPostgres(s.container.DB)
}

func (s *PostgresStoreSuite) record(version string) models.ActivationRecord {
	return models.ActivationRecord{
		ModelID:           domain.ModelID{Type: domain.ModelTypeFraud, Version: version},
		ActivatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		ValidationMetrics: models.ValidationMetrics{Accuracy: 0.82, Precision: 0.71},
		RollbackState:     models.RollbackScheduled,
	}
}

func (s *PostgresStoreSuite) TestBootstrapAndGet() {
	v1 := s.record("v1")
	s.Require().NoError(s.store.Activate(s.ctx, v1, domain.ModelID{}))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal(v1.ModelID, active.ModelID)
	s.Equal(models.RollbackScheduled, active.RollbackState)
	s.InDelta(0.82, active.ValidationMetrics.Accuracy, 1e-9)
}

func (s *PostgresStoreSuite) TestGetActiveMissingFamilyIsNotFound() {
	_, err := s.store.GetActive(s.ctx, "churn")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PostgresStoreSuite) TestReplacementKeepsHistory() {
	v1 := s.record("v1")
	s.Require().NoError(s.store.Activate(s.ctx, v1, domain.ModelID{}))

	v2 := s.record("v2")
	v2.PreviousModelID = v1.ModelID
	v2.PreviousAccuracy = 0.80
	s.Require().NoError(s.store.Activate(s.ctx, v2, v1.ModelID))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal("v2", active.ModelID.Version)
	s.Equal(v1.ModelID, active.PreviousModelID)

	var total int
	s.Require().NoError(s.container.DB.QueryRow(
		"SELECT COUNT(*) FROM model_activations WHERE family = 'fraud'").Scan(&total))
	s.Equal(2, total)
}

func (s *PostgresStoreSuite) TestStaleActivationLosesWithConflict() {
	v1 := s.record("v1")
	s.Require().NoError(s.store.Activate(s.ctx, v1, domain.ModelID{}))
	v2 := s.record("v2")
	s.Require().NoError(s.store.Activate(s.ctx, v2, v1.ModelID))

	v3 := s.record("v3")
	err := s.store.Activate(s.ctx, v3, v1.ModelID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal("v2", active.ModelID.Version)
}

func (s *PostgresStoreSuite) TestConcurrentBootstrapOnlyOneWins() {
	s.Require().NoError(s.store.Activate(s.ctx, s.record("v1"), domain.ModelID{}))

	err := s.store.Activate(s.ctx, s.record("v1b"), domain.ModelID{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *PostgresStoreSuite) TestTransitionRollbackIsGuarded() {
	s.Require().NoError(s.store.Activate(s.ctx, s.record("v1"), domain.ModelID{}))

	s.Require().NoError(s.store.TransitionRollback(s.ctx, "fraud",
		models.RollbackScheduled, models.RollbackEvaluating, ""))

	claimed, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.False(claimed.ClaimedAt.IsZero(), "claim must be stamped on the EVALUATING transition")

	err = s.store.TransitionRollback(s.ctx, "fraud",
		models.RollbackScheduled, models.RollbackEvaluating, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Require().NoError(s.store.TransitionRollback(s.ctx, "fraud",
		models.RollbackEvaluating, models.RolledBack, "accuracy dropped"))

	active, err := s.store.GetActive(s.ctx, "fraud")
	s.Require().NoError(err)
	s.Equal(models.RolledBack, active.RollbackState)
	s.Equal("accuracy dropped", active.RollbackReason)
}

func (s *PostgresStoreSuite) TestListActiveSpansFamilies() {
	s.Require().NoError(s.store.Activate(s.ctx, s.record("v1"), domain.ModelID{}))
	churn := models.ActivationRecord{
		ModelID:           domain.ModelID{Type: domain.ModelTypeChurn, Version: "v2"},
		ActivatedAt:       time.Now().UTC(),
		ValidationMetrics: models.ValidationMetrics{PRAUC: 0.74},
		RollbackState:     models.RollbackConfirmed,
	}
	s.Require().NoError(s.store.Activate(s.ctx, churn, domain.ModelID{}))

	records, err := s.store.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}
