package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/conformal/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store   *InMemoryStore
	modelID domain.ModelID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.modelID = domain.NewModelID(domain.ModelTypeFraud, "v1")
}

func (s *InMemoryStoreSuite) validSet(n int, ttl time.Duration) *models.CalibrationSet {
	preds := make([]float64, n)
	actuals := make([]int, n)
	for i := range preds {
		preds[i] = float64(i%10) / 10
		actuals[i] = i % 2
	}
	return &models.CalibrationSet{
		ModelID:     s.modelID,
		Predictions: preds,
		Actuals:     actuals,
		CapturedAt:  time.Now(),
		TTL:         ttl,
	}
}

func (s *InMemoryStoreSuite) TestPut() {
	ctx := context.Background()

	s.Run("nil set rejected", func() {
		err := s.store.Put(ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("mismatched lengths rejected", func() {
		set := s.validSet(40, time.Hour)
		set.Actuals = set.Actuals[:39]
		err := s.store.Put(ctx, set)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("undersized set rejected as insufficient data", func() {
		err := s.store.Put(ctx, s.validSet(29, time.Hour))
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientData))
	})

	s.Run("minimum size accepted", func() {
		s.NoError(s.store.Put(ctx, s.validSet(30, time.Hour)))
	})
}

func (s *InMemoryStoreSuite) TestGet() {
	ctx := context.Background()

	s.Run("missing key is not found", func() {
		_, err := s.store.Get(ctx, domain.NewModelID(domain.ModelTypeChurn, "v9"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("round trip", func() {
		set := s.validSet(50, time.Hour)
		s.Require().NoError(s.store.Put(ctx, set))

		got, err := s.store.Get(ctx, s.modelID)
		s.NoError(err)
		s.Equal(set.Predictions, got.Predictions)
		s.Equal(set.Actuals, got.Actuals)
	})

	s.Run("returned set is a copy", func() {
		set := s.validSet(50, time.Hour)
		s.Require().NoError(s.store.Put(ctx, set))

		got, err := s.store.Get(ctx, s.modelID)
		s.Require().NoError(err)
		got.Predictions[0] = 99

		again, err := s.store.Get(ctx, s.modelID)
		s.Require().NoError(err)
		s.NotEqual(99.0, again.Predictions[0])
	})

	s.Run("expired set is not found", func() {
		set := s.validSet(50, time.Nanosecond)
		s.Require().NoError(s.store.Put(ctx, set))
		time.Sleep(time.Millisecond)

		_, err := s.store.Get(ctx, s.modelID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InMemoryStoreSuite) TestOverwrite() {
	ctx := context.Background()

	first := s.validSet(50, time.Hour)
	s.Require().NoError(s.store.Put(ctx, first))

	second := s.validSet(60, time.Hour)
	s.Require().NoError(s.store.Put(ctx, second))

	got, err := s.store.Get(ctx, s.modelID)
	s.NoError(err)
	s.Equal(60, got.Size(), "writes overwrite the prior set, no merge")
}
