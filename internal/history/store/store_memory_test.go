package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/history/models"
	"modelguard/pkg/domain"
)

type InMemoryHistorySuite struct {
	suite.Suite
	log     *InMemoryLog
	snaps   *InMemorySnapshots
	modelID domain.ModelID
	now     time.Time
}

func TestInMemoryHistorySuite(t *testing.T) {
	suite.Run(t, new(InMemoryHistorySuite))
}

func (s *InMemoryHistorySuite) SetupTest() {
	s.log = NewInMemoryLog()
	s.snaps = NewInMemorySnapshots()
	s.modelID = domain.NewModelID(domain.ModelTypeFraud, "v1")
	s.now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryHistorySuite) TestLogQuery() {
	ctx := context.Background()
	outcome := 1

	s.log.Add(
		models.PredictionRecord{ModelID: s.modelID, PointEstimate: 0.8, Timestamp: s.now.Add(-2 * time.Hour), ActualOutcome: &outcome},
		models.PredictionRecord{ModelID: s.modelID, PointEstimate: 0.3, Timestamp: s.now.Add(-1 * time.Hour)},
		models.PredictionRecord{ModelID: s.modelID, PointEstimate: 0.6, Timestamp: s.now.Add(-50 * time.Hour), ActualOutcome: &outcome},
		models.PredictionRecord{ModelID: domain.NewModelID(domain.ModelTypeChurn, "v1"), PointEstimate: 0.5, Timestamp: s.now.Add(-1 * time.Hour), ActualOutcome: &outcome},
	)

	window := models.TimeRange{From: s.now.Add(-24 * time.Hour), To: s.now}

	s.Run("filters by model and window", func() {
		records, err := s.log.Query(ctx, s.modelID, window, false)
		s.NoError(err)
		s.Len(records, 2)
	})

	s.Run("outcome known only excludes unresolved", func() {
		records, err := s.log.Query(ctx, s.modelID, window, true)
		s.NoError(err)
		s.Len(records, 1)
		s.InDelta(0.8, records[0].PointEstimate, 1e-12)
	})

	s.Run("oldest first ordering", func() {
		records, err := s.log.Query(ctx, s.modelID, window, false)
		s.Require().NoError(err)
		s.True(records[0].Timestamp.Before(records[1].Timestamp))
	})
}

func (s *InMemoryHistorySuite) TestSnapshotQuery() {
	ctx := context.Background()

	for day := 1; day <= 10; day++ {
		s.snaps.Add(models.PerformanceSnapshot{
			ModelID:  s.modelID,
			Date:     time.Date(2026, 7, day, 0, 0, 0, 0, time.UTC),
			Accuracy: 0.8,
		})
	}

	window := models.TimeRange{
		From: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC),
	}
	snaps, err := s.snaps.Query(ctx, s.modelID, window)
	s.NoError(err)
	s.Len(snaps, 5, "half-open window: day 3 through day 7")
}

func (s *InMemoryHistorySuite) TestRealizedAccuracy() {
	one, zero := 1, 0

	s.Run("no resolved outcomes is no signal", func() {
		acc, n := models.RealizedAccuracy([]models.PredictionRecord{{PointEstimate: 0.9}})
		s.Zero(acc)
		s.Zero(n)
	})

	s.Run("thresholded accuracy", func() {
		records := []models.PredictionRecord{
			{PointEstimate: 0.9, ActualOutcome: &one},  // correct
			{PointEstimate: 0.2, ActualOutcome: &zero}, // correct
			{PointEstimate: 0.8, ActualOutcome: &zero}, // wrong
			{PointEstimate: 0.4, ActualOutcome: &one},  // wrong
		}
		acc, n := models.RealizedAccuracy(records)
		s.Equal(4, n)
		s.InDelta(0.5, acc, 1e-12)
	})
}
