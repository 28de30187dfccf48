package drift

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/drift/models"
	historymodels "modelguard/internal/history/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

type PerformanceDetectorSuite struct {
	suite.Suite
	detector *PerformanceDetector
	modelID  domain.ModelID
	now      time.Time
}

func TestPerformanceDetectorSuite(t *testing.T) {
	suite.Run(t, new(PerformanceDetectorSuite))
}

func (s *PerformanceDetectorSuite) SetupTest() {
	var err error
	s.detector, err = NewPerformanceDetector(PerformanceConfig{})
	s.Require().NoError(err)
	s.modelID = domain.NewModelID(domain.ModelTypeFraud, "v1")
	s.now = time.Now()
}

func (s *PerformanceDetectorSuite) snapshots(days int, accuracy, precision, recall float64) []historymodels.PerformanceSnapshot {
	out := make([]historymodels.PerformanceSnapshot, days)
	for i := range out {
		out[i] = historymodels.PerformanceSnapshot{
			ModelID:   s.modelID,
			Date:      s.now.AddDate(0, 0, -i),
			Accuracy:  accuracy,
			Precision: precision,
			Recall:    recall,
		}
	}
	return out
}

func (s *PerformanceDetectorSuite) TestConfig() {
	s.Run("zero config selects defaults", func() {
		d, err := NewPerformanceDetector(PerformanceConfig{})
		s.NoError(err)
		s.NotNil(d)
	})

	s.Run("inverted bands rejected at load", func() {
		_, err := NewPerformanceDetector(PerformanceConfig{DropCritical: 0.05, DropHigh: 0.10, DropMedium: 0.20})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func (s *PerformanceDetectorSuite) TestInsufficientData() {
	s.Run("fewer than five recent days is no signal", func() {
		report := s.detector.Detect(s.modelID, s.snapshots(4, 0.5, 0.5, 0.5), s.snapshots(10, 0.8, 0.8, 0.8), s.now)
		s.Nil(report)
	})

	s.Run("fewer than five baseline days is no signal", func() {
		report := s.detector.Detect(s.modelID, s.snapshots(10, 0.5, 0.5, 0.5), s.snapshots(4, 0.8, 0.8, 0.8), s.now)
		s.Nil(report)
	})
}

func (s *PerformanceDetectorSuite) TestSeverityLadder() {
	baseline := s.snapshots(7, 0.80, 0.80, 0.80)

	cases := []struct {
		recentAccuracy float64
		want           models.Severity
	}{
		{0.80, models.SeverityNone},
		{0.76, models.SeverityNone},   // drop 0.04 < 0.05
		{0.74, models.SeverityMedium}, // drop 0.06
		{0.69, models.SeverityHigh},   // drop 0.11
		{0.55, models.SeverityCritical},
	}
	for _, tc := range cases {
		recent := s.snapshots(7, tc.recentAccuracy, 0.80, 0.80)
		report := s.detector.Detect(s.modelID, recent, baseline, s.now)
		s.Require().NotNil(report)
		s.Equal(tc.want, report.Severity, "recent accuracy %v", tc.recentAccuracy)
	}
}

func (s *PerformanceDetectorSuite) TestAsymmetryInvariant() {
	// A large improvement must never be classified as drift.
	recent := s.snapshots(7, 0.95, 0.95, 0.95)
	baseline := s.snapshots(7, 0.65, 0.65, 0.65)

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.Equal(models.SeverityNone, report.Severity)
	s.False(report.Detected)
	s.InDelta(0.30, report.Deltas["accuracy"], 1e-9)
}

func (s *PerformanceDetectorSuite) TestWorstMetricNamed() {
	// Precision collapses while accuracy holds: the report must name
	// precision and grade on it.
	recent := s.snapshots(7, 0.80, 0.58, 0.80)
	baseline := s.snapshots(7, 0.80, 0.80, 0.80)

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.Equal("precision", report.Metric)
	s.InDelta(-0.22, report.Delta, 1e-9)
	s.Equal(models.SeverityCritical, report.Severity)
}

func (s *PerformanceDetectorSuite) TestReportEvidence() {
	recent := s.snapshots(5, 0.70, 0.70, 0.70)
	baseline := s.snapshots(6, 0.80, 0.80, 0.80)

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.Equal(models.DriftPerformance, report.Type)
	s.Equal(5, report.RecentSamples)
	s.Equal(6, report.BaselineSamples)
	s.InDelta(0.70, report.RecentMean, 1e-9)
	s.InDelta(0.80, report.BaselineMean, 1e-9)
	s.InDelta(-0.10, report.MeanShift, 1e-9)
	s.Len(report.Deltas, 3)
}
