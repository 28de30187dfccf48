package drift

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"modelguard/internal/drift/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

type StatisticalDetectorSuite struct {
	suite.Suite
	detector *StatisticalDetector
	modelID  domain.ModelID
	now      time.Time
}

func TestStatisticalDetectorSuite(t *testing.T) {
	suite.Run(t, new(StatisticalDetectorSuite))
}

func (s *StatisticalDetectorSuite) SetupTest() {
	var err error
	s.detector, err = NewStatisticalDetector(StatisticalConfig{})
	s.Require().NoError(err)
	s.modelID = domain.NewModelID(domain.ModelTypeFraud, "v1")
	s.now = time.Now()
}

func uniformAround(mean float64, n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean - 0.05 + rng.Float64()*0.1
	}
	return out
}

func (s *StatisticalDetectorSuite) TestConfig() {
	s.Run("zero config selects defaults", func() {
		d, err := NewStatisticalDetector(StatisticalConfig{})
		s.NoError(err)
		s.NotNil(d)
	})

	s.Run("inverted bands rejected at load", func() {
		_, err := NewStatisticalDetector(StatisticalConfig{PCritical: 0.05, PHigh: 0.01, PMedium: 0.001})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func (s *StatisticalDetectorSuite) TestInsufficientData() {
	s.Run("small recent window is no signal", func() {
		report := s.detector.Detect(s.modelID, uniformAround(0.5, 29, 1), uniformAround(0.5, 100, 2), s.now)
		s.Nil(report)
	})

	s.Run("small baseline window is no signal", func() {
		report := s.detector.Detect(s.modelID, uniformAround(0.5, 100, 1), uniformAround(0.5, 29, 2), s.now)
		s.Nil(report)
	})
}

func (s *StatisticalDetectorSuite) TestNoDrift() {
	recent := uniformAround(0.5, 100, 3)
	baseline := uniformAround(0.5, 100, 4)

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.Equal(models.SeverityNone, report.Severity)
	s.False(report.Detected)
	s.Equal(100, report.RecentSamples)
	s.Equal(100, report.BaselineSamples)
}

func (s *StatisticalDetectorSuite) TestZeroVarianceWindows() {
	// A degenerate model emitting the same estimate in both windows has not
	// drifted, whatever the window sizes. Recovered as no signal locally.
	recent := make([]float64, 50)
	baseline := make([]float64, 80)
	for i := range recent {
		recent[i] = 0.5
	}
	for i := range baseline {
		baseline[i] = 0.5
	}

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.False(report.Detected)
	s.Equal(models.SeverityNone, report.Severity)
	s.Zero(report.Statistic)
}

func (s *StatisticalDetectorSuite) TestShiftedDistribution() {
	// Recent mean 0.7 vs baseline mean 0.3 over 50 samples each: must be
	// detected with severity at least HIGH.
	recent := uniformAround(0.7, 50, 5)
	baseline := uniformAround(0.3, 50, 6)

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.True(report.Detected)
	s.True(report.Severity.AtLeast(models.SeverityHigh),
		"severity %s for mean shift 0.4", report.Severity)
	s.InDelta(0.4, report.MeanShift, 0.05)
	s.Greater(report.Statistic, 0.9)
}

func (s *StatisticalDetectorSuite) TestSeverityLadder() {
	cases := []struct {
		pValue float64
		want   models.Severity
	}{
		{0.0005, models.SeverityCritical},
		{0.001, models.SeverityHigh}, // boundary is exclusive
		{0.005, models.SeverityHigh},
		{0.01, models.SeverityMedium},
		{0.03, models.SeverityMedium},
		{0.05, models.SeverityNone},
		{0.5, models.SeverityNone},
	}
	for _, tc := range cases {
		s.Equal(tc.want, s.detector.grade(tc.pValue), "p=%v", tc.pValue)
	}
}

func (s *StatisticalDetectorSuite) TestReportEvidence() {
	recent := uniformAround(0.6, 60, 7)
	baseline := uniformAround(0.4, 80, 8)

	report := s.detector.Detect(s.modelID, recent, baseline, s.now)
	s.Require().NotNil(report)
	s.Equal(models.DriftStatistical, report.Type)
	s.Equal(s.modelID, report.ModelID)
	s.Equal(60, report.RecentSamples)
	s.Equal(80, report.BaselineSamples)
	s.InDelta(0.6, report.RecentMean, 0.05)
	s.InDelta(0.4, report.BaselineMean, 0.05)
	s.Equal(s.now, report.Timestamp)
	s.GreaterOrEqual(report.PValue, 0.0)
	s.LessOrEqual(report.PValue, 1.0)
}
