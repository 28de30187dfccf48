package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	driftmodels "modelguard/internal/drift/models"
	"modelguard/internal/retrain"
	"modelguard/pkg/domain"
)

// =============================================================================
// Scheduler Tests
// =============================================================================

type fakeRefresher struct {
	mu     sync.Mutex
	calls  []domain.ModelID
	failOn map[string]error
}

func (f *fakeRefresher) Refresh(_ context.Context, modelID domain.ModelID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelID)
	if f.failOn != nil {
		return f.failOn[modelID.Key()]
	}
	return nil
}

type fakeDrift struct {
	mu      sync.Mutex
	calls   []domain.ModelID
	reports map[string][]*driftmodels.DriftReport
	failOn  map[string]error
}

func (f *fakeDrift) Run(_ context.Context, modelID domain.ModelID) ([]*driftmodels.DriftReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelID)
	if f.failOn != nil {
		if err := f.failOn[modelID.Key()]; err != nil {
			return nil, err
		}
	}
	return f.reports[modelID.Key()], nil
}

type fakeEvaluator struct {
	mu    sync.Mutex
	seen  []*driftmodels.DriftReport
	grant bool
}

func (f *fakeEvaluator) Evaluate(_ context.Context, report *driftmodels.DriftReport) (retrain.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, report)
	return retrain.Decision{ModelID: report.ModelID, ShouldTrigger: f.grant}, nil
}

type fakeRollback struct {
	mu   sync.Mutex
	runs int
	fail error
}

func (f *fakeRollback) RunDueChecks(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs++
	return f.fail
}

type SchedulerSuite struct {
	suite.Suite
	ctx       context.Context
	refresher *fakeRefresher
	drift     *fakeDrift
	evaluator *fakeEvaluator
	rollback  *fakeRollback
	fraud     domain.ModelID
	churn     domain.ModelID
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.ctx = context.Background()
	s.refresher = &fakeRefresher{}
	s.drift = &fakeDrift{reports: map[string][]*driftmodels.DriftReport{}}
	s.evaluator = &fakeEvaluator{}
	s.rollback = &fakeRollback{}
	s.fraud = domain.ModelID{Type: domain.ModelTypeFraud, Version: "v3"}
	s.churn = domain.ModelID{Type: domain.ModelTypeChurn, Version: "v1"}
}

func (s *SchedulerSuite) newScheduler(models ...domain.ModelID) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched, err := New(models, s.refresher, s.drift, s.evaluator, s.rollback, WithLogger(logger))
	s.Require().NoError(err)
	return sched
}

func (s *SchedulerSuite) TestNewRequiresModelsAndStages() {
	_, err := New(nil, s.refresher, s.drift, s.evaluator, s.rollback)
	s.Error(err)
	_, err = New([]domain.ModelID{s.fraud}, nil, s.drift, s.evaluator, s.rollback)
	s.Error(err)
}

func (s *SchedulerSuite) TestPassVisitsEveryModel() {
	s.newScheduler(s.fraud, s.churn).Pass(s.ctx)

	s.ElementsMatch([]domain.ModelID{s.fraud, s.churn}, s.refresher.calls)
	s.ElementsMatch([]domain.ModelID{s.fraud, s.churn}, s.drift.calls)
	s.Equal(1, s.rollback.runs)
}

func (s *SchedulerSuite) TestOnlyDetectedReportsReachTheSafeguard() {
	s.drift.reports[s.fraud.Key()] = []*driftmodels.DriftReport{
		{ModelID: s.fraud, Type: driftmodels.DriftStatistical, Detected: true, Severity: driftmodels.SeverityHigh},
		{ModelID: s.fraud, Type: driftmodels.DriftPerformance, Detected: false, Severity: driftmodels.SeverityNone},
	}

	s.newScheduler(s.fraud).Pass(s.ctx)

	s.Require().Len(s.evaluator.seen, 1)
	s.Equal(driftmodels.DriftStatistical, s.evaluator.seen[0].Type)
}

func (s *SchedulerSuite) TestOneModelFailureDoesNotBlockOthers() {
	s.drift.failOn = map[string]error{s.fraud.Key(): errors.New("log unavailable")}
	s.drift.reports[s.churn.Key()] = []*driftmodels.DriftReport{
		{ModelID: s.churn, Detected: true, Severity: driftmodels.SeverityCritical},
	}

	s.newScheduler(s.fraud, s.churn).Pass(s.ctx)

	s.Require().Len(s.evaluator.seen, 1)
	s.Equal(s.churn, s.evaluator.seen[0].ModelID)
	s.Equal(1, s.rollback.runs)
}

func (s *SchedulerSuite) TestRefreshFailureStillRunsDetection() {
	s.refresher.failOn = map[string]error{s.fraud.Key(): errors.New("store down")}

	s.newScheduler(s.fraud).Pass(s.ctx)

	s.Len(s.drift.calls, 1)
}

func (s *SchedulerSuite) TestRollbackSweepRunsEvenWhenAllModelsFail() {
	s.drift.failOn = map[string]error{s.fraud.Key(): errors.New("down")}
	s.rollback.fail = errors.New("previous model unrecoverable")

	s.newScheduler(s.fraud).Pass(s.ctx)

	s.Equal(1, s.rollback.runs)
}
