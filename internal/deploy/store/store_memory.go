// Package store provides the activation record stores. The in-memory store
// backs tests and single-process deployments; the Postgres store is the
// production source of truth for restart-surviving rollback checks.
package store

import (
	"context"
	"sync"
	"time"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

// InMemoryStore keeps the current activation per family plus superseded
// history in process memory. All mutations are compare-and-swap under one
// lock, so two racing activations cannot both win.
type InMemoryStore struct {
	mu      sync.RWMutex
	active  map[string]models.ActivationRecord
	history map[string][]models.ActivationRecord
	now     func() time.Time
}

// InMemoryStoreOption configures an InMemoryStore.
type InMemoryStoreOption func(*InMemoryStore)

// WithStoreClock overrides the time source used for claim stamps. Tests only.
func WithStoreClock(now func() time.Time) InMemoryStoreOption {
	return func(s *InMemoryStore) {
		s.now = now
	}
}

// NewInMemory creates an empty activation store.
func NewInMemory(opts ...InMemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		active:  make(map[string]models.ActivationRecord),
		history: make(map[string][]models.ActivationRecord),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetActive returns the family's current activation record.
func (s *InMemoryStore) GetActive(_ context.Context, family string) (*models.ActivationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.active[family]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no active model for family %q", family)
	}
	out := record
	return &out, nil
}

// Activate installs record if the current active identity matches
// expectedCurrent. The displaced record moves to history.
func (s *InMemoryStore) Activate(_ context.Context, record models.ActivationRecord, expectedCurrent domain.ModelID) error {
	family := record.ModelID.Family()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.active[family]
	switch {
	case !exists:
		if !expectedCurrent.IsNil() {
			return dErrors.Newf(dErrors.CodeConflict,
				"activation expected %s active but family %q is not bootstrapped",
				expectedCurrent.Key(), family)
		}
	case current.ModelID != expectedCurrent:
		return dErrors.Newf(dErrors.CodeConflict,
			"activation expected %s active but found %s",
			expectedCurrent.Key(), current.ModelID.Key())
	default:
		s.history[family] = append(s.history[family], current)
	}

	s.active[family] = record
	return nil
}

// TransitionRollback moves the family's rollback state from "from" to "to".
func (s *InMemoryStore) TransitionRollback(_ context.Context, family string, from, to models.RollbackState, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.active[family]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "no active model for family %q", family)
	}
	if record.RollbackState != from {
		return dErrors.Newf(dErrors.CodeConflict,
			"rollback state for %q is %s, expected %s", family, record.RollbackState, from)
	}
	record.RollbackState = to
	if to == models.RollbackEvaluating {
		record.ClaimedAt = s.now()
	}
	if reason != "" {
		record.RollbackReason = reason
	}
	s.active[family] = record
	return nil
}

// ListActive returns every family's current activation record.
func (s *InMemoryStore) ListActive(_ context.Context) ([]models.ActivationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActivationRecord, 0, len(s.active))
	for _, record := range s.active {
		out = append(out, record)
	}
	return out, nil
}

// History returns the superseded records for a family, oldest first. Tests
// and audit inspection; not part of the store port.
func (s *InMemoryStore) History(family string) []models.ActivationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ActivationRecord, len(s.history[family]))
	copy(out, s.history[family])
	return out
}
