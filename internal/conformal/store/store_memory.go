package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"modelguard/internal/conformal/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

type cachedSet struct {
	set      models.CalibrationSet
	storedAt time.Time
}

// InMemoryStore caches calibration sets per model identity with TTL
// expiration. Suitable for single-process deployments and tests; distributed
// deployments should use the Redis store so refresh jobs and predictors on
// different workers see the same sets.
type InMemoryStore struct {
	mu     sync.RWMutex
	sets   map[string]cachedSet
	logger *slog.Logger
}

// InMemoryOption configures an InMemoryStore.
type InMemoryOption func(*InMemoryStore)

// WithLogger sets a logger for soft-warning emission.
func WithLogger(logger *slog.Logger) InMemoryOption {
	return func(s *InMemoryStore) {
		s.logger = logger
	}
}

// NewInMemory creates an empty in-memory calibration store.
func NewInMemory(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{sets: make(map[string]cachedSet)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put validates and stores a calibration set, replacing any prior set for the
// same model identity. The value is copied under the lock so a reader can
// never observe a half-written set.
func (s *InMemoryStore) Put(ctx context.Context, set *models.CalibrationSet) error {
	if set == nil {
		return dErrors.New(dErrors.CodeValidation, "calibration set is required")
	}
	if err := set.Validate(); err != nil {
		return err
	}
	if set.Size() < models.RecommendedCalibrationSize && s.logger != nil {
		s.logger.WarnContext(ctx, "calibration set below recommended size",
			"model_id", set.ModelID.Key(),
			"size", set.Size(),
			"recommended", models.RecommendedCalibrationSize,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.ModelID.Key()] = cachedSet{set: *set, storedAt: time.Now()}
	return nil
}

// Get retrieves the live calibration set for a model identity.
func (s *InMemoryStore) Get(_ context.Context, modelID domain.ModelID) (*models.CalibrationSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cached, ok := s.sets[modelID.Key()]; ok {
		if time.Since(cached.storedAt) < cached.set.TTL {
			set := cached.set
			return &set, nil
		}
	}
	return nil, dErrors.Newf(dErrors.CodeNotFound, "no calibration set for %s", modelID.Key())
}
