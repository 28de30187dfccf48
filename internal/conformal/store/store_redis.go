package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"modelguard/internal/conformal/models"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

const calibrationKeyPrefix = "calib:"

// RedisStore is a Redis-backed calibration store. This is the recommended
// implementation for distributed deployments: the refresh job and predictor
// instances on different workers share one view of each model's set.
//
// Each set is stored as a single JSON blob under one key via SET with TTL, so
// a write is atomic and last-write-wins; readers see either the old set or
// the new one, never a mixture.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisLogger sets a logger for soft-warning emission.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		s.logger = logger
	}
}

// NewRedis constructs a Redis-backed calibration store.
func NewRedis(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Put validates and stores a calibration set with its TTL as the key expiry.
func (s *RedisStore) Put(ctx context.Context, set *models.CalibrationSet) error {
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

	payload, err := json.Marshal(set)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal calibration set")
	}

	key := calibrationKeyPrefix + set.ModelID.Key()
	if err := s.client.Set(ctx, key, payload, set.TTL).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store calibration set")
	}
	return nil
}

// Get retrieves the live calibration set for a model identity. Expiry is
// delegated to Redis key TTL.
func (s *RedisStore) Get(ctx context.Context, modelID domain.ModelID) (*models.CalibrationSet, error) {
	key := calibrationKeyPrefix + modelID.Key()
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "no calibration set for %s", modelID.Key())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "fetch calibration set")
	}

	var set models.CalibrationSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "unmarshal calibration set")
	}
	return &set, nil
}
