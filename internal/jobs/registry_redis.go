package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"modelguard/internal/jobs/ports"
	"modelguard/pkg/domain"
	dErrors "modelguard/pkg/domain-errors"
)

const jobKeyPrefix = "job:active:"

// RedisRegistry tracks in-flight jobs per model family in Redis, so the
// mark survives process restarts and is shared across instances. Keys carry
// a TTL as a backstop against crashed training runs.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a registry over the given client.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

func jobKey(modelID domain.ModelID) string {
	return jobKeyPrefix + modelID.Family()
}

// HasActiveJob reports whether an in-flight mark exists for the family.
func (r *RedisRegistry) HasActiveJob(ctx context.Context, modelID domain.ModelID) (bool, error) {
	n, err := r.client.Exists(ctx, jobKey(modelID)).Result()
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "check active job")
	}
	return n > 0, nil
}

// Register marks the family as having a job in flight. SETNX: the first
// mark wins, a second concurrent registration is a conflict.
func (r *RedisRegistry) Register(ctx context.Context, handle ports.JobHandle) error {
	payload, err := json.Marshal(handle)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal job handle")
	}
	ok, err := r.client.SetNX(ctx, jobKey(handle.ModelID), payload, r.ttl).Result()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "register job")
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeConflict,
			"a job is already in flight for %s", handle.ModelID.Family())
	}
	return nil
}

// Clear removes the in-flight mark for the family.
func (r *RedisRegistry) Clear(ctx context.Context, modelID domain.ModelID) error {
	if err := r.client.Del(ctx, jobKey(modelID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "clear job")
	}
	return nil
}
