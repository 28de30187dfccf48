// Package jobs provides the in-flight job registry implementations and the
// logging training invoker used when no real training backend is wired.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"modelguard/internal/jobs/ports"
	"modelguard/pkg/domain"
)

// DefaultJobTTL bounds how long an in-flight mark survives without being
// cleared. A crashed training run must not block retraining forever.
const DefaultJobTTL = 24 * time.Hour

// InMemoryRegistry tracks in-flight jobs per model family in process memory.
type InMemoryRegistry struct {
	mu     sync.RWMutex
	active map[string]entry
	ttl    time.Duration
	now    func() time.Time
}

type entry struct {
	handle   ports.JobHandle
	markedAt time.Time
}

// RegistryOption configures the InMemoryRegistry.
type RegistryOption func(*InMemoryRegistry)

// WithJobTTL overrides the in-flight mark expiry.
func WithJobTTL(ttl time.Duration) RegistryOption {
	return func(r *InMemoryRegistry) {
		r.ttl = ttl
	}
}

// WithRegistryClock overrides the time source. Tests only.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *InMemoryRegistry) {
		r.now = now
	}
}

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry(opts ...RegistryOption) *InMemoryRegistry {
	r := &InMemoryRegistry{
		active: make(map[string]entry),
		ttl:    DefaultJobTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasActiveJob reports whether an unexpired mark exists for the family.
func (r *InMemoryRegistry) HasActiveJob(_ context.Context, modelID domain.ModelID) (bool, error) {
	r.mu.RLock()
	e, ok := r.active[modelID.Family()]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if r.now().Sub(e.markedAt) > r.ttl {
		r.mu.Lock()
		delete(r.active, modelID.Family())
		r.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Register marks the family as having a job in flight.
func (r *InMemoryRegistry) Register(_ context.Context, handle ports.JobHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[handle.ModelID.Family()] = entry{handle: handle, markedAt: r.now()}
	return nil
}

// Clear removes the in-flight mark for the family.
func (r *InMemoryRegistry) Clear(_ context.Context, modelID domain.ModelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, modelID.Family())
	return nil
}

// LoggingInvoker records submissions to the log instead of a real training
// backend. The default invoker until one is wired.
type LoggingInvoker struct {
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	submitted []ports.JobHandle
}

// NewLoggingInvoker creates an invoker that only logs.
func NewLoggingInvoker(logger *slog.Logger) *LoggingInvoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInvoker{logger: logger, now: time.Now}
}

// SubmitTraining logs the request and returns a correlation handle.
func (i *LoggingInvoker) SubmitTraining(ctx context.Context, modelID domain.ModelID, reason string) (ports.JobHandle, error) {
	handle := ports.JobHandle{
		JobID:       uuid.New(),
		ModelID:     modelID,
		Reason:      reason,
		SubmittedAt: i.now().UTC(),
	}
	i.mu.Lock()
	i.submitted = append(i.submitted, handle)
	i.mu.Unlock()

	i.logger.InfoContext(ctx, "training job submitted",
		"job_id", handle.JobID,
		"model_id", modelID.Key(),
		"reason", reason,
	)
	return handle, nil
}

// Submitted returns a copy of every handle issued so far.
func (i *LoggingInvoker) Submitted() []ports.JobHandle {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]ports.JobHandle, len(i.submitted))
	copy(out, i.submitted)
	return out
}
