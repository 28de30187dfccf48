// Package ports defines the training-job collaborator interfaces: the
// registry that tracks in-flight jobs and the invoker that hands work to the
// external training system.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"modelguard/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks JobRegistry,TrainingInvoker

// JobHandle identifies a submitted training job for later correlation.
type JobHandle struct {
	JobID       uuid.UUID      `json:"job_id"`
	ModelID     domain.ModelID `json:"model_id"`
	Reason      string         `json:"reason"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// JobRegistry tracks whether a training or validation job is in flight for a
// model family. Used by the safeguard to avoid concurrent duplicate work.
type JobRegistry interface {
	// HasActiveJob reports whether any job is in flight for the model's
	// family. Errors are surfaced, not swallowed: the safeguard treats a
	// registry failure as a blocking condition.
	HasActiveJob(ctx context.Context, modelID domain.ModelID) (bool, error)
	// Register marks a job as in flight for the model's family.
	Register(ctx context.Context, handle JobHandle) error
	// Clear removes the in-flight mark for the model's family.
	Clear(ctx context.Context, modelID domain.ModelID) error
}

// TrainingInvoker submits retraining work to the external training system.
// Submission is asynchronous; the handle is for correlation only.
type TrainingInvoker interface {
	SubmitTraining(ctx context.Context, modelID domain.ModelID, reason string) (JobHandle, error)
}
