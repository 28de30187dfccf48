// Package ports defines the persistence interface for activation records.
package ports

import (
	"context"

	"modelguard/internal/deploy/models"
	"modelguard/pkg/domain"
)

// ActivationStore persists the single active model per family and its
// rollback-check state. Implementations must make Activate and
// TransitionRollback atomic compare-and-swap operations: racing writers get
// a conflict, never a silent overwrite.
type ActivationStore interface {
	// GetActive returns the family's current activation record, or a
	// not-found error when the family was never bootstrapped.
	GetActive(ctx context.Context, family string) (*models.ActivationRecord, error)

	// Activate installs record as the family's active model if and only
	// if the current active identity equals expectedCurrent (nil identity
	// for bootstrap). On mismatch it returns a conflict error and changes
	// nothing. The superseded record is retained as history.
	Activate(ctx context.Context, record models.ActivationRecord, expectedCurrent domain.ModelID) error

	// TransitionRollback moves the active record's rollback state from
	// "from" to "to" atomically, recording reason when non-empty. Returns
	// a conflict error when the current state is not "from".
	TransitionRollback(ctx context.Context, family string, from, to models.RollbackState, reason string) error

	// ListActive returns the current activation record of every family.
	// The scheduler scans this for due or overdue rollback checks.
	ListActive(ctx context.Context) ([]models.ActivationRecord, error)
}
