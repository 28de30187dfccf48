// Package ports defines shared interfaces for the conformal module.
package ports

import (
	"context"

	"modelguard/internal/conformal/models"
	"modelguard/pkg/domain"
)

// CalibrationStore is the keyed cache of calibration sets, one per model
// identity. Writes replace the prior set for that key wholesale; readers must
// never observe a partially written set. Entries expire after their TTL.
type CalibrationStore interface {
	// Put validates and stores a calibration set, overwriting any prior set
	// for the same model identity.
	Put(ctx context.Context, set *models.CalibrationSet) error

	// Get retrieves the calibration set for a model identity. Returns a
	// CodeNotFound error when no live set exists.
	Get(ctx context.Context, modelID domain.ModelID) (*models.CalibrationSet, error)
}
