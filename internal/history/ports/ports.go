// Package ports defines the collaborator interfaces through which the
// pipeline reads historical data. Implementations wrap whatever storage the
// external writers populate; every implementation injected here is expected
// to be timeout-guarded already.
package ports

import (
	"context"

	"modelguard/internal/history/models"
	"modelguard/pkg/domain"
)

// PredictionLogReader reads inference events for one model in a time window.
type PredictionLogReader interface {
	// Query returns records in the window, oldest first. With
	// outcomeKnownOnly set, records whose outcome has not been backfilled
	// are excluded.
	Query(ctx context.Context, modelID domain.ModelID, window models.TimeRange, outcomeKnownOnly bool) ([]models.PredictionRecord, error)
}

// SnapshotReader reads daily performance snapshots for one model.
type SnapshotReader interface {
	Query(ctx context.Context, modelID domain.ModelID, window models.TimeRange) ([]models.PerformanceSnapshot, error)
}
