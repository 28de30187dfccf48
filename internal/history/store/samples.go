package store

import (
	"context"
	"time"

	"modelguard/internal/history/models"
	"modelguard/internal/history/ports"
	"modelguard/pkg/domain"
)

// SampleCounter counts outcome-resolved records accumulated since a point in
// time. Serves the safeguard's new-data condition.
type SampleCounter struct {
	log ports.PredictionLogReader
	now func() time.Time
}

// NewSampleCounter wraps a prediction log reader.
func NewSampleCounter(log ports.PredictionLogReader) *SampleCounter {
	return &SampleCounter{log: log, now: time.Now}
}

// NewSamplesSince returns how many outcome-resolved records exist for the
// model in [since, now). A zero since counts everything on record.
func (c *SampleCounter) NewSamplesSince(ctx context.Context, modelID domain.ModelID, since time.Time) (int, error) {
	window := models.TimeRange{From: since, To: c.now()}
	records, err := c.log.Query(ctx, modelID, window, true)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
