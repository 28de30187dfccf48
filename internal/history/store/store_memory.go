package store

import (
	"context"
	"sort"
	"sync"

	"modelguard/internal/history/models"
	"modelguard/pkg/domain"
)

// InMemoryLog is an in-memory prediction log. Used in tests and local
// development; production reads go through the Postgres reader against the
// table the inference service writes.
type InMemoryLog struct {
	mu      sync.RWMutex
	records []models.PredictionRecord
}

// NewInMemoryLog creates an empty in-memory prediction log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

// Add appends records to the log.
func (l *InMemoryLog) Add(records ...models.PredictionRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, records...)
}

// Query returns records for the model in the window, oldest first.
func (l *InMemoryLog) Query(_ context.Context, modelID domain.ModelID, window models.TimeRange, outcomeKnownOnly bool) ([]models.PredictionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.PredictionRecord
	for _, r := range l.records {
		if r.ModelID != modelID || !window.Contains(r.Timestamp) {
			continue
		}
		if outcomeKnownOnly && !r.HasOutcome() {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// InMemorySnapshots is an in-memory performance snapshot series.
type InMemorySnapshots struct {
	mu        sync.RWMutex
	snapshots []models.PerformanceSnapshot
}

// NewInMemorySnapshots creates an empty in-memory snapshot series.
func NewInMemorySnapshots() *InMemorySnapshots {
	return &InMemorySnapshots{}
}

// Add appends snapshots to the series.
func (s *InMemorySnapshots) Add(snapshots ...models.PerformanceSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshots...)
}

// Query returns snapshots for the model in the window, oldest first.
func (s *InMemorySnapshots) Query(_ context.Context, modelID domain.ModelID, window models.TimeRange) ([]models.PerformanceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PerformanceSnapshot
	for _, snap := range s.snapshots {
		if snap.ModelID != modelID || !window.Contains(snap.Date) {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
