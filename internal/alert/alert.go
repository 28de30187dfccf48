// Package alert builds drift alert payloads and defines the sink through
// which they leave the pipeline. Delivery (chat, email, dashboards) is an
// external concern; this core only publishes.
package alert

import (
	"context"
	"fmt"
	"sync"

	"modelguard/internal/drift/models"
)

// Sink publishes a drift report with an operator-facing recommendation.
// Implementations must not block the detection path on delivery.
type Sink interface {
	Publish(ctx context.Context, report *models.DriftReport, recommendation string) error
}

// RecommendationFor renders the operator guidance attached to a report.
func RecommendationFor(report *models.DriftReport) string {
	switch report.Severity {
	case models.SeverityCritical:
		return fmt.Sprintf("CRITICAL %s drift on %s: immediate review required; auto-retrain eligible",
			report.Type, report.ModelID.Key())
	case models.SeverityHigh:
		return fmt.Sprintf("HIGH %s drift on %s: auto-retrain eligible; review recent data sources",
			report.Type, report.ModelID.Key())
	case models.SeverityMedium:
		return fmt.Sprintf("MEDIUM %s drift on %s: monitoring only, no automatic action",
			report.Type, report.ModelID.Key())
	default:
		return fmt.Sprintf("no significant %s drift on %s", report.Type, report.ModelID.Key())
	}
}

// InMemorySink collects published alerts. Used in tests and as the default
// when no Kafka brokers are configured.
type InMemorySink struct {
	mu        sync.Mutex
	published []PublishedAlert
}

// PublishedAlert is one captured publication.
type PublishedAlert struct {
	Report         *models.DriftReport
	Recommendation string
}

// NewInMemorySink creates an empty in-memory sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

// Publish records the alert.
func (s *InMemorySink) Publish(_ context.Context, report *models.DriftReport, recommendation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, PublishedAlert{Report: report, Recommendation: recommendation})
	return nil
}

// Published returns a copy of everything published so far.
func (s *InMemorySink) Published() []PublishedAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PublishedAlert, len(s.published))
	copy(out, s.published)
	return out
}
