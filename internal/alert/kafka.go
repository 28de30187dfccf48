package alert

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"modelguard/internal/drift/models"
)

// KafkaSink publishes drift alerts to a Kafka topic with fail-open semantics.
// A failed publish is logged and dropped; the detection pipeline never blocks
// on alert delivery.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// KafkaOption configures the KafkaSink.
type KafkaOption func(*KafkaSink)

// WithKafkaLogger sets a logger for delivery error reporting.
func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(s *KafkaSink) {
		s.logger = logger
	}
}

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string, opts ...KafkaOption) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, err
	}
	s := &KafkaSink{
		client: client,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// alertEnvelope is the wire format for a published alert.
type alertEnvelope struct {
	ModelID        string              `json:"model_id"`
	Type           models.DriftType    `json:"drift_type"`
	Severity       models.Severity     `json:"severity"`
	Recommendation string              `json:"recommendation"`
	Report         *models.DriftReport `json:"report"`
	PublishedAt    time.Time           `json:"published_at"`
}

// Publish serializes the alert and produces it asynchronously.
// Delivery failures are logged, never returned: alerting must not take the
// detection pipeline down with it.
func (s *KafkaSink) Publish(ctx context.Context, report *models.DriftReport, recommendation string) error {
	payload, err := json.Marshal(alertEnvelope{
		ModelID:        report.ModelID.Key(),
		Type:           report.Type,
		Severity:       report.Severity,
		Recommendation: recommendation,
		Report:         report,
		PublishedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(report.ModelID.Key()),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.ErrorContext(ctx, "drift alert publish failed",
				"model_id", report.ModelID.Key(),
				"severity", report.Severity,
				"error", err,
			)
		}
	})
	return nil
}

// Close flushes in-flight records and releases the producer.
func (s *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Flush(ctx); err != nil {
		s.logger.Error("kafka flush on close failed", "error", err)
	}
	s.client.Close()
	return nil
}
