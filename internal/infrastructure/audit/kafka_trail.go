package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/studioconnect/relay/internal/config"
	"github.com/studioconnect/relay/pkg/logger"
)

// KafkaTrail publishes audit events to a Kafka topic.
type KafkaTrail struct {
	writer *kafka.Writer
	log    logger.Logger
}

// NewKafkaTrail creates a Kafka-backed audit trail.
func NewKafkaTrail(cfg *config.AuditConfig, log logger.Logger) *KafkaTrail {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: time.Duration(cfg.BatchTimeout) * time.Millisecond,
	}
	return &KafkaTrail{
		writer: writer,
		log:    log.WithComponent("audit"),
	}
}

// Record implements Trail. Write failures are logged and dropped.
func (t *KafkaTrail) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.log.Error(ctx, "failed to marshal audit event", err)
		return
	}

	if err := t.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		t.log.Error(ctx, "failed to publish audit event", err, logger.Fields{
			"action":   event.Action,
			"provider": event.Provider,
		})
	}
}

// Close flushes and closes the underlying writer.
func (t *KafkaTrail) Close() error {
	return t.writer.Close()
}
