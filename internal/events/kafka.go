package events

import (
	"context"
	"time"

	"roomsync/pkg/kafka"
	"roomsync/pkg/logger"
)

const (
	source        = "roomsync"
	schemaVersion = "1"
)

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	msg, err := kafka.NewMessage().
		WithKey(event.Key).
		WithValue(event.Payload).
		WithEventType(event.Type).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		p.log.Error("Failed to build event message", "event_type", event.Type, "key", event.Key, "error", err)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", event.Type,
			"key", event.Key,
			"topic", p.producer.Topic(),
			"error", err,
		)
	}
}
