package kafka_middleware

import (
	"context"
	"time"

	"roomsync/pkg/kafka"
	"roomsync/pkg/metrics"
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		metrics.KafkaDuration.WithLabelValues("publish").Observe(time.Since(start).Seconds())
		metrics.KafkaMessages.WithLabelValues("publish", msg.Topic, metrics.Result(err)).Inc()
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		metrics.KafkaDuration.WithLabelValues("consume").Observe(time.Since(start).Seconds())
		metrics.KafkaMessages.WithLabelValues("consume", msg.Topic, metrics.Result(err)).Inc()
		return err
	}
}
