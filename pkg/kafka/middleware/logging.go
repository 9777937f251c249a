package kafka_middleware

import (
	"context"
	"time"

	"staylock/pkg/kafka"
	"staylock/pkg/logger"
)

func messageAttrs(msg kafka.Message) []any {
	return []any{
		"topic", msg.Topic,
		"key", msg.Key,
		"event_id", msg.GetEventID(),
		"event_type", msg.GetEventType(),
	}
}

func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := append(messageAttrs(msg), "duration", time.Since(start))
		if err != nil {
			log.Error("Failed to publish message", append(attrs, "error", err)...)
			return err
		}
		log.Debug("Published message", attrs...)
		return nil
	}
}

func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		log.Debug("Processing message", append(messageAttrs(msg), "partition", msg.Partition, "offset", msg.Offset)...)

		err := next(ctx, msg)

		attrs := append(messageAttrs(msg),
			"partition", msg.Partition,
			"offset", msg.Offset,
			"retry_count", msg.GetRetryCount(),
			"duration", time.Since(start),
		)
		if err != nil {
			log.Warn("Failed to process message", append(attrs, "error", err)...)
			return err
		}
		log.Info("Processed message", attrs...)
		return nil
	}
}
