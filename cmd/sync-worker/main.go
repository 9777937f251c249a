package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"staylock/internal/events"
	reservationrepo "staylock/internal/reservations/repository"
	reservationservice "staylock/internal/reservations/service"
	"staylock/internal/syncworker"
	"staylock/pkg/clock"
	"staylock/pkg/config"
	"staylock/pkg/kafka"
	kafka_config "staylock/pkg/kafka/config"
	kafka_middleware "staylock/pkg/kafka/middleware"
	"staylock/pkg/pynbooking"
)

const ServiceName = "sync-worker"

func main() {
	cfg := config.Load(ServiceName)
	if !cfg.KafkaEnabled {
		cfg.Log.Fatal("The sync worker needs KAFKA_ENABLED=true")
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	defer producer.Close()

	reservations := reservationservice.NewReservationService(
		reservationrepo.NewMongoReservationRepository(cfg),
		pynbooking.NewClientFromConfig(cfg),
		events.NewKafkaPublisher(producer),
		clock.NewRealClock(),
		cfg.Log,
	)

	handler := syncworker.NewHandlerFromConfig(reservations, cfg)
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReservationEventsTopic,
		cfg.SyncWorkerGroupID,
		cfg.ReservationEventsDLQTopic,
		handler.Handle,
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	counters := &kafka_middleware.Counters{}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}
	consumer.Use(counters.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Sync worker started",
		"topic", cfg.ReservationEventsTopic,
		"group_id", cfg.SyncWorkerGroupID,
		"max_attempts", cfg.SyncMaxAutoAttempts,
	)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Sync worker stopped", "stats", counters.Snapshot())
}
