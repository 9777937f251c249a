package main

import (
	apartmentrepo "staylock/internal/apartments/repository"
	bookinghandler "staylock/internal/bookings/handler"
	bookingservice "staylock/internal/bookings/service"
	bookingvalidator "staylock/internal/bookings/validator"
	"staylock/internal/events"
	reservationhandler "staylock/internal/reservations/handler"
	reservationrepo "staylock/internal/reservations/repository"
	reservationservice "staylock/internal/reservations/service"
	lockhandler "staylock/internal/roomlocks/handler"
	lockrepo "staylock/internal/roomlocks/repository"
	lockservice "staylock/internal/roomlocks/service"
	webhookhandler "staylock/internal/webhooks/handler"
	webhookservice "staylock/internal/webhooks/service"
	"staylock/pkg/app"
	"staylock/pkg/clock"
	"staylock/pkg/config"
	"staylock/pkg/kafka"
	kafka_config "staylock/pkg/kafka/config"
	kafka_middleware "staylock/pkg/kafka/middleware"
	"staylock/pkg/payments"
	"staylock/pkg/pynbooking"
)

const ServiceName = "reservations"

type services struct {
	locks        lockservice.LockService
	bookings     bookingservice.BookingService
	reservations reservationservice.ReservationService
	webhooks     webhookservice.WebhookService
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	svc := initServices(cfg, publisher)

	sweeper := lockservice.NewSweeper(svc.locks, cfg.LockSweepInterval, cfg.Log)
	sweeper.Start()
	serverApp.OnShutdown(sweeper.Stop)

	serverApp.SetApp(
		bookinghandler.NewBookingHandler(svc.bookings, cfg.Log),
		reservationhandler.NewReservationHandler(svc.reservations, cfg.Log),
		lockhandler.NewRoomLockHandler(svc.locks, cfg.Log),
	)
	serverApp.SetWebhook(webhookhandler.WebhookPath, webhookhandler.NewWebhookHandler(svc.webhooks, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) services {
	clk := clock.NewRealClock()

	ledger := pynbooking.NewClientFromConfig(cfg)
	paymentClient := payments.NewClientFromConfig(cfg)

	locks := lockservice.NewLockService(lockrepo.NewMongoRoomLockRepository(cfg), clk, cfg.Log)
	reservationRepo := reservationrepo.NewMongoReservationRepository(cfg)
	reservations := reservationservice.NewReservationService(reservationRepo, ledger, publisher, clk, cfg.Log)

	bookings := bookingservice.NewBookingService(
		apartmentrepo.NewMongoListingResolver(cfg),
		locks,
		ledger,
		paymentClient,
		bookingvalidator.NewBookingValidator(cfg.SupportedCurrencies, cfg.Log),
		bookingservice.OptionsFromConfig(cfg),
		clk,
		cfg.Log,
	)

	webhooks := webhookservice.NewWebhookService(reservationRepo, locks, reservations, publisher, clk, cfg.Log)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return services{
		locks:        locks,
		bookings:     bookings,
		reservations: reservations,
		webhooks:     webhooks,
	}
}

// initPublisher falls back to logging events when Kafka is disabled.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reservation events are only logged")
		return events.NewNoopPublisher(cfg.Log)
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	counters := &kafka_middleware.Counters{}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	producer.Use(counters.ProducerMiddleware())

	serverApp.OnShutdown(func() {
		cfg.Log.Info("Reservation event producer stats", "stats", counters.Snapshot())
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	return events.NewKafkaPublisher(producer)
}
