package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staylock"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 15 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second
	DefaultHTTPClientTimeout = 10 * time.Second

	DefaultRoomLockTTL       = 15 * time.Minute
	DefaultLockSweepInterval = 1 * time.Minute

	DefaultPaymentAPIURL           = "https://api.stripe.com"
	DefaultPaymentWebhookTolerance = 5 * time.Minute
	DefaultPlatformFeePercentage   = 0.2
	DefaultSupportedCurrencies     = "eur,ron"
	DefaultCurrency                = "ron"

	DefaultPynBookingBookingURL         = "https://api.pynbooking.direct/booking/add/"
	DefaultPynBookingSearchURL          = "https://api.pynbooking.com/reservation/search/"
	DefaultPynBookingLanguage           = "RO"
	DefaultPynBookingDefaultRegion      = "RO"
	DefaultPynBookingConfirmedStatuses  = "confirmed,confirmata,confirmată"
	DefaultPynBookingRoomSubstringMatch = true
	DefaultPynBookingMaxSearchDays      = 31

	DefaultKafkaEnabled              = false
	DefaultReservationEventsTopic    = "reservation-events"
	DefaultReservationEventsDLQTopic = "dlq-reservation-events"
	DefaultSyncWorkerGroupID         = "sync-worker"
	DefaultSyncMaxAutoAttempts       = 5
	DefaultSyncRetryDelay            = 30 * time.Second
)
