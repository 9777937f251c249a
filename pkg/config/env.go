package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvInternalAPIKey = "INTERNAL_API_KEY"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout       = "READ_TIMEOUT"
	EnvWriteTimeout      = "WRITE_TIMEOUT"
	EnvIdleTimeout       = "IDLE_TIMEOUT"
	EnvShutdownTimeout   = "SHUTDOWN_TIMEOUT"
	EnvHTTPClientTimeout = "HTTP_CLIENT_TIMEOUT"

	EnvRoomLockTTL       = "ROOM_LOCK_TTL"
	EnvLockSweepInterval = "LOCK_SWEEP_INTERVAL"

	EnvPaymentAPIURL           = "PAYMENT_API_URL"
	EnvPaymentSecretKey        = "PAYMENT_SECRET_KEY"
	EnvPaymentWebhookSecret    = "PAYMENT_WEBHOOK_SECRET"
	EnvPaymentWebhookTolerance = "PAYMENT_WEBHOOK_TOLERANCE"
	EnvPlatformFeePercentage   = "PLATFORM_FEE_PERCENTAGE"
	EnvSupportedCurrencies     = "SUPPORTED_CURRENCIES"
	EnvDefaultCurrency         = "DEFAULT_CURRENCY"

	EnvPynBookingBookingURL         = "PYNBOOKING_BOOKING_URL"
	EnvPynBookingSearchURL          = "PYNBOOKING_SEARCH_URL"
	EnvPynBookingAPIKey             = "PYNBOOKING_API_KEY"
	EnvPynBookingBookAPIKey         = "PYNBOOKING_BOOK_API_KEY"
	EnvPynBookingSearchAPIKey       = "PYNBOOKING_SEARCH_API_KEY"
	EnvPynBookingLanguage           = "PYNBOOKING_LANGUAGE"
	EnvPynBookingDefaultRegion      = "PYNBOOKING_DEFAULT_REGION"
	EnvPynBookingConfirmedStatuses  = "PYNBOOKING_CONFIRMED_STATUSES"
	EnvPynBookingRoomSubstringMatch = "PYNBOOKING_ROOM_SUBSTRING_MATCH"
	EnvPynBookingMaxSearchDays      = "PYNBOOKING_MAX_SEARCH_DAYS"

	EnvKafkaEnabled              = "KAFKA_ENABLED"
	EnvReservationEventsTopic    = "RESERVATION_EVENTS_TOPIC"
	EnvReservationEventsDLQTopic = "RESERVATION_EVENTS_DLQ_TOPIC"
	EnvSyncWorkerGroupID         = "SYNC_WORKER_GROUP_ID"
	EnvSyncMaxAutoAttempts       = "SYNC_MAX_AUTO_ATTEMPTS"
	EnvSyncRetryDelay            = "SYNC_RETRY_DELAY"
)
