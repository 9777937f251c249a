package config

import (
	"fmt"
	"os"
	"regexp"
	"staylock/pkg/client"
	"staylock/pkg/logger"
	"strconv"
	"strings"
	"time"
)

var (
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	InternalAPIKey string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	HTTPClientTimeout time.Duration

	RoomLockTTL       time.Duration
	LockSweepInterval time.Duration

	PaymentAPIURL           string
	PaymentSecretKey        string
	PaymentWebhookSecret    string
	PaymentWebhookTolerance time.Duration
	PlatformFeePercentage   float64
	SupportedCurrencies     []string
	DefaultCurrency         string

	PynBookingBookingURL         string
	PynBookingSearchURL          string
	PynBookingBookAPIKey         string
	PynBookingSearchAPIKey       string
	PynBookingLanguage           string
	PynBookingDefaultRegion      string
	PynBookingConfirmedStatuses  []string
	PynBookingRoomSubstringMatch bool
	PynBookingMaxSearchDays      int

	KafkaEnabled              bool
	ReservationEventsTopic    string
	ReservationEventsDLQTopic string
	SyncWorkerGroupID         string
	SyncMaxAutoAttempts       int
	SyncRetryDelay            time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the environment, validates it and exits the process when the
// configuration is unusable.
func Load(serviceName string) *Config {
	cfg := Parse()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Parse reads every setting from the environment without validating it.
func Parse() *Config {
	sharedPynKey := getEnvStr(EnvPynBookingAPIKey, "")

	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		InternalAPIKey: getEnvStr(EnvInternalAPIKey, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:       getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:      getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:       getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout:   getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
		HTTPClientTimeout: getEnvDuration(EnvHTTPClientTimeout, DefaultHTTPClientTimeout),

		RoomLockTTL:       getEnvDuration(EnvRoomLockTTL, DefaultRoomLockTTL),
		LockSweepInterval: getEnvDuration(EnvLockSweepInterval, DefaultLockSweepInterval),

		PaymentAPIURL:           strings.TrimRight(getEnvStr(EnvPaymentAPIURL, DefaultPaymentAPIURL), "/"),
		PaymentSecretKey:        getEnvStr(EnvPaymentSecretKey, ""),
		PaymentWebhookSecret:    getEnvStr(EnvPaymentWebhookSecret, ""),
		PaymentWebhookTolerance: getEnvDuration(EnvPaymentWebhookTolerance, DefaultPaymentWebhookTolerance),
		PlatformFeePercentage:   getEnvFloat(EnvPlatformFeePercentage, DefaultPlatformFeePercentage),
		SupportedCurrencies:     getEnvList(EnvSupportedCurrencies, DefaultSupportedCurrencies, strings.ToLower),
		DefaultCurrency:         strings.ToLower(getEnvStr(EnvDefaultCurrency, DefaultCurrency)),

		PynBookingBookingURL:         getEnvStr(EnvPynBookingBookingURL, DefaultPynBookingBookingURL),
		PynBookingSearchURL:          getEnvStr(EnvPynBookingSearchURL, DefaultPynBookingSearchURL),
		PynBookingBookAPIKey:         getEnvStr(EnvPynBookingBookAPIKey, sharedPynKey),
		PynBookingSearchAPIKey:       getEnvStr(EnvPynBookingSearchAPIKey, sharedPynKey),
		PynBookingLanguage:           strings.ToUpper(getEnvStr(EnvPynBookingLanguage, DefaultPynBookingLanguage)),
		PynBookingDefaultRegion:      strings.ToUpper(getEnvStr(EnvPynBookingDefaultRegion, DefaultPynBookingDefaultRegion)),
		PynBookingConfirmedStatuses:  getEnvList(EnvPynBookingConfirmedStatuses, DefaultPynBookingConfirmedStatuses, strings.ToLower),
		PynBookingRoomSubstringMatch: getEnvBool(EnvPynBookingRoomSubstringMatch, DefaultPynBookingRoomSubstringMatch),
		PynBookingMaxSearchDays:      getEnvNum(EnvPynBookingMaxSearchDays, DefaultPynBookingMaxSearchDays),

		KafkaEnabled:              getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		ReservationEventsTopic:    getEnvStr(EnvReservationEventsTopic, DefaultReservationEventsTopic),
		ReservationEventsDLQTopic: getEnvStr(EnvReservationEventsDLQTopic, DefaultReservationEventsDLQTopic),
		SyncWorkerGroupID:         getEnvStr(EnvSyncWorkerGroupID, DefaultSyncWorkerGroupID),
		SyncMaxAutoAttempts:       getEnvNum(EnvSyncMaxAutoAttempts, DefaultSyncMaxAutoAttempts),
		SyncRetryDelay:            getEnvDuration(EnvSyncRetryDelay, DefaultSyncRetryDelay),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"HTTPClientTimeout", cfg.HTTPClientTimeout},
		{"RoomLockTTL", cfg.RoomLockTTL},
		{"PaymentWebhookTolerance", cfg.PaymentWebhookTolerance},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.LockSweepInterval < 0 {
		errors = append(errors, fmt.Sprintf("LockSweepInterval cannot be negative, got: %s", cfg.LockSweepInterval))
	}
	if cfg.SyncRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("SyncRetryDelay cannot be negative, got: %s", cfg.SyncRetryDelay))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.PlatformFeePercentage < 0 || cfg.PlatformFeePercentage >= 1 {
		errors = append(errors, fmt.Sprintf("PlatformFeePercentage must be in [0, 1), got: %v", cfg.PlatformFeePercentage))
	}
	if len(cfg.SupportedCurrencies) == 0 {
		errors = append(errors, "SupportedCurrencies cannot be empty")
	} else if !cfg.IsSupportedCurrency(cfg.DefaultCurrency) {
		errors = append(errors, fmt.Sprintf("DefaultCurrency %q must be one of SupportedCurrencies %v", cfg.DefaultCurrency, cfg.SupportedCurrencies))
	}

	if cfg.PynBookingMaxSearchDays < 1 {
		errors = append(errors, fmt.Sprintf("PynBookingMaxSearchDays must be at least 1, got: %d", cfg.PynBookingMaxSearchDays))
	}
	if len(cfg.PynBookingConfirmedStatuses) == 0 {
		errors = append(errors, "PynBookingConfirmedStatuses cannot be empty")
	}

	if cfg.KafkaEnabled && cfg.ReservationEventsTopic == "" {
		errors = append(errors, "ReservationEventsTopic cannot be empty when Kafka is enabled")
	}
	if cfg.SyncMaxAutoAttempts < 0 {
		errors = append(errors, fmt.Sprintf("SyncMaxAutoAttempts cannot be negative, got: %d", cfg.SyncMaxAutoAttempts))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) IsSupportedCurrency(currency string) bool {
	currency = strings.ToLower(currency)
	for _, c := range cfg.SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"internal_api_key_set", cfg.InternalAPIKey != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"http_client_timeout", cfg.HTTPClientTimeout,
		"room_lock_ttl", cfg.RoomLockTTL,
		"lock_sweep_interval", cfg.LockSweepInterval,
		"payment_api_url", cfg.PaymentAPIURL,
		"payment_secret_set", cfg.PaymentSecretKey != "",
		"payment_webhook_secret_set", cfg.PaymentWebhookSecret != "",
		"platform_fee_percentage", cfg.PlatformFeePercentage,
		"supported_currencies", cfg.SupportedCurrencies,
		"pynbooking_booking_url", cfg.PynBookingBookingURL,
		"pynbooking_search_url", cfg.PynBookingSearchURL,
		"pynbooking_book_key_set", cfg.PynBookingBookAPIKey != "",
		"pynbooking_search_key_set", cfg.PynBookingSearchAPIKey != "",
		"pynbooking_confirmed_statuses", cfg.PynBookingConfirmedStatuses,
		"pynbooking_room_substring_match", cfg.PynBookingRoomSubstringMatch,
		"kafka_enabled", cfg.KafkaEnabled,
		"reservation_events_topic", cfg.ReservationEventsTopic,
		"sync_max_auto_attempts", cfg.SyncMaxAutoAttempts,
	)

	if cfg.PaymentWebhookSecret == "" {
		cfg.Log.Warn("PAYMENT_WEBHOOK_SECRET is not set, every payment webhook will be rejected")
	}
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, trimming and normalizing each
// item and dropping empties.
func getEnvList(key, fallback string, normalize func(string) string) []string {
	raw := getEnvStr(key, fallback)
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if normalize != nil {
			p = normalize(p)
		}
		items = append(items, p)
	}
	return items
}
