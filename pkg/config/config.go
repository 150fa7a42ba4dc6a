package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"campusbook/pkg/client"
	"campusbook/pkg/logger"
	"campusbook/pkg/timeofday"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	OperatingDayStart   string
	OperatingDayEnd     string
	ReservationTimezone string

	LockBackend             string
	LockTTL                 time.Duration
	LockWaitTimeout         time.Duration
	WriteRetryAttempts      int
	CompletionSweepInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaEnabled          bool
	KafkaReservationTopic string
	KafkaReservationDLQ   string

	MetricsEnabled bool

	Log    *logger.Logger
	Client *client.Client

	location *time.Location
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		RateLimitBurst:    getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		OperatingDayStart:   getEnvStr(EnvOperatingDayStart, DefaultOperatingDayStart),
		OperatingDayEnd:     getEnvStr(EnvOperatingDayEnd, DefaultOperatingDayEnd),
		ReservationTimezone: getEnvStr(EnvReservationTimezone, DefaultReservationTimezone),

		LockBackend:             getEnvStr(EnvLockBackend, DefaultLockBackend),
		LockTTL:                 getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockWaitTimeout:         getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		WriteRetryAttempts:      getEnvNum(EnvWriteRetryAttempts, DefaultWriteRetryAttempts),
		CompletionSweepInterval: getEnvDuration(EnvCompletionSweepInterval, DefaultCompletionSweepInterval),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		KafkaEnabled:          getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		KafkaReservationTopic: getEnvStr(EnvKafkaReservationTopic, DefaultKafkaReservationTopic),
		KafkaReservationDLQ:   getEnvStr(EnvKafkaReservationDLQ, DefaultKafkaReservationDLQ),

		MetricsEnabled: getEnvBool(EnvMetricsEnabled, DefaultMetricsEnabled),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, DefaultRedisConnTimeout)
}

// Location is the zone in which calendar days and the operating window are
// interpreted. A Config built by hand without Validate falls back to UTC.
func (cfg *Config) Location() *time.Location {
	if cfg.location != nil {
		return cfg.location
	}
	if cfg.ReservationTimezone != "" {
		if loc, err := time.LoadLocation(cfg.ReservationTimezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

func (cfg *Config) OperatingWindow() (timeofday.Window, error) {
	return timeofday.NewWindow(cfg.OperatingDayStart, cfg.OperatingDayEnd)
}

// LockHoldTimeout bounds the work done under a reservation lock. It leaves
// a fifth of LockTTL so the write ends before the lock can expire.
func (cfg *Config) LockHoldTimeout() time.Duration {
	return cfg.LockTTL - cfg.LockTTL/5
}

var mongoURIScheme = regexp.MustCompile(`^mongodb(\+srv)?://.+`)

// Validate reports every invalid setting at once. It also resolves the
// reservation time zone used by Location.
func (cfg *Config) Validate() error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		fail("Port must be between 1 and 65535, got %q", cfg.Port)
	}

	switch {
	case cfg.MongoURI == "":
		fail("MongoURI cannot be empty")
	case !mongoURIScheme.MatchString(cfg.MongoURI):
		fail("MongoURI must start with mongodb:// or mongodb+srv://, got %s", redactMongoURI(cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		fail("MongoDatabaseName cannot be empty")
	}

	if _, err := cfg.OperatingWindow(); err != nil {
		fail("operating window %s-%s: %v", cfg.OperatingDayStart, cfg.OperatingDayEnd, err)
	}
	cfg.location = nil
	if loc, err := time.LoadLocation(cfg.ReservationTimezone); err != nil || cfg.ReservationTimezone == "" {
		fail("ReservationTimezone must be an IANA zone name, got %q", cfg.ReservationTimezone)
	} else {
		cfg.location = loc
	}

	switch cfg.LockBackend {
	case LockBackendMongo:
	case LockBackendRedis:
		if cfg.RedisAddr == "" {
			fail("RedisAddr is required when LockBackend is %s", LockBackendRedis)
		}
	default:
		fail("LockBackend must be %s or %s, got %q", LockBackendMongo, LockBackendRedis, cfg.LockBackend)
	}
	if cfg.KafkaEnabled && cfg.KafkaReservationTopic == "" {
		fail("KafkaReservationTopic is required when Kafka is enabled")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout": cfg.MongoConnTimeout,
		"RateLimitWindow":  cfg.RateLimitWindow,
		"RequestTimeout":   cfg.RequestTimeout,
		"IdempotencyTTL":   cfg.IdempotencyTTL,
		"ReadTimeout":      cfg.ReadTimeout,
		"WriteTimeout":     cfg.WriteTimeout,
		"IdleTimeout":      cfg.IdleTimeout,
		"ShutdownTimeout":  cfg.ShutdownTimeout,
		"LockTTL":          cfg.LockTTL,
		"LockWaitTimeout":  cfg.LockWaitTimeout,
	} {
		if d <= 0 {
			fail("%s must be positive, got %s", name, d)
		}
	}
	if cfg.LockTTL > 0 && cfg.LockTTL < MinLockTTL {
		fail("LockTTL must be at least %s, got %s", MinLockTTL, cfg.LockTTL)
	}
	if cfg.CompletionSweepInterval < 0 {
		fail("CompletionSweepInterval cannot be negative, got %s", cfg.CompletionSweepInterval)
	}

	for name, n := range map[string]int{
		"RateLimitRequests": cfg.RateLimitRequests,
		"RateLimitBurst":    cfg.RateLimitBurst,
		"MaxRequestSize":    cfg.MaxRequestSize,
	} {
		if n <= 0 {
			fail("%s must be positive, got %d", name, n)
		}
	}
	if cfg.WriteRetryAttempts < 1 || cfg.WriteRetryAttempts > 10 {
		fail("WriteRetryAttempts must be between 1 and 10, got %d", cfg.WriteRetryAttempts)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"rate_limit_burst", cfg.RateLimitBurst,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"operating_day_start", cfg.OperatingDayStart,
		"operating_day_end", cfg.OperatingDayEnd,
		"reservation_timezone", cfg.ReservationTimezone,
		"lock_backend", cfg.LockBackend,
		"lock_ttl", cfg.LockTTL,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"write_retry_attempts", cfg.WriteRetryAttempts,
		"completion_sweep_interval", cfg.CompletionSweepInterval,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_reservation_topic", cfg.KafkaReservationTopic,
		"metrics_enabled", cfg.MetricsEnabled,
	)
}

var mongoCredentials = regexp.MustCompile(`(mongodb(\+srv)?://)[^:/@]+:[^@]+@`)

func redactMongoURI(uri string) string {
	return mongoCredentials.ReplaceAllString(uri, "${1}***:***@")
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

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPaginationDefaultLimit
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
