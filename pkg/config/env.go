package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvOperatingDayStart   = "OPERATING_DAY_START"
	EnvOperatingDayEnd     = "OPERATING_DAY_END"
	EnvReservationTimezone = "RESERVATION_TIMEZONE"

	EnvLockBackend             = "LOCK_BACKEND"
	EnvLockTTL                 = "LOCK_TTL"
	EnvLockWaitTimeout         = "LOCK_WAIT_TIMEOUT"
	EnvWriteRetryAttempts      = "WRITE_RETRY_ATTEMPTS"
	EnvCompletionSweepInterval = "COMPLETION_SWEEP_INTERVAL"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaEnabled          = "KAFKA_ENABLED"
	EnvKafkaReservationTopic = "KAFKA_RESERVATION_TOPIC"
	EnvKafkaReservationDLQ   = "KAFKA_RESERVATION_DLQ_TOPIC"

	EnvMetricsEnabled = "METRICS_ENABLED"
)
