package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "campusbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitBurst    = 10

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultOperatingDayStart   = "09:00"
	DefaultOperatingDayEnd     = "17:00"
	DefaultReservationTimezone = "UTC"

	DefaultLockBackend             = LockBackendMongo
	DefaultLockTTL                 = 10 * time.Second
	MinLockTTL                     = time.Second
	DefaultLockWaitTimeout         = 3 * time.Second
	DefaultWriteRetryAttempts      = 3
	DefaultCompletionSweepInterval = 5 * time.Minute

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisDB          = 0
	DefaultRedisConnTimeout = 2 * time.Second

	DefaultKafkaEnabled           = false
	DefaultKafkaReservationTopic  = "reservations.events"
	DefaultKafkaReservationDLQ    = "reservations.events.dlq"
	DefaultMetricsEnabled         = true
	DefaultPaginationLimit        = 100
	DefaultPaginationDefaultLimit = 10
)

const (
	LockBackendMongo = "mongo"
	LockBackendRedis = "redis"
)
