package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		MongoURI:                DefaultMongoURI,
		MongoDatabaseName:       DefaultMongoDatabaseName,
		MongoConnTimeout:        DefaultMongoConnTimeout,
		Port:                    DefaultPort,
		RateLimitRequests:       DefaultRateLimitRequests,
		RateLimitWindow:         DefaultRateLimitWindow,
		RateLimitBurst:          DefaultRateLimitBurst,
		RequestTimeout:          DefaultRequestTimeout,
		IdempotencyTTL:          DefaultIdempotencyTTL,
		MaxRequestSize:          DefaultMaxRequestSize,
		ReadTimeout:             DefaultReadTimeout,
		WriteTimeout:            DefaultWriteTimeout,
		IdleTimeout:             DefaultIdleTimeout,
		ShutdownTimeout:         DefaultShutdownTimeout,
		OperatingDayStart:       DefaultOperatingDayStart,
		OperatingDayEnd:         DefaultOperatingDayEnd,
		ReservationTimezone:     "Europe/Berlin",
		LockBackend:             DefaultLockBackend,
		LockTTL:                 DefaultLockTTL,
		LockWaitTimeout:         DefaultLockWaitTimeout,
		WriteRetryAttempts:      DefaultWriteRetryAttempts,
		CompletionSweepInterval: DefaultCompletionSweepInterval,
		RedisAddr:               DefaultRedisAddr,
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestValidate_CollectsProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "99999"
	cfg.MongoURI = "postgres://db"
	cfg.OperatingDayStart = "18:00"
	cfg.ReservationTimezone = "Mars/Olympus"
	cfg.LockBackend = "etcd"
	cfg.LockTTL = 0
	cfg.RateLimitBurst = 0
	cfg.WriteRetryAttempts = 42

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"Port", "MongoURI", "operating window", "ReservationTimezone", "LockBackend", "LockTTL", "RateLimitBurst", "WriteRetryAttempts"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidate_RedisBackendNeedsAddr(t *testing.T) {
	cfg := validConfig()
	cfg.LockBackend = LockBackendRedis
	cfg.RedisAddr = ""
	assert.ErrorContains(t, cfg.Validate(), "RedisAddr")
}

func TestValidate_KafkaNeedsTopic(t *testing.T) {
	cfg := validConfig()
	cfg.KafkaEnabled = true
	assert.ErrorContains(t, cfg.Validate(), "KafkaReservationTopic")
}

func TestValidate_LockTTLTooShort(t *testing.T) {
	cfg := validConfig()
	cfg.LockTTL = 500 * time.Millisecond
	assert.ErrorContains(t, cfg.Validate(), "LockTTL must be at least")
}

func TestLockHoldTimeout(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 8*time.Second, cfg.LockHoldTimeout())
	assert.Less(t, cfg.LockHoldTimeout(), cfg.LockTTL)
}

func TestLocation_FallsBackWithoutValidate(t *testing.T) {
	assert.Equal(t, time.UTC, (&Config{}).Location())
	assert.Equal(t, "Asia/Tokyo", (&Config{ReservationTimezone: "Asia/Tokyo"}).Location().String())
}

func TestRedactMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017/campus", redactMongoURI("mongodb://admin:s3cret@db:27017/campus"))
	assert.Equal(t, "mongodb://localhost:27017", redactMongoURI("mongodb://localhost:27017"))
}

func TestNormalizePagination(t *testing.T) {
	assert.Equal(t, DefaultPaginationDefaultLimit, NormalizePaginationLimit(0))
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(DefaultPaginationLimit+1))
	assert.Equal(t, 25, NormalizePaginationLimit(25))
	assert.Equal(t, int64(0), NormalizeOffset(-5))
}
