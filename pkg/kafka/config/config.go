package kafka_config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"campusbook/pkg/logger"
)

const (
	EnvKafkaBrokers              = "KAFKA_BROKERS"
	EnvKafkaProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaProducerWriteTimeout = "KAFKA_PRODUCER_WRITE_TIMEOUT"
	EnvKafkaProducerRequireAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvKafkaProducerCompression  = "KAFKA_PRODUCER_COMPRESSION"
	EnvKafkaProducerAsync        = "KAFKA_PRODUCER_ASYNC"
	EnvKafkaEnableMiddleware     = "KAFKA_ENABLE_MIDDLEWARE"
)

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerWriteTimeout time.Duration
	ProducerRequireAcks  int    // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string // one of compressions
	ProducerAsync        bool

	EnableMiddleware bool
}

// Defaults returns the producer settings used when nothing is set in the
// environment.
func Defaults() *Config {
	return &Config{
		Brokers:              []string{"localhost:9092"},
		ProducerMaxAttempts:  3,
		ProducerBatchTimeout: 10 * time.Millisecond,
		ProducerWriteTimeout: 5 * time.Second,
		ProducerRequireAcks:  -1,
		ProducerCompression:  "snappy",
		EnableMiddleware:     true,
	}
}

// Load overlays the environment on Defaults. Values that are set but do not
// parse are reported instead of being silently replaced by the default.
func Load() (*Config, error) {
	cfg := Defaults()
	env := &envReader{}

	if raw := os.Getenv(EnvKafkaBrokers); raw != "" {
		cfg.Brokers = splitBrokers(raw)
	}
	env.int(EnvKafkaProducerMaxAttempts, &cfg.ProducerMaxAttempts)
	env.duration(EnvKafkaProducerBatchTimeout, &cfg.ProducerBatchTimeout)
	env.duration(EnvKafkaProducerWriteTimeout, &cfg.ProducerWriteTimeout)
	env.int(EnvKafkaProducerRequireAcks, &cfg.ProducerRequireAcks)
	if raw := os.Getenv(EnvKafkaProducerCompression); raw != "" {
		cfg.ProducerCompression = strings.ToLower(strings.TrimSpace(raw))
	}
	env.bool(EnvKafkaProducerAsync, &cfg.ProducerAsync)
	env.bool(EnvKafkaEnableMiddleware, &cfg.EnableMiddleware)

	if err := errors.Join(env.err(), cfg.Validate()); err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if len(cfg.Brokers) == 0 {
		fail("at least one broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			fail("broker %d is empty", i)
		}
	}
	if cfg.ProducerMaxAttempts <= 0 {
		fail("ProducerMaxAttempts must be positive, got %d", cfg.ProducerMaxAttempts)
	}
	if cfg.ProducerBatchTimeout <= 0 {
		fail("ProducerBatchTimeout must be positive, got %s", cfg.ProducerBatchTimeout)
	}
	if cfg.ProducerWriteTimeout <= 0 {
		fail("ProducerWriteTimeout must be positive, got %s", cfg.ProducerWriteTimeout)
	}
	if !contains(compressions, cfg.ProducerCompression) {
		fail("ProducerCompression must be one of %v, got %q", compressions, cfg.ProducerCompression)
	}
	if cfg.ProducerRequireAcks < -1 || cfg.ProducerRequireAcks > 1 {
		fail("ProducerRequireAcks must be -1, 0 or 1, got %d", cfg.ProducerRequireAcks)
	}

	return errors.Join(problems...)
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	if log == nil {
		return
	}
	log.Info("kafka producer configured",
		"brokers", cfg.Brokers,
		"max_attempts", cfg.ProducerMaxAttempts,
		"batch_timeout", cfg.ProducerBatchTimeout,
		"write_timeout", cfg.ProducerWriteTimeout,
		"require_acks", cfg.ProducerRequireAcks,
		"compression", cfg.ProducerCompression,
		"async", cfg.ProducerAsync,
		"middleware", cfg.EnableMiddleware,
	)
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// envReader assigns parsed environment values and remembers which keys were
// malformed.
type envReader struct {
	bad []error
}

func (r *envReader) int(key string, dst *int) {
	r.parse(key, func(raw string) error {
		v, err := strconv.Atoi(raw)
		if err == nil {
			*dst = v
		}
		return err
	})
}

func (r *envReader) bool(key string, dst *bool) {
	r.parse(key, func(raw string) error {
		v, err := strconv.ParseBool(raw)
		if err == nil {
			*dst = v
		}
		return err
	})
}

func (r *envReader) duration(key string, dst *time.Duration) {
	r.parse(key, func(raw string) error {
		v, err := time.ParseDuration(raw)
		if err == nil {
			*dst = v
		}
		return err
	})
}

func (r *envReader) parse(key string, set func(string) error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if err := set(raw); err != nil {
		r.bad = append(r.bad, fmt.Errorf("%s=%q: %w", key, raw, err))
	}
}

func (r *envReader) err() error {
	return errors.Join(r.bad...)
}
