// Package config provides runtime configuration values for the api and
// worker binaries.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every knob for HTTP, storage, broker, caching and the
// fulfillment worker.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	DatabaseUser     string
	DatabasePassword string
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string

	RedisAddr string

	KafkaBrokers  []string
	OrderTopic    string
	OrderDLQTopic string
	ConsumerGroup string

	LocalCacheSize int
	LocalCacheTTL  time.Duration
	SharedCacheTTL time.Duration

	WorkerMaxAttempts    uint
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	PendingSweepInterval time.Duration
	PendingMaxAge        time.Duration

	ResultTTL time.Duration

	OTLPEndpoint string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout: durenv("SHUTDOWN_TIMEOUT", 15*time.Second),

		DatabaseUser:     getenv("DATABASE_USER", "root"),
		DatabasePassword: getenv("DATABASE_PASSWORD", "pass"),
		DatabaseHost:     getenv("DATABASE_HOST", "localhost"),
		DatabasePort:     getenv("DATABASE_PORT", "5432"),
		DatabaseName:     getenv("DATABASE_NAME", "ecommerce"),

		RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers:  strings.Split(getenv("KAFKA_BROKERS", "localhost:9092"), ","),
		OrderTopic:    getenv("ORDER_TOPIC", "orders.fulfillment"),
		OrderDLQTopic: getenv("ORDER_DLQ_TOPIC", "orders.fulfillment.dlq"),
		ConsumerGroup: getenv("CONSUMER_GROUP", "fulfillment-workers"),

		LocalCacheSize: atoienv("LOCAL_CACHE_SIZE", 10000),
		LocalCacheTTL:  durenv("LOCAL_CACHE_TTL", 30*time.Second),
		SharedCacheTTL: durenv("SHARED_CACHE_TTL", 10*time.Second),

		WorkerMaxAttempts:    uint(atoienv("WORKER_MAX_ATTEMPTS", 5)),
		RetryInitialInterval: durenv("RETRY_INITIAL_INTERVAL", 100*time.Millisecond),
		RetryMaxInterval:     durenv("RETRY_MAX_INTERVAL", 5*time.Second),

		PendingSweepInterval: durenv("PENDING_SWEEP_INTERVAL", time.Minute),
		PendingMaxAge:        durenv("PENDING_MAX_AGE", 10*time.Minute),

		ResultTTL: durenv("RESULT_TTL", 24*time.Hour),

		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}
}

// DatabaseDSN assembles the pgx connection string.
func (c Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DatabaseUser, c.DatabasePassword, c.DatabaseHost, c.DatabasePort, c.DatabaseName,
	)
}
