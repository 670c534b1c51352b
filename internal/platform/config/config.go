// Package config loads process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "hemabank/pkg/platform/strings"
)

// Config captures everything the server process needs at startup.
type Config struct {
	Addr          string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	Sweep         SweepConfig
	RateLimit     RateLimitConfig
}

// RedisConfig configures the optional Redis connection used for rate
// limiting. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures lifecycle event publishing. No brokers means
// events are discarded.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// SweepConfig configures the background expiration sweep.
type SweepConfig struct {
	Enabled  bool
	Schedule string
}

// RateLimitConfig bounds mutating requests per principal per window.
type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// FromEnv builds a Config from environment variables, falling back to
// development defaults.
func FromEnv() Config {
	return Config{
		Addr:          envOr("HEMABANK_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_TOPIC", "hemabank.donation.events"),
		},
		Sweep: SweepConfig{
			Enabled:  os.Getenv("SWEEP_DISABLED") != "true",
			Schedule: envOr("SWEEP_SCHEDULE", "@every 5m"),
		},
		RateLimit: RateLimitConfig{
			Enabled: os.Getenv("RATE_LIMIT_DISABLED") != "true",
			Limit:   envInt("RATE_LIMIT_PER_MINUTE", 60),
			Window:  time.Minute,
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return pstrings.DedupeAndTrim(strings.Split(v, ","))
}
