package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LimiterKind selects the rate limiter implementation.
type LimiterKind string

const (
	LimiterFixedWindow LimiterKind = "window"
	LimiterTokenBucket LimiterKind = "tokenbucket"
	LimiterRedis       LimiterKind = "redis"
)

// Config captures process-level configuration.
type Config struct {
	Addr string

	// PostgresDSN switches the stock ledger to the postgres implementation
	// when non-empty; the in-memory ledger is the default.
	PostgresDSN string

	// RedisURL is required for the redis limiter; ignored otherwise.
	RedisURL string

	// KafkaBrokers enables the kafka notification sink when non-empty.
	KafkaBrokers []string
	NotifyTopic  string

	RateLimiter       LimiterKind
	RateLimit         int
	RateWindow        time.Duration
	RateLimitDisabled bool
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("BLOODBANK_ADDR", ":8080"),
		PostgresDSN: os.Getenv("BLOODBANK_POSTGRES_DSN"),
		RedisURL:    os.Getenv("BLOODBANK_REDIS_URL"),
		NotifyTopic: envOr("BLOODBANK_NOTIFY_TOPIC", "bloodbank.approvals"),
		RateLimiter: LimiterKind(envOr("BLOODBANK_RATE_LIMITER", string(LimiterFixedWindow))),
		// Matches the approval-path tier: 5 requests per minute per client.
		RateLimit:         envInt("BLOODBANK_RATE_LIMIT", 5),
		RateWindow:        envDuration("BLOODBANK_RATE_WINDOW", time.Minute),
		RateLimitDisabled: os.Getenv("BLOODBANK_RATE_DISABLED") == "true",
	}

	if brokers := os.Getenv("BLOODBANK_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
