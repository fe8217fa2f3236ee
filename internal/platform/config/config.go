// Package config loads service configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
}

// Postgres captures database configuration. An empty URL selects the
// in-memory store, which is the local development default.
type Postgres struct {
	URL string
}

// Redis captures the advisory-lock backend configuration. An empty URL
// selects in-process locks.
type Redis struct {
	URL string
}

// Kafka captures the status-event broker configuration. No brokers means
// events stay in-process.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Compliance captures the external compliance authority credentials together
// with the account-level object handles the saga attaches to.
type Compliance struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration

	PrimaryProfileID     string
	ProfilePolicyID      string
	TrustProductPolicyID string
	NotifyEmail          string
	StatusCallbackURL    string
	InboundMessageURL    string
}

// Cron captures the shared secret that gates the scheduled sweep endpoint.
type Cron struct {
	Secret string
}

// Sweep bounds the scheduled reconciliation sweep.
type Sweep struct {
	BatchSize   int
	Concurrency int
}

// Config is everything the server needs to start.
type Config struct {
	Server     Server
	Postgres   Postgres
	Redis      Redis
	Kafka      Kafka
	Compliance Compliance
	Cron       Cron
	Sweep      Sweep
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr: envStr("SENDCORE_ADDR", ":8080"),
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL: os.Getenv("REDIS_URL"),
		},
		Kafka: Kafka{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envStr("KAFKA_TOPIC", "registration.status"),
		},
		Compliance: Compliance{
			BaseURL:              os.Getenv("COMPLIANCE_BASE_URL"),
			APIKey:               os.Getenv("COMPLIANCE_API_KEY"),
			APISecret:            os.Getenv("COMPLIANCE_API_SECRET"),
			Timeout:              envDur("COMPLIANCE_TIMEOUT", 30*time.Second),
			PrimaryProfileID:     os.Getenv("COMPLIANCE_PRIMARY_PROFILE_ID"),
			ProfilePolicyID:      os.Getenv("COMPLIANCE_PROFILE_POLICY_ID"),
			TrustProductPolicyID: os.Getenv("COMPLIANCE_TRUST_POLICY_ID"),
			NotifyEmail:          os.Getenv("COMPLIANCE_NOTIFY_EMAIL"),
			StatusCallbackURL:    os.Getenv("STATUS_CALLBACK_URL"),
			InboundMessageURL:    os.Getenv("INBOUND_MESSAGE_URL"),
		},
		Cron: Cron{
			Secret: os.Getenv("CRON_SECRET"),
		},
		Sweep: Sweep{
			BatchSize:   envInt("SWEEP_BATCH_SIZE", 25),
			Concurrency: envInt("SWEEP_CONCURRENCY", 4),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
