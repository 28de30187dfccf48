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
	// EvaluatorInterval is how often the scheduler runs a full pipeline pass
	// (drift detection, safeguard evaluation, due rollback checks).
	EvaluatorInterval time.Duration
}

// RedisConfig captures connection settings for the shared Redis instance
// backing the calibration cache and the training job registry.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig captures connection settings for the store backing
// activation records, the prediction log, and performance snapshots.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig captures settings for the drift alert publisher.
type KafkaConfig struct {
	Brokers    []string
	AlertTopic string
}

// Pipeline captures which models the evaluator watches and whether the
// safeguard may commission training on its own.
type Pipeline struct {
	// WatchedModels lists model identities ("type:version[:scope]") the
	// scheduler runs passes for.
	WatchedModels []string
	// AutoRetrainEnabled is the safeguard's master switch. Off unless
	// explicitly turned on.
	AutoRetrainEnabled bool
}

// Config is the full process configuration assembled from the environment.
type Config struct {
	Server   Server
	Pipeline Pipeline
	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// FromEnv builds the process config from environment variables so main stays
// lean. Missing values fall back to local-development defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:              envOr("MODELGUARD_ADDR", ":8080"),
			EvaluatorInterval: envDuration("MODELGUARD_EVALUATOR_INTERVAL", time.Hour),
		},
		Pipeline: Pipeline{
			WatchedModels:      splitNonEmpty(os.Getenv("MODELGUARD_WATCHED_MODELS")),
			AutoRetrainEnabled: envBool("MODELGUARD_AUTO_RETRAIN", false),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("MODELGUARD_REDIS_URL"),
			PoolSize:     envInt("MODELGUARD_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("MODELGUARD_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("MODELGUARD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("MODELGUARD_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("MODELGUARD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("MODELGUARD_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("MODELGUARD_KAFKA_BROKERS")),
			AlertTopic: envOr("MODELGUARD_KAFKA_ALERT_TOPIC", "modelguard.drift-alerts"),
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
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
