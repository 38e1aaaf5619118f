// Package config builds runtime configuration from environment variables
// so main stays lean. One struct per concern; defaults suit local dev.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server       ServerConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Registry     RegistryConfig
	Verification VerificationConfig
	Document     DocumentConfig
	Kafka        KafkaConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr          string
	JWTSigningKey string
}

// PostgresConfig holds the connection string; empty means in-memory stores.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds Redis connection settings; empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegistryConfig configures the external business registry client.
type RegistryConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// VerificationConfig tunes the one-time code workflow.
type VerificationConfig struct {
	CodeTTL       time.Duration
	MaxAttempts   int
	LockoutWindow time.Duration
	SweepInterval time.Duration
}

// DocumentConfig tunes document intake.
type DocumentConfig struct {
	MaxUploadBytes int64
}

// KafkaConfig configures the audit event pipeline; empty brokers disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:          envString("VITRINA_ADDR", ":8080"),
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Registry: RegistryConfig{
			BaseURL:  envString("REGISTRY_BASE_URL", "http://localhost:9090"),
			APIKey:   os.Getenv("REGISTRY_API_KEY"),
			Timeout:  envDuration("REGISTRY_TIMEOUT", 5*time.Second),
			CacheTTL: envDuration("REGISTRY_CACHE_TTL", 5*time.Minute),
		},
		Verification: VerificationConfig{
			CodeTTL:       envDuration("VERIFICATION_CODE_TTL", 10*time.Minute),
			MaxAttempts:   envInt("VERIFICATION_MAX_ATTEMPTS", 5),
			LockoutWindow: envDuration("VERIFICATION_LOCKOUT_WINDOW", 15*time.Minute),
			SweepInterval: envDuration("VERIFICATION_SWEEP_INTERVAL", 10*time.Minute),
		},
		Document: DocumentConfig{
			MaxUploadBytes: int64(envInt("DOCUMENT_MAX_BYTES", 5<<20)),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envString("KAFKA_AUDIT_TOPIC", "vitrina.audit"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if part := raw[start:i]; part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	return out
}
