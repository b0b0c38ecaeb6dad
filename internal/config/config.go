// Package config loads and validates client config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session store backends.
const (
	SessionBackendFile     = "file"
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// BackendURL is the base URL of the Rederly backend API (e.g. https://app.rederly.com/backend-api).
	BackendURL string `mapstructure:"BACKEND_URL"`
	// HTTPTimeout is the per-request timeout for backend calls (e.g. "15s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`

	// SessionBackend selects where the session keys are persisted: file, memory, redis or postgres.
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	// SessionFile is the JSON file used by the file backend.
	SessionFile string `mapstructure:"SESSION_FILE"`
	// SessionClientID namespaces the session keys in the redis and postgres backends.
	SessionClientID string `mapstructure:"SESSION_CLIENT_ID"`
	// SessionSealKey, when set, signs the stored session fields so a tampered role is detected.
	SessionSealKey string `mapstructure:"SESSION_SEAL_KEY"`
	// RedisURL is the redis:// URL for the redis backend.
	RedisURL string `mapstructure:"REDIS_URL"`
	// DatabaseURL is the Postgres DSN for the postgres backend and cmd/migrate.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// RoutePolicyPath is an optional Rego file replacing the built-in route visibility policy.
	RoutePolicyPath string `mapstructure:"ROUTE_POLICY_PATH"`

	// LogLevel is a logrus level name (debug, info, warn, error).
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces a plaintext connection to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"SERVICE_NAME"`

	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for client telemetry events.
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("BACKEND_URL", "http://localhost:3001/backend-api")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("SESSION_BACKEND", SessionBackendFile)
	v.SetDefault("SESSION_FILE", ".rederly-session.json")
	v.SetDefault("SESSION_CLIENT_ID", "default")
	v.SetDefault("SESSION_SEAL_KEY", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ROUTE_POLICY_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("SERVICE_NAME", "rederly-client")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "rederly-client-telemetry")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("config: BACKEND_URL must be set")
	}
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	switch c.SessionBackend {
	case SessionBackendFile:
		if c.SessionFile == "" {
			return errors.New("config: SESSION_FILE must be set when SESSION_BACKEND=file")
		}
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL must be set when SESSION_BACKEND=redis")
		}
	case SessionBackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when SESSION_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.SessionClientID == "" {
		c.SessionClientID = "default"
	}
	if c.SessionSealKey != "" && len(c.SessionSealKey) < 16 {
		return errors.New("config: SESSION_SEAL_KEY must be at least 16 bytes")
	}
	return nil
}

// Timeout parses HTTPTimeout as a time.Duration. Returns 15s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the Kafka telemetry producer is enabled (non-empty list).
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
