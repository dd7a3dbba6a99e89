package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/billfold/billfold/pkg/observability"
	"github.com/billfold/billfold/pkg/storage/postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database postgres.Config

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// CORS allowed origins; "*" allows any origin
	CORSAllowedOrigins []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from the optional YAML file named by
// BILLFOLD_CONFIG, then applies environment variable overrides.
func LoadConfig() (*Config, error) {
	var overlay fileConfig
	if path := os.Getenv("BILLFOLD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server:        loadServerConfig(overlay.Server),
		Database:      loadDatabaseConfig(overlay.Database),
		Observability: loadObservabilityConfig(overlay.Observability),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// fileConfig mirrors Config with optional fields for the YAML overlay.
// Environment variables always win over file values.
type fileConfig struct {
	Server   fileServerConfig   `yaml:"server"`
	Database fileDatabaseConfig `yaml:"database"`

	Observability fileObservabilityConfig `yaml:"observability"`
}

type fileServerConfig struct {
	Host            string         `yaml:"host"`
	Port            string         `yaml:"port"`
	HealthPort      string         `yaml:"health_port"`
	ReadTimeout     *time.Duration `yaml:"read_timeout"`
	WriteTimeout    *time.Duration `yaml:"write_timeout"`
	IdleTimeout     *time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout *time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string       `yaml:"cors_origins"`
}

type fileDatabaseConfig struct {
	URL             string         `yaml:"url"`
	ReplicaURLs     []string       `yaml:"replica_urls"`
	MaxOpenConns    *int           `yaml:"max_open_conns"`
	MaxIdleConns    *int           `yaml:"max_idle_conns"`
	ConnMaxLifetime *time.Duration `yaml:"conn_max_lifetime"`
	ConnectTimeout  *time.Duration `yaml:"connect_timeout"`
}

type fileObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled *bool  `yaml:"metrics_enabled"`
	OTelEnabled    *bool  `yaml:"otel_enabled"`
	OTelEndpoint   string `yaml:"otel_endpoint"`
	OTelInsecure   *bool  `yaml:"otel_insecure"`
}

func loadServerConfig(file fileServerConfig) ServerConfig {
	cfg := ServerConfig{
		Host:            getEnv("BILLFOLD_HOST", coalesce(file.Host, "0.0.0.0")),
		Port:            getEnv("BILLFOLD_PORT", coalesce(file.Port, "8080")),
		HealthPort:      getEnv("BILLFOLD_HEALTH_PORT", coalesce(file.HealthPort, "9090")),
		ReadTimeout:     getEnvDuration("BILLFOLD_READ_TIMEOUT", durationOr(file.ReadTimeout, 15*time.Second)),
		WriteTimeout:    getEnvDuration("BILLFOLD_WRITE_TIMEOUT", durationOr(file.WriteTimeout, 15*time.Second)),
		IdleTimeout:     getEnvDuration("BILLFOLD_IDLE_TIMEOUT", durationOr(file.IdleTimeout, 60*time.Second)),
		ShutdownTimeout: getEnvDuration("BILLFOLD_SHUTDOWN_TIMEOUT", durationOr(file.ShutdownTimeout, 30*time.Second)),
	}

	if origins := getEnv("BILLFOLD_CORS_ORIGINS", ""); origins != "" {
		cfg.CORSAllowedOrigins = splitAndTrim(origins)
	} else if len(file.CORSOrigins) > 0 {
		cfg.CORSAllowedOrigins = file.CORSOrigins
	} else {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg
}

func loadDatabaseConfig(file fileDatabaseConfig) postgres.Config {
	cfg := postgres.DefaultConfig()

	cfg.PrimaryURL = getEnv("BILLFOLD_POSTGRES_URL", file.URL)

	if replicaURLs := getEnv("BILLFOLD_POSTGRES_REPLICA_URLS", ""); replicaURLs != "" {
		cfg.ReplicaURLs = postgres.ParseReplicaURLs(replicaURLs)
	} else if len(file.ReplicaURLs) > 0 {
		cfg.ReplicaURLs = file.ReplicaURLs
	}

	if maxConns := getEnvInt("BILLFOLD_POSTGRES_MAX_CONNS", intOr(file.MaxOpenConns, 0)); maxConns > 0 {
		cfg.MaxOpenConns = maxConns
	}
	if idleConns := getEnvInt("BILLFOLD_POSTGRES_IDLE_CONNS", intOr(file.MaxIdleConns, 0)); idleConns > 0 {
		cfg.MaxIdleConns = idleConns
	}
	if lifetime := getEnvDuration("BILLFOLD_POSTGRES_CONN_LIFETIME", durationOr(file.ConnMaxLifetime, 0)); lifetime > 0 {
		cfg.ConnMaxLifetime = lifetime
	}
	if timeout := getEnvDuration("BILLFOLD_POSTGRES_TIMEOUT", durationOr(file.ConnectTimeout, 0)); timeout > 0 {
		cfg.ConnectTimeout = timeout
	}

	return cfg
}

func loadObservabilityConfig(file fileObservabilityConfig) ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           ParseLogLevel(getEnv("BILLFOLD_LOG_LEVEL", coalesce(file.LogLevel, "info"))),
		MetricsEnabled:     getEnvBool("BILLFOLD_METRICS_ENABLED", boolOr(file.MetricsEnabled, true)),
		OTelEnabled:        getEnvBool("BILLFOLD_OTEL_ENABLED", boolOr(file.OTelEnabled, false)),
		OTelEndpoint:       getEnv("BILLFOLD_OTEL_ENDPOINT", coalesce(file.OTelEndpoint, "localhost:4317")),
		OTelServiceName:    getEnv("BILLFOLD_OTEL_SERVICE_NAME", "billfold"),
		OTelServiceVersion: getEnv("BILLFOLD_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("BILLFOLD_OTEL_INSECURE", boolOr(file.OTelInsecure, true)),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.PrimaryURL == "" {
		return fmt.Errorf("postgres URL is required (set BILLFOLD_POSTGRES_URL)")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// ParseLogLevel parses a log level string, defaulting to info
func ParseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func durationOr(v *time.Duration, def time.Duration) time.Duration {
	if v != nil {
		return *v
	}
	return def
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
