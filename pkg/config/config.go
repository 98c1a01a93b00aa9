// Package config provides configuration management for pid-manager.
//
// This package handles:
// - Configuration file parsing (YAML/JSON)
// - Environment variable overrides
// - Configuration validation
//
// Configuration Priority (highest to lowest):
// 1. Environment variables (PIDD_*)
// 2. Configuration file
// 3. Default values
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the global configuration structure for the pidd daemon.
type Config struct {
	// Pool contains the identifier range settings
	Pool PoolConfig `json:"pool" yaml:"pool"`

	// Server contains the allocation service settings
	Server ServerConfig `json:"server" yaml:"server"`

	// Metrics contains the metrics endpoint settings
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Logging contains logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// PoolConfig contains the identifier range settings.
type PoolConfig struct {
	// Min is the inclusive lower bound of the PID range
	// Must be >= 0
	// Default: 100
	Min int `json:"min" yaml:"min"`

	// Max is the inclusive upper bound of the PID range
	// Must be >= Min
	// Default: 1000
	Max int `json:"max" yaml:"max"`
}

// ServerConfig contains the allocation service settings.
type ServerConfig struct {
	// SocketPath is the Unix socket the daemon listens on
	// Default: /var/run/pid-manager/pidd.sock
	SocketPath string `json:"socketPath" yaml:"socketPath"`

	// RequestTimeout bounds the handling of a single request
	// Default: 10s
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"`

	// ShutdownTimeout bounds graceful shutdown
	// Default: 5s
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// MetricsConfig contains the metrics endpoint settings.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus endpoint is served
	// Default: true
	Enabled bool `json:"enabled" yaml:"enabled"`

	// BindAddress is the address of the /metrics HTTP endpoint
	// Default: ":9090"
	BindAddress string `json:"bindAddress" yaml:"bindAddress"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `json:"level" yaml:"level"`

	// Format is the log format: "json" or "text"
	// Default: "json"
	Format string `json:"format" yaml:"format"`

	// File is the log file path (optional)
	// If empty, logs to stdout
	File string `json:"file" yaml:"file"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Min: 100,
			Max: 1000,
		},
		Server: ServerConfig{
			SocketPath:      "/var/run/pid-manager/pidd.sock",
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			BindAddress: ":9090",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from file and environment variables.
//
// Configuration is loaded in the following order:
// 1. Default values
// 2. Configuration file (if specified via PIDD_CONFIG_FILE env var)
// 3. Environment variable overrides
//
// Returns:
//   - *Config: Loaded configuration
//   - error: Loading or validation error
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configFile := os.Getenv("PIDD_CONFIG_FILE")
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// YAML is a superset of JSON, so this handles both formats.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
//
// Environment variables follow the pattern PIDD_<SECTION>_<KEY>:
//   - PIDD_POOL_MIN=100
//   - PIDD_POOL_MAX=1000
//   - PIDD_SOCKET_PATH=/var/run/pid-manager/pidd.sock
//   - PIDD_REQUEST_TIMEOUT=10s
//   - PIDD_METRICS_ENABLED=true
//   - PIDD_METRICS_BIND_ADDRESS=:9090
//   - PIDD_LOG_LEVEL=debug
//   - PIDD_LOG_FORMAT=text
func (c *Config) ApplyEnvOverrides() {
	// Pool settings
	if v := os.Getenv("PIDD_POOL_MIN"); v != "" {
		if min, err := strconv.Atoi(v); err == nil {
			c.Pool.Min = min
		}
	}
	if v := os.Getenv("PIDD_POOL_MAX"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.Pool.Max = max
		}
	}

	// Server settings
	if v := os.Getenv("PIDD_SOCKET_PATH"); v != "" {
		c.Server.SocketPath = v
	}
	if v := os.Getenv("PIDD_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("PIDD_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Server.ShutdownTimeout = d
		}
	}

	// Metrics settings
	if v := os.Getenv("PIDD_METRICS_ENABLED"); v != "" {
		c.Metrics.Enabled = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("PIDD_METRICS_BIND_ADDRESS"); v != "" {
		c.Metrics.BindAddress = v
	}

	// Logging settings
	if v := os.Getenv("PIDD_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PIDD_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PIDD_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// Validate validates the configuration.
//
// The pool bounds rule here is the same one the allocator constructor
// enforces; validating up front means an invalid range is rejected loudly
// before the daemon ever builds an allocator.
func (c *Config) Validate() error {
	var errors []string

	// Validate pool bounds
	if c.Pool.Min < 0 {
		errors = append(errors, fmt.Sprintf("pool min must be >= 0, got %d", c.Pool.Min))
	}
	if c.Pool.Max < c.Pool.Min {
		errors = append(errors, fmt.Sprintf("pool max (%d) must be >= pool min (%d)", c.Pool.Max, c.Pool.Min))
	}

	// Validate server settings
	if c.Server.SocketPath == "" {
		errors = append(errors, "server socketPath is required")
	}
	if c.Server.RequestTimeout <= 0 {
		errors = append(errors, "server requestTimeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errors = append(errors, "server shutdownTimeout must be positive")
	}

	// Validate metrics settings
	if c.Metrics.Enabled && c.Metrics.BindAddress == "" {
		errors = append(errors, "metrics bindAddress is required when metrics are enabled")
	}

	// Validate logging settings
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errors = append(errors, fmt.Sprintf("invalid log format: %s (must be json or text)", c.Logging.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
