// Package config provides tests for configuration management.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Verify default values
	if cfg.Pool.Min != 100 {
		t.Errorf("expected pool min 100, got %d", cfg.Pool.Min)
	}
	if cfg.Pool.Max != 1000 {
		t.Errorf("expected pool max 1000, got %d", cfg.Pool.Max)
	}
	if cfg.Server.SocketPath != "/var/run/pid-manager/pidd.sock" {
		t.Errorf("expected default socket path, got '%s'", cfg.Server.SocketPath)
	}
	if cfg.Server.RequestTimeout != 10*time.Second {
		t.Errorf("expected request timeout 10s, got %v", cfg.Server.RequestTimeout)
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Metrics.BindAddress != ":9090" {
		t.Errorf("expected metrics bind address ':9090', got '%s'", cfg.Metrics.BindAddress)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format 'json', got '%s'", cfg.Logging.Format)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
pool:
  min: 1
  max: 64
server:
  socketPath: "/tmp/pidd-test.sock"
  requestTimeout: 3s
metrics:
  enabled: false
logging:
  level: debug
  format: text
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		t.Fatalf("failed to load config file: %v", err)
	}

	if cfg.Pool.Min != 1 {
		t.Errorf("expected pool min 1, got %d", cfg.Pool.Min)
	}
	if cfg.Pool.Max != 64 {
		t.Errorf("expected pool max 64, got %d", cfg.Pool.Max)
	}
	if cfg.Server.SocketPath != "/tmp/pidd-test.sock" {
		t.Errorf("expected socket path '/tmp/pidd-test.sock', got '%s'", cfg.Server.SocketPath)
	}
	if cfg.Server.RequestTimeout != 3*time.Second {
		t.Errorf("expected request timeout 3s, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got '%s'", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format 'text', got '%s'", cfg.Logging.Format)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configFile, []byte("pool: [not a map"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PIDD_POOL_MIN", "5")
	t.Setenv("PIDD_POOL_MAX", "50")
	t.Setenv("PIDD_SOCKET_PATH", "/tmp/env-pidd.sock")
	t.Setenv("PIDD_REQUEST_TIMEOUT", "30s")
	t.Setenv("PIDD_METRICS_ENABLED", "false")
	t.Setenv("PIDD_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Pool.Min != 5 {
		t.Errorf("expected pool min 5, got %d", cfg.Pool.Min)
	}
	if cfg.Pool.Max != 50 {
		t.Errorf("expected pool max 50, got %d", cfg.Pool.Max)
	}
	if cfg.Server.SocketPath != "/tmp/env-pidd.sock" {
		t.Errorf("expected socket path '/tmp/env-pidd.sock', got '%s'", cfg.Server.SocketPath)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("expected request timeout 30s, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Metrics.Enabled {
		t.Error("expected metrics disabled via env")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level 'warn', got '%s'", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_IgnoresGarbage(t *testing.T) {
	t.Setenv("PIDD_POOL_MIN", "not-a-number")
	t.Setenv("PIDD_REQUEST_TIMEOUT", "soon")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Pool.Min != 100 {
		t.Errorf("unparseable env override should keep default, got %d", cfg.Pool.Min)
	}
	if cfg.Server.RequestTimeout != 10*time.Second {
		t.Errorf("unparseable duration should keep default, got %v", cfg.Server.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"negative min", func(c *Config) { c.Pool.Min = -1 }, true},
		{"max below min", func(c *Config) { c.Pool.Min = 10; c.Pool.Max = 9 }, true},
		{"min equals max", func(c *Config) { c.Pool.Min = 7; c.Pool.Max = 7 }, false},
		{"empty socket path", func(c *Config) { c.Server.SocketPath = "" }, true},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"metrics without address", func(c *Config) { c.Metrics.BindAddress = "" }, true},
		{"metrics disabled without address", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.BindAddress = ""
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "pidd.yaml")
	configContent := `
pool:
  min: 200
  max: 400
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("PIDD_CONFIG_FILE", configFile)
	t.Setenv("PIDD_POOL_MAX", "300") // env wins over file

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Pool.Min != 200 {
		t.Errorf("expected pool min 200 from file, got %d", cfg.Pool.Min)
	}
	if cfg.Pool.Max != 300 {
		t.Errorf("expected pool max 300 from env override, got %d", cfg.Pool.Max)
	}
}

func TestLoadConfig_InvalidRange(t *testing.T) {
	t.Setenv("PIDD_CONFIG_FILE", "")
	t.Setenv("PIDD_POOL_MIN", "500")
	t.Setenv("PIDD_POOL_MAX", "100")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected LoadConfig to reject max < min")
	}
}
