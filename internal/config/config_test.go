package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/tmp/tradeflow/data"
  sqlite_path: "/tmp/tradeflow/creds.db"
  symbols_path: "/tmp/tradeflow/symbols.db"
server:
  host: "0.0.0.0"
  port: 8080
  metrics_port: 9091
broker:
  base_url: "https://apiconnect.example.com"
  timeout_seconds: 10
  read_retries: 2
  simulator: false
credentials:
  backend: "sqlite"
  cache_ttl_seconds: 30
  default_principal: "service"
trading:
  max_parallel: 4
  rate_limit_per_min: 120
logging:
  level: "info"
  format: "json"
`)

	tmpFile, err := os.CreateTemp("", "tradeflow-config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	// Clear any environment overrides that might interfere.
	os.Unsetenv("DATA_DIR")
	os.Unsetenv("SQLITE_PATH")
	os.Unsetenv("BROKER_BASE_URL")
	os.Unsetenv("TRADEFLOW_ACCESS_TOKEN")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("PORT")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/tradeflow/data" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.SQLitePath != "/tmp/tradeflow/creds.db" {
		t.Errorf("Storage.SQLitePath = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.SymbolsPath != "/tmp/tradeflow/symbols.db" {
		t.Errorf("Storage.SymbolsPath = %q", cfg.Storage.SymbolsPath)
	}

	// -- Server --
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MetricsPort != 9091 {
		t.Errorf("Server.MetricsPort = %d, want 9091", cfg.Server.MetricsPort)
	}

	// -- Broker --
	if cfg.Broker.BaseURL != "https://apiconnect.example.com" {
		t.Errorf("Broker.BaseURL = %q", cfg.Broker.BaseURL)
	}
	if cfg.Broker.TimeoutSeconds != 10 {
		t.Errorf("Broker.TimeoutSeconds = %d, want 10", cfg.Broker.TimeoutSeconds)
	}
	if cfg.Broker.ReadRetries != 2 {
		t.Errorf("Broker.ReadRetries = %d, want 2", cfg.Broker.ReadRetries)
	}
	if cfg.Broker.Simulator {
		t.Error("Broker.Simulator = true, want false")
	}

	// -- Credentials --
	if cfg.Credentials.Backend != "sqlite" {
		t.Errorf("Credentials.Backend = %q", cfg.Credentials.Backend)
	}
	if cfg.Credentials.CacheTTLSeconds != 30 {
		t.Errorf("Credentials.CacheTTLSeconds = %d, want 30", cfg.Credentials.CacheTTLSeconds)
	}
	if cfg.Credentials.DefaultPrincipal != "service" {
		t.Errorf("Credentials.DefaultPrincipal = %q", cfg.Credentials.DefaultPrincipal)
	}

	// -- Trading --
	if cfg.Trading.MaxParallel != 4 {
		t.Errorf("Trading.MaxParallel = %d, want 4", cfg.Trading.MaxParallel)
	}
	if cfg.Trading.RateLimitPerMin != 120 {
		t.Errorf("Trading.RateLimitPerMin = %d, want 120", cfg.Trading.RateLimitPerMin)
	}

	// -- Logging --
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	yamlContent := []byte(`
storage:
  data_dir: "/original/data"
broker:
  base_url: "https://yaml.example.com"
credentials:
  default_access_token: "yaml-token"
  default_api_key: "yaml-key"
`)

	tmpFile, err := os.CreateTemp("", "tradeflow-config-env-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(yamlContent); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	tmpFile.Close()

	os.Setenv("DATA_DIR", "/env/data")
	os.Setenv("BROKER_BASE_URL", "https://env.example.com")
	os.Setenv("TRADEFLOW_ACCESS_TOKEN", "env-token")
	defer os.Unsetenv("DATA_DIR")
	defer os.Unsetenv("BROKER_BASE_URL")
	defer os.Unsetenv("TRADEFLOW_ACCESS_TOKEN")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want env override", cfg.Storage.DataDir)
	}
	if cfg.Broker.BaseURL != "https://env.example.com" {
		t.Errorf("Broker.BaseURL = %q, want env override", cfg.Broker.BaseURL)
	}
	if cfg.Credentials.DefaultAccessToken != "env-token" {
		t.Errorf("DefaultAccessToken = %q, want env override", cfg.Credentials.DefaultAccessToken)
	}
	// api_key stays from YAML since no env override was set.
	if cfg.Credentials.DefaultAPIKey != "yaml-key" {
		t.Errorf("DefaultAPIKey = %q, want YAML value", cfg.Credentials.DefaultAPIKey)
	}
}
