// Package config loads the tradeflow YAML configuration and applies
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the tradeflow engine.
type Config struct {
	Storage     Storage     `yaml:"storage"`
	Server      Server      `yaml:"server"`
	Broker      Broker      `yaml:"broker"`
	Credentials Credentials `yaml:"credentials"`
	Trading     Trading     `yaml:"trading"`
	Logging     Logging     `yaml:"logging"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir     string `yaml:"data_dir"`     // journal root
	SQLitePath  string `yaml:"sqlite_path"`  // credentials database
	SymbolsPath string `yaml:"symbols_path"` // instruments database
}

// Server holds network listener configuration.
type Server struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
}

// Broker holds endpoints and limits for the brokerage API.
type Broker struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ReadRetries    int    `yaml:"read_retries"`
	Simulator      bool   `yaml:"simulator"` // paper mode: in-memory gateway
}

// Credentials configures credential storage and caching.
type Credentials struct {
	Backend          string `yaml:"backend"` // sqlite | redis
	CacheTTLSeconds  int    `yaml:"cache_ttl_seconds"`
	RedisAddr        string `yaml:"redis_addr"`
	DefaultPrincipal string `yaml:"default_principal"`

	// Fallback auth material, normally injected via environment.
	DefaultAccessToken string `yaml:"default_access_token"`
	DefaultAPIKey      string `yaml:"default_api_key"`
}

// Trading defines bulk-operation execution parameters.
type Trading struct {
	MaxParallel     int `yaml:"max_parallel"`
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("SYMBOLS_PATH"); v != "" {
		cfg.Storage.SymbolsPath = v
	}

	if v := os.Getenv("BROKER_BASE_URL"); v != "" {
		cfg.Broker.BaseURL = v
	}
	if v := os.Getenv("BROKER_SIMULATOR"); v != "" {
		cfg.Broker.Simulator = v == "1" || v == "true"
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Credentials.RedisAddr = v
	}
	if v := os.Getenv("TRADEFLOW_PRINCIPAL"); v != "" {
		cfg.Credentials.DefaultPrincipal = v
	}
	if v := os.Getenv("TRADEFLOW_ACCESS_TOKEN"); v != "" {
		cfg.Credentials.DefaultAccessToken = v
	}
	if v := os.Getenv("TRADEFLOW_API_KEY"); v != "" {
		cfg.Credentials.DefaultAPIKey = v
	}

	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
