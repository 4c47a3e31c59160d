// Package config loads scholar settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	// Provider selection
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`

	// API keys
	OpenAIKey    string `yaml:"openai_api_key"`
	AnthropicKey string `yaml:"anthropic_api_key"`
	GoogleKey    string `yaml:"google_api_key"`
	TavilyKey    string `yaml:"tavily_api_key"`

	// Checkpoint storage
	Store     string `yaml:"store"`
	RedisAddr string `yaml:"redis_addr"`
	DSN       string `yaml:"dsn"`

	// Research pipeline
	MaxAnalysts      int `yaml:"max_analysts"`
	MaxTurns         int `yaml:"max_turns"`
	MaxRegenerations int `yaml:"max_regenerations"`
	MaxConcurrency   int `yaml:"max_concurrency"`

	ReportPath string `yaml:"report_path"`
	Addr       string `yaml:"addr"`
	LogLevel   string `yaml:"log_level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider:         "openai",
		Store:            StoreMemory,
		RedisAddr:        "localhost:6379",
		DSN:              "scholar.db",
		MaxAnalysts:      3,
		MaxTurns:         2,
		MaxRegenerations: 5,
		MaxConcurrency:   4,
		ReportPath:       "final_report.md",
		Addr:             ":8080",
		LogLevel:         "info",
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded if present; path, when set, names a YAML file applied over the
// defaults. Environment variables win over both.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnvOrDefault("SCHOLAR_PROVIDER", c.Provider)
	c.Model = getEnvOrDefault("ORCHESTATOR_MODEL", c.Model)
	c.BaseURL = getEnvOrDefault("ORCHESTATOR_BASE_URL", c.BaseURL)
	c.OpenAIKey = getEnvOrDefault("OPENAI_API_KEY", c.OpenAIKey)
	c.AnthropicKey = getEnvOrDefault("ANTHROPIC_API_KEY", c.AnthropicKey)
	c.GoogleKey = getEnvOrDefault("GOOGLE_API_KEY", c.GoogleKey)
	c.TavilyKey = getEnvOrDefault("TAVILY_API_KEY", c.TavilyKey)
	c.Store = getEnvOrDefault("SCHOLAR_STORE", c.Store)
	c.RedisAddr = getEnvOrDefault("REDIS_ADDR", c.RedisAddr)
	c.DSN = getEnvOrDefault("SCHOLAR_DSN", c.DSN)
	c.MaxAnalysts = getEnvIntOrDefault("SCHOLAR_MAX_ANALYSTS", c.MaxAnalysts)
	c.MaxTurns = getEnvIntOrDefault("SCHOLAR_MAX_TURNS", c.MaxTurns)
	c.MaxRegenerations = getEnvIntOrDefault("SCHOLAR_MAX_REGENERATIONS", c.MaxRegenerations)
	c.MaxConcurrency = getEnvIntOrDefault("SCHOLAR_MAX_CONCURRENCY", c.MaxConcurrency)
	c.ReportPath = getEnvOrDefault("SCHOLAR_REPORT_PATH", c.ReportPath)
	c.Addr = getEnvOrDefault("SCHOLAR_ADDR", c.Addr)
	c.LogLevel = getEnvOrDefault("SCHOLAR_LOG_LEVEL", c.LogLevel)
}

// APIKey returns the key for the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case "anthropic":
		return c.AnthropicKey
	case "google":
		return c.GoogleKey
	default:
		return c.OpenAIKey
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	var errs []error

	switch c.Provider {
	case "openai":
		if c.OpenAIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai provider"))
		}
	case "anthropic":
		if c.AnthropicKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for anthropic provider"))
		}
	case "google":
		if c.GoogleKey == "" {
			errs = append(errs, errors.New("GOOGLE_API_KEY is required for google provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider: %s (must be openai, anthropic or google)", c.Provider))
	}

	switch c.Store {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for redis store"))
		}
	case StorePostgres:
		if c.DSN == "" {
			errs = append(errs, errors.New("SCHOLAR_DSN is required for postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store: %s (must be %s)", c.Store,
			strings.Join([]string{StoreMemory, StoreRedis, StoreSQLite, StorePostgres}, ", ")))
	}

	if c.MaxAnalysts < 1 {
		errs = append(errs, errors.New("SCHOLAR_MAX_ANALYSTS must be at least 1"))
	}
	if c.MaxTurns < 0 {
		errs = append(errs, errors.New("SCHOLAR_MAX_TURNS must not be negative"))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, errors.New("SCHOLAR_MAX_CONCURRENCY must be at least 1"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
