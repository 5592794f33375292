package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"hotelbot/internal/logger"
)

// ModelConfig selects and tunes the generation backend.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // ollama, openai, ark or deepseek
	Name        string  `yaml:"name"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RetryConfig shapes the gateway's transient-failure envelope. Attempt k
// waits 2^k backoff units before the next call.
type RetryConfig struct {
	MaxAttempts       int `yaml:"max_attempts"`
	BackoffUnitMillis int `yaml:"backoff_unit_ms"`
}

// BackoffUnit returns the base backoff wait as a duration.
func (r RetryConfig) BackoffUnit() time.Duration {
	return time.Duration(r.BackoffUnitMillis) * time.Millisecond
}

// SessionConfig selects the short-term history backend.
type SessionConfig struct {
	Backend    string `yaml:"backend"` // memory or redis
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// MemoryConfig selects the long-term store backend.
type MemoryConfig struct {
	Backend       string `yaml:"backend"` // json or sqlite
	JSONPath      string `yaml:"json_path"`
	SQLitePath    string `yaml:"sqlite_path"`
	ContextWindow int    `yaml:"context_window"`
}

// ConsolidatorConfig selects how preferences are derived from a turn.
type ConsolidatorConfig struct {
	Strategy string `yaml:"strategy"` // heuristic or summary
}

// Secrets come from the environment only, never from the YAML file.
type Secrets struct {
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	ArkAPIKey      string `envconfig:"ARK_API_KEY"`
	DeepseekAPIKey string `envconfig:"DEEPSEEK_API_KEY"`
	RedisURL       string `envconfig:"REDIS_URL"`
}

// Config is the full runtime configuration.
type Config struct {
	Model        ModelConfig        `yaml:"model"`
	Retry        RetryConfig        `yaml:"retry"`
	Session      SessionConfig      `yaml:"session"`
	Memory       MemoryConfig       `yaml:"memory"`
	Consolidator ConsolidatorConfig `yaml:"consolidator"`
	Log          logger.Config      `yaml:"log"`
	Secrets      Secrets            `yaml:"-"`
}

// Default returns a configuration targeting a local Ollama server with
// JSON-file long-term memory.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "ollama",
			Name:        "llama3.1:8b",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.7,
		},
		Retry: RetryConfig{
			MaxAttempts:       3,
			BackoffUnitMillis: 1000,
		},
		Session: SessionConfig{
			Backend:    "memory",
			TTLSeconds: 3600,
		},
		Memory: MemoryConfig{
			Backend:       "json",
			JSONPath:      "data/long_term_memory.json",
			SQLitePath:    "data/long_term_memory.db",
			ContextWindow: 3,
		},
		Consolidator: ConsolidatorConfig{
			Strategy: "summary",
		},
		Log: logger.Config{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}

// Load reads the YAML config file at path, applies defaults for unset
// fields, and fills secrets from the environment. A missing file is not an
// error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Model.Provider {
	case "ollama", "openai", "ark", "deepseek":
	default:
		return fmt.Errorf("unknown model provider '%s'", c.Model.Provider)
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend '%s'", c.Session.Backend)
	}
	switch c.Memory.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown memory backend '%s'", c.Memory.Backend)
	}
	switch c.Consolidator.Strategy {
	case "heuristic", "summary":
	default:
		return fmt.Errorf("unknown consolidator strategy '%s'", c.Consolidator.Strategy)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
