package usagemeter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level metering configuration.
type Config struct {
	Rates          Rates           `yaml:"rates"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	MaxOutputUnits int64           `yaml:"max_output_units"`
	KeyPrefix      string          `yaml:"key_prefix"`
}

// RateLimitConfig configures the per-account fixed-window limiter.
type RateLimitConfig struct {
	WindowSeconds int `yaml:"window_seconds"`
	MaxRequests   int `yaml:"max_requests"`
}

// DefaultConfig returns the compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		Rates:          Rates{In: 3, Out: 15},
		RateLimit:      RateLimitConfig{WindowSeconds: 60, MaxRequests: 60},
		MaxOutputUnits: 100_000,
		KeyPrefix:      "usagemeter:",
	}
}

// LoadConfig reads and parses a YAML config file over the defaults.
// Environment variables in the format ${VAR} are expanded before parsing.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("usagemeter: read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("usagemeter: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the config for required fields and consistency.
func (c Config) Validate() error {
	if c.Rates.In <= 0 {
		return fmt.Errorf("usagemeter: config: rates.in must be positive, got %v", c.Rates.In)
	}
	if c.Rates.Out <= 0 {
		return fmt.Errorf("usagemeter: config: rates.out must be positive, got %v", c.Rates.Out)
	}
	if c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("usagemeter: config: rate_limit.window_seconds must be positive, got %d", c.RateLimit.WindowSeconds)
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("usagemeter: config: rate_limit.max_requests must be positive, got %d", c.RateLimit.MaxRequests)
	}
	if c.MaxOutputUnits <= 0 {
		return fmt.Errorf("usagemeter: config: max_output_units must be positive, got %d", c.MaxOutputUnits)
	}
	return nil
}

// withDefaults fills zero-valued fields from DefaultConfig so a Config
// built in code does not have to spell out every knob.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Rates.In == 0 {
		c.Rates.In = def.Rates.In
	}
	if c.Rates.Out == 0 {
		c.Rates.Out = def.Rates.Out
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = def.RateLimit.WindowSeconds
	}
	if c.RateLimit.MaxRequests == 0 {
		c.RateLimit.MaxRequests = def.RateLimit.MaxRequests
	}
	if c.MaxOutputUnits == 0 {
		c.MaxOutputUnits = def.MaxOutputUnits
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = def.KeyPrefix
	}
	return c
}
