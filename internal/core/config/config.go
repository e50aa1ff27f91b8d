// Package config provides configuration management for pkgnorm commands.
package config

import "fmt"

// Config holds configuration for the normalization pipeline.
type Config struct {
	RulesPath   string
	DatabaseURL string
	Workers     int
	BatchSize   int
	LogLevel    string
	LogFormat   string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		RulesPath:   "rules.yaml",
		DatabaseURL: "",
		Workers:     4,
		BatchSize:   1000,
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Validate checks worker and batch counts, the rules path and the log format.
// LoadConfig runs it on the loaded values; callers that mutate a config
// afterwards (flag overrides) must run it again before use.
func (cfg *Config) Validate() error {
	if cfg.RulesPath == "" {
		return fmt.Errorf("rules_path must not be empty")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", cfg.BatchSize)
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", cfg.LogFormat)
	}
	return nil
}
