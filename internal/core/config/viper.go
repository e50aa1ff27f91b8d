package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flag overrides
// are applied by the command layer after loading.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults matching DefaultConfig
	v.SetDefault("pipeline.rules_path", "rules.yaml")
	v.SetDefault("pipeline.database_url", "")
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.batch_size", 1000)
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "json")

	// Bind environment variables with PKGNORM_ prefix
	v.SetEnvPrefix("PKGNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		RulesPath:   v.GetString("pipeline.rules_path"),
		DatabaseURL: v.GetString("pipeline.database_url"),
		Workers:     v.GetInt("pipeline.workers"),
		BatchSize:   v.GetInt("pipeline.batch_size"),
		LogLevel:    v.GetString("pipeline.log_level"),
		LogFormat:   v.GetString("pipeline.log_format"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
