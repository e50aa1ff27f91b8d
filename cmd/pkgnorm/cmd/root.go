package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pkgnorm/pkgnorm/internal/core/config"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	rulesPath  string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "pkgnorm",
	Short: "pkgnorm package metadata normalizer",
	Long:  `pkgnorm rewrites raw package metadata into canonical form using a declarative YAML rule set.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "rule set YAML file (default rules.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (json, console)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the config file, then applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if rulesPath != "" {
		cfg.RulesPath = rulesPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	return cfg, nil
}

// setupLogger builds the process logger from config. Console format is for
// interactive use, JSON for log collection.
func setupLogger(cfg *config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		logger = zerolog.New(writer)
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Logger(), nil
}
