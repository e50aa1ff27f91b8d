package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/pkgnorm/pkgnorm/internal/core/db"
	"github.com/pkgnorm/pkgnorm/internal/core/pipeline"
	"github.com/pkgnorm/pkgnorm/internal/rules"
	"github.com/pkgnorm/pkgnorm/internal/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Run one normalization batch against the package store",
	RunE:  runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().Int("workers", 0, "worker goroutines (default from config)")
	normalizeCmd.Flags().Int("batch-size", 0, "packages per batch (default from config)")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("workers") {
		workers, _ := cmd.Flags().GetInt("workers")
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("batch-size") {
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		cfg.BatchSize = batchSize
	}

	// Flag overrides bypass LoadConfig's validation, so check again
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("--db-url required")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	if err := requireMigrated(database); err != nil {
		return err
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	// Rule errors surface here, before any package is touched
	ruleSet, err := rules.NewRuleSetFromFile(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rule set: %w", err)
	}

	runner, err := pipeline.NewRunner(queries, ruleSet, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if errors.Is(err, types.ErrNoPackages) {
		logger.Info().Msg("no pending packages")
		return nil
	}
	if err != nil {
		return err
	}

	for _, text := range ruleSet.UnusedRules() {
		logger.Warn().Str("rule", text).Msg("rule matched no package")
	}

	fmt.Printf("run %s: %d processed, %d ignored, %d renamed, %d unused rules\n",
		result.RunID, result.Processed, result.Ignored, result.Renamed, result.UnusedRules)
	return nil
}

// requireMigrated fails when any embedded migration has not been applied.
func requireMigrated(database *sqlx.DB) error {
	statuses, err := db.MigrateStatus(database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			return fmt.Errorf("migration %s not applied - run 'pkgnorm migrate' first", s.ID)
		}
	}
	return nil
}
