package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgnorm/pkgnorm/internal/core/db"
	"github.com/pkgnorm/pkgnorm/internal/core/pipeline"
)

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Import a JSONL package dump into the store",
	Long:  `Reads one JSON package record per line from the given file (or stdin) and inserts each as a pending package.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
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

	var reader io.Reader = os.Stdin
	if len(args) == 1 {
		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open dump: %w", err)
		}
		defer file.Close()
		reader = file
	}

	count, err := pipeline.ImportJSONL(queries, reader)
	if err != nil {
		return fmt.Errorf("import failed after %d packages: %w", count, err)
	}

	logger.Info().Int("packages", count).Msg("dump imported")
	fmt.Printf("%d packages imported\n", count)
	return nil
}
