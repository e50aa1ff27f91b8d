package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgnorm/pkgnorm/internal/core/pipeline"
	"github.com/pkgnorm/pkgnorm/internal/rules"
)

var lintCmd = &cobra.Command{
	Use:   "lint [dump]",
	Short: "Check a rule set against a package dump",
	Long: `Compiles the rule set, runs a JSONL package dump (file or stdin) through
it without writing anywhere, and reports rules that matched nothing. A
rule set that compiles and leaves no rule unused exits 0.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().Bool("strict", false, "exit non-zero when any rule is unused")
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ruleSet, err := rules.NewRuleSetFromFile(cfg.RulesPath)
	if err != nil {
		return fmt.Errorf("rule set does not compile: %w", err)
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

	count, err := pipeline.ProcessJSONL(ruleSet, reader)
	if err != nil {
		return fmt.Errorf("dump processing failed after %d packages: %w", count, err)
	}

	unused := ruleSet.UnusedRules()
	for _, text := range unused {
		fmt.Printf("unused: %s\n", text)
	}
	fmt.Printf("%d rules, %d packages, %d unused\n", ruleSet.Len(), count, len(unused))

	strict, _ := cmd.Flags().GetBool("strict")
	if strict && len(unused) > 0 {
		return fmt.Errorf("%d unused rules", len(unused))
	}
	return nil
}
