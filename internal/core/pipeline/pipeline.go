// Package pipeline runs batch package normalization against the store.
//
// The engine itself does no I/O: the pipeline loads a batch of pending
// packages, fans them out to workers sharing one compiled RuleSet, merges the
// workers' match counters at the batch barrier, and writes results back. One
// run row keyed by a UUIDv7 RunID records each batch for auditing.
package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pkgnorm/pkgnorm/internal/core/config"
	"github.com/pkgnorm/pkgnorm/internal/core/db"
	"github.com/pkgnorm/pkgnorm/internal/rules"
	"github.com/pkgnorm/pkgnorm/internal/types"
)

// Runner wires the compiled rule set to the package store.
type Runner struct {
	queries *db.Queries
	rules   *rules.RuleSet
	cfg     *config.Config
	log     zerolog.Logger
}

// NewRunner creates a pipeline runner with its dependencies. The config is
// validated here so a mutated one (flag overrides) cannot reach the worker
// fan-out with a non-positive worker or batch count.
func NewRunner(queries *db.Queries, ruleSet *rules.RuleSet, cfg *config.Config, log zerolog.Logger) (*Runner, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	if ruleSet == nil {
		return nil, fmt.Errorf("ruleSet cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Runner{
		queries: queries,
		rules:   ruleSet,
		cfg:     cfg,
		log:     log.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Result summarizes one normalization run.
type Result struct {
	RunID       types.RunID
	Processed   int
	Ignored     int
	Renamed     int
	UnusedRules int
}

// packageRow pairs a store row id with the package record passed to the
// engine.
type packageRow struct {
	ID int64 `db:"id"`
	types.Package
}

// Run processes one batch of pending packages. Returns types.ErrNoPackages
// when the store has nothing pending.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now().UTC()
	runID := types.NewRunID()

	var rows []packageRow
	if err := r.queries.Select("list-pending-packages", &rows, r.cfg.BatchSize); err != nil {
		return nil, fmt.Errorf("failed to load pending packages: %w", err)
	}
	if len(rows) == 0 {
		return nil, types.ErrNoPackages
	}

	r.log.Info().
		Str("run_id", string(runID)).
		Int("packages", len(rows)).
		Int("rules", r.rules.Len()).
		Msg("normalization run started")

	if err := r.transformAll(ctx, rows); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Processed: len(rows)}
	for i := range rows {
		pkg := &rows[i].Package
		if pkg.Ignore {
			result.Ignored++
		}
		if pkg.EffName != pkg.Name {
			result.Renamed++
		}
		if _, err := r.queries.Exec("update-package-result",
			pkg.EffName, pkg.Ignore, pkg.IgnoreVersion, string(runID), rows[i].ID); err != nil {
			return nil, fmt.Errorf("failed to store result for package %d: %w", rows[i].ID, err)
		}
	}

	result.UnusedRules = len(r.rules.UnusedRules())

	if _, err := r.queries.Exec("insert-run",
		string(runID),
		started.Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		result.Processed,
		result.Ignored,
		result.Renamed,
		result.UnusedRules,
	); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	r.log.Info().
		Str("run_id", string(runID)).
		Int("processed", result.Processed).
		Int("ignored", result.Ignored).
		Int("renamed", result.Renamed).
		Int("unused_rules", result.UnusedRules).
		Dur("elapsed", time.Since(started)).
		Msg("normalization run finished")

	return result, nil
}

// transformAll fans the batch out to workers. Each worker keeps a local
// counter block; all blocks merge into the rule set at the barrier so the
// hot loop never touches shared cache lines.
func (r *Runner) transformAll(ctx context.Context, rows []packageRow) error {
	workers := r.cfg.Workers
	if workers > len(rows) {
		workers = len(rows)
	}

	jobs := make(chan int)
	blocks := make([]rules.Counters, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		counters := r.rules.NewCounters()
		blocks[w] = counters
		wg.Add(1)
		go func(counters rules.Counters) {
			defer wg.Done()
			for i := range jobs {
				r.rules.TransformCounted(&rows[i].Package, counters)
			}
		}(counters)
	}

	var err error
feed:
	for i := range rows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for _, counters := range blocks {
		r.rules.MergeCounters(counters)
	}

	return err
}

// ImportJSONL loads package records from a JSONL stream into the store, one
// JSON object per line. Blank lines are skipped. Returns the inserted count.
func ImportJSONL(queries *db.Queries, reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count := 0
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var pkg types.Package
		if err := json.Unmarshal(text, &pkg); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		if pkg.Name == "" {
			return count, fmt.Errorf("line %d: package name required", line)
		}

		if _, err := queries.Exec("insert-package", pkg.Name, pkg.Version, pkg.Category, pkg.Family); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// ProcessJSONL runs a JSONL package stream through the rule set without
// touching the store, feeding the match counters used by UnusedRules. The
// offline half of rule-set linting.
func ProcessJSONL(ruleSet *rules.RuleSet, reader io.Reader) (int, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	count := 0
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var pkg types.Package
		if err := json.Unmarshal(text, &pkg); err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}

		ruleSet.Transform(&pkg)
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}
