package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/agtrack/internal/pipeline"
	"github.com/ppiankov/agtrack/internal/registry"
	"github.com/ppiankov/agtrack/internal/seed"
)

var (
	seedPath       string
	outJSON        string
	workers        int
	fuzzyThreshold float64
	dedupWindow    int
	noCache        bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <records.json>",
	Short: "Resolve a batch of enforcement records to canonical entities",
	Long: `Resolve reads a batch of scraped enforcement records, resolves every
defendant name to a canonical entity (exact alias lookup, then fuzzy
matching), promotes recurring novel names to new entities, groups
cross-state mentions of the same settlement, and scores every record.

The run is atomic: entity and merge state is committed only on success,
so an interrupted run leaves no partial state.

Example:
  agtrack resolve records.json
  agtrack resolve records.json --seed aliases.yaml --out result.json
  agtrack resolve records.json --workers 1    # force sequential mode`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&seedPath, "seed", "", "curated alias table (YAML)")
	resolveCmd.Flags().StringVar(&outJSON, "out", "result.json", "output JSON path")
	resolveCmd.Flags().IntVar(&workers, "workers", 0, "resolution workers (0 = config default, 1 = sequential)")
	resolveCmd.Flags().Float64Var(&fuzzyThreshold, "fuzzy-threshold", 0, "minimum fuzzy similarity (0 = config default)")
	resolveCmd.Flags().IntVar(&dedupWindow, "dedup-window", 0, "settlement date window in days (0 = config default)")
	resolveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable normalization memoization")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg := loadConfig()
	if workers > 0 {
		cfg.Concurrency.Workers = workers
	}
	if fuzzyThreshold > 0 {
		cfg.Resolver.FuzzyThreshold = fuzzyThreshold
	}
	if dedupWindow > 0 {
		cfg.Dedup.WindowDays = dedupWindow
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	records, err := pipeline.LoadRecords(args[0])
	if err != nil {
		return err
	}
	logger.Debug().Int("records", len(records)).Str("path", args[0]).Msg("loaded records")

	var seeds *seed.Table
	if seedPath != "" {
		seeds, err = seed.Load(seedPath)
		if err != nil {
			return err
		}
		logger.Debug().Int("entities", len(seeds.Entities)).Str("path", seedPath).Msg("loaded seed table")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := registry.New(logger)
	p := pipeline.NewPipeline(cfg, reg, logger)

	result, err := p.Run(ctx, records, seeds)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	renderer := pipeline.NewRenderer(10)
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	renderer.RenderSummary(result)

	return nil
}
