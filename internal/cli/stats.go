package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/agtrack/internal/model"
	"github.com/ppiankov/agtrack/internal/pipeline"
)

var statsTop int

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <result.json>",
	Short: "Print aggregate statistics from a previous run",
	Long: `Stats reads the JSON output of a resolve run and prints the rollups:
settled totals and record counts by entity, state, category, and year.

Settlement totals follow the counted-once contract: a multistate
settlement contributes its amount a single time no matter how many
states announced it.

Example:
  agtrack stats result.json
  agtrack stats result.json --top 25`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsTop, "top", 10, "entities to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}

	var result model.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("parse result: %w", err)
	}

	renderer := pipeline.NewRenderer(statsTop)
	renderer.RenderSummary(&result)

	printBuckets("By state", result.Rollup.ByState)
	printBuckets("By category", result.Rollup.ByCategory)
	printBuckets("By year", result.Rollup.ByYear)

	return nil
}

func printBuckets(title string, buckets []model.BucketRollup) {
	if len(buckets) == 0 {
		return
	}
	fmt.Printf("  %s:\n", title)
	for _, b := range buckets {
		fmt.Printf("    %-24s %6d records  %14s\n", b.Key, b.Records, pipeline.FormatCents(b.Total))
	}
	fmt.Println()
}
