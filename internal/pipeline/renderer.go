package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/agtrack/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes run results to disk and the console.
type Renderer struct {
	topEntities int
}

// NewRenderer creates a new renderer. topEntities bounds the console
// leaderboard.
func NewRenderer(topEntities int) *Renderer {
	if topEntities <= 0 {
		topEntities = 10
	}
	return &Renderer{topEntities: topEntities}
}

// RenderJSON writes the complete result to a JSON file.
func (r *Renderer) RenderJSON(result *model.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// RenderSummary prints a console summary of the run.
func (r *Renderer) RenderSummary(result *model.Result) {
	ru := result.Rollup

	fmt.Println(rule)
	fmt.Println("  Resolution Summary")
	fmt.Println(rule)
	fmt.Println()
	fmt.Printf("  Records:             %d\n", ru.TotalRecords)
	fmt.Printf("  Resolved:            %d (%d unresolved)\n", ru.ResolvedRecords, ru.UnresolvedRecords)
	fmt.Printf("  Canonical entities:  %d\n", len(result.Entities))
	fmt.Printf("  Settlement groups:   %d\n", len(result.Groups))
	fmt.Printf("  Settlement total:    %s\n", FormatCents(ru.SettlementTotal))
	if ru.NeedsReviewGroups > 0 {
		fmt.Printf("  Needs review:        %d group(s)\n", ru.NeedsReviewGroups)
	}
	if len(result.Merges) > 0 {
		fmt.Printf("  Merges:              %d\n", len(result.Merges))
	}
	fmt.Printf("  Multistate entities: %d\n", ru.MultistateEntities)
	fmt.Println()

	if len(ru.ByEntity) > 0 {
		fmt.Println("  Top entities by settled amount:")
		limit := r.topEntities
		if len(ru.ByEntity) < limit {
			limit = len(ru.ByEntity)
		}
		for _, e := range ru.ByEntity[:limit] {
			fmt.Printf("    %-40s %12s  (%d records, %d states)\n",
				truncate(e.CanonicalName, 40), FormatCents(e.Total), e.Records, e.States)
		}
		fmt.Println()
	}
	fmt.Println(rule)
}

// FormatCents renders a cent amount as dollars with thousands separators.
func FormatCents(c model.Cents) string {
	if c == 0 {
		return "$0"
	}
	dollars := int64(c) / 100
	rem := int64(c) % 100

	sign := ""
	if dollars < 0 {
		sign = "-"
		dollars = -dollars
		rem = -rem
	}

	var groups []string
	for dollars >= 1000 {
		groups = append([]string{fmt.Sprintf("%03d", dollars%1000)}, groups...)
		dollars /= 1000
	}
	groups = append([]string{fmt.Sprintf("%d", dollars)}, groups...)

	out := sign + "$" + groups[0]
	for _, g := range groups[1:] {
		out += "," + g
	}
	if rem != 0 {
		out += fmt.Sprintf(".%02d", rem)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
