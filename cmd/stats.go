package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/scantrack/internal/git"
	"github.com/pders01/scantrack/internal/models"
	"github.com/spf13/cobra"
)

var (
	statsSince string
	statsJSON  bool
	statsToon  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show secret scan statistics",
	Long: `Display statistics about committed tracking records including:
  - Completed vs possibly skipped scans
  - Skip rate per branch and per user
  - Date range

Examples:
  scantrack stats
  scantrack stats --since 2025-10-01 --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsSince, "since", "", "Only count records since date (YYYY-MM-DD)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

type scanStats struct {
	TotalRecords    int          `json:"total_records"`
	Completed       int          `json:"completed"`
	PossiblySkipped int          `json:"possibly_skipped"`
	SkipRate        float64      `json:"skip_rate"`
	Oldest          *time.Time   `json:"oldest,omitempty"`
	Newest          *time.Time   `json:"newest,omitempty"`
	ByBranch        []groupStats `json:"by_branch"`
	ByUser          []groupStats `json:"by_user"`
}

type groupStats struct {
	Name            string `json:"name"`
	Completed       int    `json:"completed"`
	PossiblySkipped int    `json:"possibly_skipped"`
}

func (g groupStats) total() int {
	return g.Completed + g.PossiblySkipped
}

// computeStats aggregates entries; it is separate from I/O for testing
func computeStats(entries []historyEntry) *scanStats {
	stats := &scanStats{}
	branches := make(map[string]*groupStats)
	users := make(map[string]*groupStats)

	count := func(m map[string]*groupStats, key string, completed bool) {
		g, ok := m[key]
		if !ok {
			g = &groupStats{Name: key}
			m[key] = g
		}
		if completed {
			g.Completed++
		} else {
			g.PossiblySkipped++
		}
	}

	for _, e := range entries {
		r := e.Record
		stats.TotalRecords++
		if r.Completed() {
			stats.Completed++
		} else {
			stats.PossiblySkipped++
		}
		count(branches, r.Branch, r.Completed())
		count(users, r.UserEmail, r.Completed())

		ts := r.Timestamp
		if stats.Oldest == nil || ts.Before(*stats.Oldest) {
			stats.Oldest = &ts
		}
		if stats.Newest == nil || ts.After(*stats.Newest) {
			stats.Newest = &ts
		}
	}

	if stats.TotalRecords > 0 {
		stats.SkipRate = float64(stats.PossiblySkipped) / float64(stats.TotalRecords)
	}
	stats.ByBranch = sortedGroups(branches)
	stats.ByUser = sortedGroups(users)
	return stats
}

// sortedGroups orders by record count, then name
func sortedGroups(m map[string]*groupStats) []groupStats {
	groups := make([]groupStats, 0, len(m))
	for _, g := range m {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].total() != groups[j].total() {
			return groups[i].total() > groups[j].total()
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	repo := git.NewRepo("")
	if !repo.IsGitRepo(ctx) {
		return fmt.Errorf("not a git repository")
	}

	since, err := parseSince(statsSince)
	if err != nil {
		return err
	}

	entries, err := loadHistory(ctx, repo, 0, since)
	if err != nil {
		return err
	}
	stats := computeStats(entries)

	if statsJSON {
		output, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if statsToon {
		output, err := gotoon.Encode(stats)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	fmt.Println("Secret Scan Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Printf("Total Records:    %d\n", stats.TotalRecords)
	if stats.Oldest != nil && stats.Newest != nil {
		fmt.Printf("Date Range:       %s to %s\n",
			stats.Oldest.Format("2006-01-02"),
			stats.Newest.Format("2006-01-02"))
	}
	if stats.TotalRecords == 0 {
		return nil
	}
	fmt.Println()

	fmt.Println("By Status:")
	fmt.Printf("  %-18s %3d  (%.1f%%)\n", models.StatusCompleted, stats.Completed, (1-stats.SkipRate)*100)
	fmt.Printf("  %-18s %3d  (%.1f%%)\n", models.StatusPossiblySkipped, stats.PossiblySkipped, stats.SkipRate*100)
	fmt.Println()

	printGroups("By Branch:", stats.ByBranch)
	printGroups("By User:", stats.ByUser)
	return nil
}

func printGroups(title string, groups []groupStats) {
	if len(groups) == 0 {
		return
	}
	fmt.Println(title)
	limit := 10
	if len(groups) < limit {
		limit = len(groups)
	}
	for _, g := range groups[:limit] {
		fmt.Printf("  %-30s %3d completed  %3d skipped\n", truncate(g.Name, 30), g.Completed, g.PossiblySkipped)
	}
	fmt.Println()
}
