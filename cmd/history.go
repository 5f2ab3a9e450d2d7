package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/git"
	"github.com/pders01/scantrack/internal/models"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/spf13/cobra"
)

var (
	historySince string
	historyLimit int
	historyJSON  bool
	historyToon  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List tracking records committed over time",
	Long: `List the tracking records stored in past commits, newest first.

Examples:
  scantrack history
  scantrack history --since 2025-10-01
  scantrack history --limit 20 --json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historySince, "since", "", "Show records since date (YYYY-MM-DD)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of commits to inspect (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.Flags().BoolVar(&historyToon, "toon", false, "Output in LLM-friendly toon format")
}

// historyEntry pairs a committed tracking record with the commit storing it.
// The hook stages the record after git has built the commit's tree, so a
// record is stored by a later commit than the one it was scanned for. The
// record's own commit_hash is HEAD at scan time.
type historyEntry struct {
	StoredIn string                 `json:"stored_in"`
	Record   *models.TrackingRecord `json:"record"`
}

// loadHistory reads the tracker file from every commit that changed it
func loadHistory(ctx context.Context, repo *git.Repo, limit int, since time.Time) ([]historyEntry, error) {
	file := config.GetTrackerFile()
	// :/ anchors the pathspec at the work tree root
	revs, err := repo.FileRevisions(ctx, ":/"+file, limit)
	if err != nil {
		return nil, err
	}

	var entries []historyEntry
	for _, rev := range revs {
		content, err := repo.Show(ctx, rev, file)
		if err != nil {
			// deleted in this commit
			continue
		}
		record, err := tracker.ParseRecord([]byte(content))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping %s: %v\n", shortHash(rev), err)
			continue
		}
		if !since.IsZero() && record.Timestamp.Before(since) {
			continue
		}
		entries = append(entries, historyEntry{StoredIn: rev, Record: record})
	}
	return entries, nil
}

func parseSince(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
	}
	return t, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	repo := git.NewRepo("")
	if !repo.IsGitRepo(ctx) {
		return fmt.Errorf("not a git repository")
	}

	since, err := parseSince(historySince)
	if err != nil {
		return err
	}

	entries, err := loadHistory(ctx, repo, historyLimit, since)
	if err != nil {
		return err
	}

	if historyJSON {
		output, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if historyToon {
		output, err := gotoon.Encode(entries)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No tracking records found")
		return nil
	}

	fmt.Printf("%-10s %-10s %-20s %-18s %-20s %s\n", "SCANNED ON", "STORED IN", "RECORDED", "STATUS", "BRANCH", "USER")
	for _, e := range entries {
		fmt.Printf("%-10s %-10s %-20s %-18s %-20s %s\n",
			shortHash(e.Record.CommitHash),
			shortHash(e.StoredIn),
			e.Record.Timestamp.Format("2006-01-02 15:04"),
			e.Record.ScanStatus,
			truncate(e.Record.Branch, 20),
			e.Record.UserEmail,
		)
	}
	fmt.Printf("\n%d record(s)\n", len(entries))
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
