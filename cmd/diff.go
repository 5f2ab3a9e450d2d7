package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/git"
	"github.com/pders01/scantrack/internal/models"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
)

var (
	diffJSON bool
	diffToon bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [rev]",
	Short: "Compare the tracker file with a committed version",
	Long: `Compare the working tree tracking record with the one committed at rev
(default HEAD) and show which fields changed.

Examples:
  scantrack diff
  scantrack diff HEAD~3 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output as JSON")
	diffCmd.Flags().BoolVar(&diffToon, "toon", false, "Output in LLM-friendly toon format")
}

type recordDiff struct {
	Rev     string        `json:"rev"`
	Changes []fieldChange `json:"changes"`
	Patch   string        `json:"patch"`
}

type fieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// compareRecords lists the fields that differ between two records
func compareRecords(from, to *models.TrackingRecord) []fieldChange {
	pairs := []struct {
		field    string
		from, to string
	}{
		{"timestamp", from.Timestamp.Format(time.RFC3339), to.Timestamp.Format(time.RFC3339)},
		{"commit_hash", from.CommitHash, to.CommitHash},
		{"branch", from.Branch, to.Branch},
		{"user_email", from.UserEmail, to.UserEmail},
		{"scan_status", string(from.ScanStatus), string(to.ScanStatus)},
		{"warning", from.Warning, to.Warning},
		{"commit_source", from.CommitSource, to.CommitSource},
		{"run_id", from.RunID, to.RunID},
		{"schema_version", from.SchemaVersion, to.SchemaVersion},
	}

	var changes []fieldChange
	for _, p := range pairs {
		if p.from != p.to {
			changes = append(changes, fieldChange{Field: p.field, From: p.from, To: p.to})
		}
	}

	tools := make(map[string]bool)
	for tool := range from.ToolVersions {
		tools[tool] = true
	}
	for tool := range to.ToolVersions {
		tools[tool] = true
	}
	for _, tool := range sortedKeys(tools) {
		if from.ToolVersions[tool] != to.ToolVersions[tool] {
			changes = append(changes, fieldChange{
				Field: "tool_versions." + tool,
				From:  from.ToolVersions[tool],
				To:    to.ToolVersions[tool],
			})
		}
	}
	return changes
}

// lineDiff renders a unified-style line diff of two texts
func lineDiff(from, to string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	repo := git.NewRepo("")
	if !repo.IsGitRepo(ctx) {
		return fmt.Errorf("not a git repository")
	}

	rev := "HEAD"
	if len(args) > 0 {
		rev = args[0]
	}

	file := config.GetTrackerFile()
	committed, err := repo.Show(ctx, rev, file)
	if err != nil {
		return err
	}
	current, err := os.ReadFile(repoPath(ctx, file))
	if err != nil {
		return fmt.Errorf("failed to read tracker file: %w", err)
	}

	fromRecord, err := tracker.ParseRecord([]byte(committed))
	if err != nil {
		return fmt.Errorf("record at %s: %w", rev, err)
	}
	toRecord, err := tracker.ParseRecord(current)
	if err != nil {
		return fmt.Errorf("working tree record: %w", err)
	}

	diff := &recordDiff{
		Rev:     rev,
		Changes: compareRecords(fromRecord, toRecord),
		Patch:   lineDiff(committed, string(current)),
	}

	if diffJSON {
		output, err := json.MarshalIndent(diff, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	if diffToon {
		output, err := gotoon.Encode(diff)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	fmt.Printf("Tracking Record: %s → working tree\n", rev)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if len(diff.Changes) == 0 {
		fmt.Println("No changes")
		return nil
	}
	for _, c := range diff.Changes {
		fmt.Printf("%-22s %s → %s\n", c.Field+":", orNone(c.From), orNone(c.To))
	}
	fmt.Println()
	fmt.Print(diff.Patch)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
