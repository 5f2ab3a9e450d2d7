package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/alpkeskin/gotoon"
	"github.com/pders01/scantrack/internal/clierr"
	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/models"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	statusJSON             bool
	statusToon             bool
	statusRequireCompleted bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current tracking record",
	Long: `Display the tracking record written by the last scantrack track run.

Examples:
  scantrack status
  scantrack status --json
  scantrack status --require-completed   # exit 3 if the scan was possibly skipped`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVar(&statusToon, "toon", false, "Output in LLM-friendly toon format")
	statusCmd.Flags().BoolVar(&statusRequireCompleted, "require-completed", false, "Fail unless the last scan completed")
}

func runStatus(cmd *cobra.Command, args []string) error {
	path := repoPath(commandContext(cmd), config.GetTrackerFile())

	record, err := tracker.ReadRecord(path)
	if err != nil {
		return fmt.Errorf("no tracking record at %s: %w", path, err)
	}

	switch {
	case statusJSON:
		output, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	case statusToon:
		output, err := gotoon.Encode(record)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
	default:
		printRecord(record, term.IsTerminal(int(os.Stdout.Fd())))
	}

	if statusRequireCompleted && !record.Completed() {
		return clierr.New(clierr.CodeScanSkipped, "secret scan was possibly skipped for the last commit")
	}
	return nil
}

const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

// statusLabel renders the scan status, coloured when writing to a terminal
func statusLabel(status models.ScanStatus, color bool) string {
	if !color {
		return string(status)
	}
	if status == models.StatusCompleted {
		return ansiGreen + string(status) + ansiReset
	}
	return ansiYellow + string(status) + ansiReset
}

func printRecord(record *models.TrackingRecord, color bool) {
	fmt.Printf("Scan Status:   %s\n", statusLabel(record.ScanStatus, color))
	fmt.Printf("Recorded:      %s\n", record.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Commit:        %s\n", record.CommitHash)
	fmt.Printf("Branch:        %s\n", record.Branch)
	fmt.Printf("User:          %s\n", record.UserEmail)

	if record.CommitSource != "" {
		fmt.Printf("Source:        %s\n", record.CommitSource)
	}
	fmt.Printf("Run:           %s\n", record.RunID)
	fmt.Printf("Schema:        %s\n", record.SchemaVersion)

	if len(record.ToolVersions) > 0 {
		fmt.Println("\nTool Versions:")
		tools := make([]string, 0, len(record.ToolVersions))
		for tool := range record.ToolVersions {
			tools = append(tools, tool)
		}
		sort.Strings(tools)
		for _, tool := range tools {
			fmt.Printf("  %-12s %s\n", tool, record.ToolVersions[tool])
		}
	}

	if record.Warning != "" {
		fmt.Printf("\nWarning: %s\n", record.Warning)
	}
}
