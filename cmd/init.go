package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/git"
	"github.com/pders01/scantrack/internal/hooks"
	"github.com/spf13/cobra"
)

var initNoInstall bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up gitleaks and scantrack hooks in the current repository",
	Long: `Configure pre-commit to run gitleaks and record every scan.

This command:
  - Writes .pre-commit-config.yaml with the gitleaks hook and the scantrack
    prepare-commit-msg hook (an existing file is never overwritten)
  - Writes a default .scantrack.toml
  - Adds the scan report to .gitignore
  - Runs pre-commit install for the pre-commit and prepare-commit-msg hooks

Run this once per repository.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initNoInstall, "no-install", false, "Skip running pre-commit install")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out, errOut := stdout(cmd), stderr(cmd)
	repo := git.NewRepo("")
	if !repo.IsGitRepo(ctx) {
		return fmt.Errorf("not a git repository")
	}

	root, err := repo.TopLevel(ctx)
	if err != nil {
		return err
	}

	if err := writePreCommitConfig(root, out); err != nil {
		return err
	}

	configPath := filepath.Join(root, config.FileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		data, err := config.Default().Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Fprintf(out, "✓ Created default config: %s\n", configPath)
	} else {
		fmt.Fprintf(out, "Config already exists: %s\n", configPath)
	}

	if err := ensureIgnored(filepath.Join(root, ".gitignore"), config.GetReportFile()); err != nil {
		fmt.Fprintf(errOut, "Warning: failed to update .gitignore: %v\n", err)
	}

	if !initNoInstall {
		switch err := hooks.Install(ctx, root); {
		case errors.Is(err, hooks.ErrPreCommitMissing):
			fmt.Fprintln(errOut, "Warning: pre-commit is not installed, hooks were not activated")
			fmt.Fprintln(errOut, "Tip: pip3 install pre-commit && pre-commit install --hook-type pre-commit --hook-type prepare-commit-msg")
		case err != nil:
			fmt.Fprintf(errOut, "Warning: %v\n", err)
		default:
			fmt.Fprintln(out, "✓ Installed pre-commit and prepare-commit-msg hooks")
		}
	}

	if err := reportHooks(ctx, repo, out); err != nil {
		fmt.Fprintf(errOut, "Warning: %v\n", err)
	}

	fmt.Fprintln(out, "\n✓ scantrack initialized successfully!")
	fmt.Fprintln(out, "  Every commit now records its secret scan in", config.GetTrackerFile())

	return nil
}

// reportHooks lists which git hooks scantrack depends on are present
func reportHooks(ctx context.Context, repo *git.Repo, w io.Writer) error {
	dir, err := repo.HooksDir(ctx)
	if err != nil {
		return err
	}
	for _, name := range []string{hooks.HookTypePreCommit, hooks.HookTypePrepareCommit} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			fmt.Fprintf(w, "✓ %s hook installed\n", name)
		} else {
			fmt.Fprintf(w, "  %s hook not installed in %s\n", name, dir)
		}
	}
	return nil
}

// writePreCommitConfig creates the pre-commit config, or reports which hooks
// an existing one lacks
func writePreCommitConfig(root string, w io.Writer) error {
	path := filepath.Join(root, hooks.ConfigFileName)
	want := hooks.DefaultConfig(config.GetReportFile())

	if _, err := os.Stat(path); err == nil {
		existing, err := hooks.LoadConfig(path)
		if err != nil {
			return err
		}

		var missing []string
		for _, id := range []string{hooks.GitleaksHookID, hooks.TrackHookID} {
			if !existing.HasHook(id) {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			fmt.Fprintf(w, "pre-commit config already has gitleaks and scantrack hooks: %s\n", path)
			return nil
		}

		fmt.Fprintf(w, "Warning: %s exists but lacks hooks: %s\n", path, strings.Join(missing, ", "))
		fmt.Fprintln(w, "Add the following to it:")
		snippet, err := want.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(snippet))
		return nil
	}

	data, err := want.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(w, "✓ Created pre-commit config: %s\n", path)
	return nil
}

// ensureIgnored appends entry to the gitignore file unless already listed
func ensureIgnored(path, entry string) error {
	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == "/"+entry {
			return nil
		}
	}

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("# gitleaks report, removed by scantrack after each commit\n")
	b.WriteString("/" + entry + "\n")

	return os.WriteFile(path, []byte(b.String()), 0644)
}
