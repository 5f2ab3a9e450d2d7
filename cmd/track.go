package cmd

import (
	"os"

	"github.com/pders01/scantrack/internal/clierr"
	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/pders01/scantrack/internal/versions"
	"github.com/spf13/cobra"
)

// pre-commit exports the commit source through the environment instead of
// passing it as an argument
const envCommitSource = "PRE_COMMIT_COMMIT_MSG_SOURCE"

var (
	trackReport     string
	trackTracker    string
	trackNoAnnotate bool
	trackNoStage    bool
)

var trackCmd = &cobra.Command{
	Use:   "track [commit-msg-file] [commit-source] [commit-sha]",
	Short: "Record the outcome of the secret scan (prepare-commit-msg hook)",
	Long: `Record whether gitleaks produced its report for this commit.

Run as a prepare-commit-msg hook. git passes the commit message file, the
commit source (message, template, merge, squash, commit) and a commit sha;
under pre-commit the source is read from PRE_COMMIT_COMMIT_MSG_SOURCE.

When the report exists the scan is recorded as completed and the commit
message is annotated, except for merge and squash commits. When it is
missing the scan is recorded as possibly skipped. Either way the commit
proceeds and the report is deleted.

Exit status is non-zero only when the tracker file cannot be written.`,
	Args: cobra.MaximumNArgs(3),
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)

	trackCmd.Flags().StringVar(&trackReport, "report", "", "Scan report path (default from tracker.report)")
	trackCmd.Flags().StringVar(&trackTracker, "tracker", "", "Tracker file path (default from tracker.file)")
	trackCmd.Flags().BoolVar(&trackNoAnnotate, "no-annotate", false, "Never modify the commit message")
	trackCmd.Flags().BoolVar(&trackNoStage, "no-stage", false, "Do not stage the tracker file")
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := stderr(cmd)

	opts := tracker.Options{
		ReportPath:  trackReport,
		TrackerPath: trackTracker,
	}
	if len(args) > 0 {
		opts.CommitMsgPath = args[0]
	}
	if len(args) > 1 {
		opts.CommitSource = args[1]
	} else {
		opts.CommitSource = os.Getenv(envCommitSource)
	}

	if opts.ReportPath == "" {
		opts.ReportPath = repoPath(ctx, config.GetReportFile())
	}
	if opts.TrackerPath == "" {
		opts.TrackerPath = repoPath(ctx, config.GetTrackerFile())
	}

	repo := openRepository(out)

	tr := tracker.New(repo)
	tr.Out = out
	tr.Quiet = quiet
	tr.Tools = config.GetTools()
	tr.Probe = versions.NewExecProbe(config.GetProbeTimeout())
	tr.Annotate = config.GetAnnotationEnabled() && !trackNoAnnotate
	tr.Annotation = config.GetAnnotation()
	if config.GetStageEnabled() && !trackNoStage {
		tr.Stager = repo
	}

	if _, err := tr.Track(ctx, opts); err != nil {
		return clierr.Wrap(clierr.CodeTrackerWrite, "failed to record secret scan", err)
	}
	return nil
}
