package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/pders01/scantrack/internal/clierr"
	"github.com/pders01/scantrack/internal/models"
	"github.com/pders01/scantrack/internal/testutil"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	reportFile  = ".gitleaks-report.json"
	trackerFile = ".gitleaks-tracker.json"
)

func readTracker(t *testing.T, repo *testutil.TempGitRepo) *models.TrackingRecord {
	t.Helper()
	record, err := tracker.ParseRecord([]byte(repo.ReadFile(trackerFile)))
	require.NoError(t, err)
	return record
}

func TestTrackCompletedScan(t *testing.T) {
	repo := setupRepo(t)
	repo.CreateFile(reportFile, "[]\n")
	msg := messageFile(t, repo, "Add feature\n")

	require.NoError(t, runTrack(nil, []string{msg}))

	record := readTracker(t, repo)
	assert.Equal(t, models.StatusCompleted, record.ScanStatus)
	assert.Equal(t, repo.Head(), record.CommitHash)
	assert.Equal(t, "main", record.Branch)
	assert.Equal(t, "test@example.com", record.UserEmail)
	assert.NotEmpty(t, record.RunID)

	content, err := os.ReadFile(msg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "Add feature\n\n[gitleaks:verified] "))
	assert.True(t, strings.HasSuffix(string(content), tracker.DefaultSignoff+"\n"))

	assert.False(t, repo.Exists(reportFile), "report should be removed")
	assert.Contains(t, repo.Staged(), trackerFile)
}

func TestTrackPossiblySkipped(t *testing.T) {
	repo := setupRepo(t)
	msg := messageFile(t, repo, "Add feature\n")

	require.NoError(t, runTrack(nil, []string{msg, models.SourceMessage}))

	record := readTracker(t, repo)
	assert.Equal(t, models.StatusPossiblySkipped, record.ScanStatus)
	assert.NotEmpty(t, record.Warning)
	assert.Equal(t, models.SourceMessage, record.CommitSource)

	content, err := os.ReadFile(msg)
	require.NoError(t, err)
	assert.Equal(t, "Add feature\n", string(content))
}

func TestTrackMergeCommitNotAnnotated(t *testing.T) {
	repo := setupRepo(t)
	repo.CreateFile(reportFile, "[]\n")
	msg := messageFile(t, repo, "Merge branch 'feature'\n")

	require.NoError(t, runTrack(nil, []string{msg, models.SourceMerge, ""}))

	assert.Equal(t, models.StatusCompleted, readTracker(t, repo).ScanStatus)
	content, err := os.ReadFile(msg)
	require.NoError(t, err)
	assert.Equal(t, "Merge branch 'feature'\n", string(content))
}

func TestTrackSourceFromPreCommitEnv(t *testing.T) {
	repo := setupRepo(t)
	repo.CreateFile(reportFile, "[]\n")
	msg := messageFile(t, repo, "Squashed\n")
	t.Setenv(envCommitSource, models.SourceSquash)

	require.NoError(t, runTrack(nil, []string{msg}))

	assert.Equal(t, models.SourceSquash, readTracker(t, repo).CommitSource)
	content, err := os.ReadFile(msg)
	require.NoError(t, err)
	assert.Equal(t, "Squashed\n", string(content))
}

func TestTrackNoAnnotateFlag(t *testing.T) {
	repo := setupRepo(t)
	repo.CreateFile(reportFile, "[]\n")
	msg := messageFile(t, repo, "msg\n")
	trackNoAnnotate = true

	require.NoError(t, runTrack(nil, []string{msg}))

	content, err := os.ReadFile(msg)
	require.NoError(t, err)
	assert.Equal(t, "msg\n", string(content))
}

func TestTrackNoStageFlag(t *testing.T) {
	repo := setupRepo(t)
	trackNoStage = true

	require.NoError(t, runTrack(nil, nil))

	assert.True(t, repo.Exists(trackerFile))
	assert.NotContains(t, repo.Staged(), trackerFile)
}

func TestTrackTwiceSingleMarker(t *testing.T) {
	repo := setupRepo(t)
	msg := messageFile(t, repo, "msg\n")

	repo.CreateFile(reportFile, "[]\n")
	require.NoError(t, runTrack(nil, []string{msg}))
	first := readTracker(t, repo)

	repo.CreateFile(reportFile, "[]\n")
	require.NoError(t, runTrack(nil, []string{msg}))
	second := readTracker(t, repo)

	content, err := os.ReadFile(msg)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), tracker.DefaultMarker))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestTrackFirstCommitSentinel(t *testing.T) {
	repo := testutil.NewEmptyGitRepo(t)
	repo.Chdir()
	resetFlags(t)

	require.NoError(t, runTrack(nil, nil))

	record := readTracker(t, repo)
	assert.Equal(t, models.SentinelCommit, record.CommitHash)
	assert.Equal(t, "main", record.Branch)
}

func TestTrackOutsideRepository(t *testing.T) {
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldWd)
	resetFlags(t)

	require.NoError(t, runTrack(nil, nil))

	record, err := tracker.ReadRecord(trackerFile)
	require.NoError(t, err)
	assert.Equal(t, models.SentinelCommit, record.CommitHash)
	assert.Equal(t, models.SentinelBranch, record.Branch)
}

func TestTrackWriteFailureExitCode(t *testing.T) {
	repo := setupRepo(t)
	repo.CreateFile(reportFile, "[]\n")
	blocker := repo.CreateFile("blocker", "x")
	trackTracker = blocker + "/tracker.json"

	err := runTrack(nil, nil)
	require.Error(t, err)
	assert.Equal(t, clierr.CodeTrackerWrite, clierr.ExitCodeOf(err))
	assert.False(t, repo.Exists(reportFile))
}

func TestTrackGoGitBackend(t *testing.T) {
	repo := setupRepo(t)
	viper.Set("git.backend", "go-git")
	repo.CreateFile(reportFile, "[]\n")

	require.NoError(t, runTrack(nil, nil))

	record := readTracker(t, repo)
	assert.Equal(t, repo.Head(), record.CommitHash)
	assert.Equal(t, "main", record.Branch)
	assert.Contains(t, repo.Staged(), trackerFile)
}
