package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pders01/scantrack/internal/git"
	"github.com/pders01/scantrack/internal/models"
	"github.com/pders01/scantrack/internal/testutil"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envRunMain makes the test binary act as the scantrack executable, so git
// can invoke it from a real hook
const envRunMain = "SCANTRACK_TEST_RUN_MAIN"

func TestMain(m *testing.M) {
	if os.Getenv(envRunMain) == "1" {
		Execute()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// installHook points the repository's prepare-commit-msg hook at this binary.
// env is prepended to the hook command, e.g. "SCANTRACK_GIT_BACKEND=go-git".
func installHook(t *testing.T, repo *testutil.TempGitRepo, env string) {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)

	repo.Git("config", "--unset", "core.hooksPath")
	script := fmt.Sprintf("#!/bin/sh\n%s %s=1 exec %q track \"$1\" \"$2\" \"$3\"\n", env, envRunMain, exe)
	repo.CreateFile(filepath.Join(".git", "hooks", "prepare-commit-msg"), script)
	require.NoError(t, os.Chmod(filepath.Join(repo.Path, ".git", "hooks", "prepare-commit-msg"), 0755))
}

func committedFiles(repo *testutil.TempGitRepo, rev string) []string {
	return strings.Split(repo.Git("show", "--name-only", "--format=", rev), "\n")
}

func TestHookRecordLandsInNextCommit(t *testing.T) {
	repo := setupRepo(t)
	installHook(t, repo, "")
	first := repo.Head()

	repo.CreateFile("b.txt", "b\n")
	repo.CreateFile(reportFile, "[]\n")
	repo.Git("add", "b.txt")
	repo.Git("commit", "-q", "-m", "second")

	// git built the tree before the hook ran
	assert.Equal(t, []string{"b.txt"}, committedFiles(repo, "HEAD"))
	assert.Contains(t, repo.Staged(), trackerFile)
	assert.False(t, repo.Exists(reportFile))

	message := repo.Git("log", "-1", "--format=%B")
	assert.Contains(t, message, tracker.DefaultMarker)
	assert.Contains(t, message, tracker.DefaultSignoff)

	record := readTracker(t, repo)
	assert.Equal(t, first, record.CommitHash)
	assert.Equal(t, models.StatusCompleted, record.ScanStatus)
	assert.Equal(t, models.SourceMessage, record.CommitSource)

	repo.CreateFile("c.txt", "c\n")
	repo.Git("add", "c.txt")
	repo.Git("commit", "-q", "-m", "third")

	assert.Contains(t, committedFiles(repo, "HEAD"), trackerFile)

	entries, err := loadHistory(context.Background(), git.NewRepo(""), 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, repo.Head(), entries[0].StoredIn)
	assert.Equal(t, first, entries[0].Record.CommitHash)
}

func TestHookCommitAllStagesWithGoGit(t *testing.T) {
	repo := setupRepo(t)
	installHook(t, repo, "SCANTRACK_GIT_BACKEND=go-git")

	repo.CreateFile("README.md", "# changed\n")
	repo.CreateFile(reportFile, "[]\n")
	repo.Git("commit", "-q", "-a", "-m", "update readme")

	assert.Equal(t, []string{"README.md"}, committedFiles(repo, "HEAD"))
	assert.Contains(t, repo.Staged(), trackerFile)
	assert.Contains(t, repo.Git("log", "-1", "--format=%B"), tracker.DefaultMarker)
}
