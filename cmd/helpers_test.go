package cmd

import (
	"path/filepath"
	"testing"

	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/testutil"
	"github.com/spf13/viper"
)

// setupRepo creates a repository, switches into it and resets every flag
func setupRepo(t *testing.T) *testutil.TempGitRepo {
	t.Helper()
	repo := testutil.NewTempGitRepo(t)
	repo.Chdir()
	resetFlags(t)
	return repo
}

func resetFlags(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	// keep tests independent of installed scanners
	viper.Set("tracker.tools", []string{})
	t.Cleanup(func() {
		viper.Reset()
		config.SetDefaults(viper.GetViper())
	})

	quiet = true
	trackReport, trackTracker = "", ""
	trackNoAnnotate, trackNoStage = false, false
	statusJSON, statusToon, statusRequireCompleted = false, false, false
	historySince, historyLimit, historyJSON, historyToon = "", 0, false, false
	statsSince, statsJSON, statsToon = "", false, false
	diffJSON, diffToon = false, false
	initNoInstall = true
}

// messageFile writes a commit message file the way git does before the hook
func messageFile(t *testing.T, repo *testutil.TempGitRepo, content string) string {
	t.Helper()
	return repo.CreateFile(filepath.Join(".git", "COMMIT_EDITMSG"), content)
}
