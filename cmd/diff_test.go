package cmd

import (
	"testing"
	"time"

	"github.com/pders01/scantrack/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareRecords(t *testing.T) {
	ts := time.Date(2025, 11, 14, 9, 30, 0, 0, time.UTC)
	from := &models.TrackingRecord{
		Timestamp:    ts,
		CommitHash:   "aaa",
		Branch:       "main",
		ScanStatus:   models.StatusCompleted,
		ToolVersions: map[string]string{"gitleaks": "8.18.2", "pre-commit": "3.6.0"},
		RunID:        "run-1",
	}
	to := &models.TrackingRecord{
		Timestamp:    ts,
		CommitHash:   "bbb",
		Branch:       "main",
		ScanStatus:   models.StatusPossiblySkipped,
		Warning:      "skipped",
		ToolVersions: map[string]string{"gitleaks": "8.21.0"},
		RunID:        "run-1",
	}

	changes := compareRecords(from, to)
	assert.Equal(t, []fieldChange{
		{Field: "commit_hash", From: "aaa", To: "bbb"},
		{Field: "scan_status", From: "completed", To: "possibly_skipped"},
		{Field: "warning", From: "", To: "skipped"},
		{Field: "tool_versions.gitleaks", From: "8.18.2", To: "8.21.0"},
		{Field: "tool_versions.pre-commit", From: "3.6.0", To: ""},
	}, changes)

	assert.Empty(t, compareRecords(from, from))
}

func TestLineDiff(t *testing.T) {
	out := lineDiff("a\nb\nc\n", "a\nx\nc\n")
	assert.Equal(t, "  a\n- b\n+ x\n  c\n", out)
	assert.Equal(t, "  same\n", lineDiff("same\n", "same\n"))
}

func TestDiffCommand(t *testing.T) {
	repo := setupRepo(t)
	commitTracked(t, repo, true, "scanned")
	require.NoError(t, runTrack(nil, nil))

	assert.NoError(t, runDiff(nil, nil))

	diffJSON = true
	assert.NoError(t, runDiff(nil, []string{"HEAD"}))
}

func TestDiffWithoutCommittedRecord(t *testing.T) {
	setupRepo(t)
	require.NoError(t, runTrack(nil, nil))

	assert.Error(t, runDiff(nil, nil))
}
