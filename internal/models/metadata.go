package models

import "time"

// ScanStatus records whether the secret scanner is believed to have run
type ScanStatus string

const (
	StatusCompleted       ScanStatus = "completed"
	StatusPossiblySkipped ScanStatus = "possibly_skipped"
)

// SchemaVersion is written into every tracking record
const SchemaVersion = "1.0"

// Sentinel values substituted when a repository lookup fails
const (
	SentinelCommit  = "new-commit"
	SentinelBranch  = "unknown"
	SentinelEmail   = "unknown"
	SentinelVersion = "unknown"
)

// SkippedWarning is attached to records whose scan report was missing
const SkippedWarning = "gitleaks report not found; the secret scan may have been skipped (e.g. SKIP=gitleaks or --no-verify)"

// TrackingRecord represents the tracker file written on every commit attempt
type TrackingRecord struct {
	Timestamp     time.Time         `json:"timestamp"`
	CommitHash    string            `json:"commit_hash"`
	Branch        string            `json:"branch"`
	UserEmail     string            `json:"user_email"`
	ScanStatus    ScanStatus        `json:"scan_status"`
	Warning       string            `json:"warning,omitempty"`
	ToolVersions  map[string]string `json:"tool_versions,omitempty"`
	CommitSource  string            `json:"commit_source,omitempty"`
	RunID         string            `json:"run_id"`
	SchemaVersion string            `json:"schema_version"`
}

// Completed reports whether the scan report was present for this run
func (r *TrackingRecord) Completed() bool {
	return r.ScanStatus == StatusCompleted
}
