package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pders01/scantrack/internal/models"
)

// RepositoryContext answers the repository lookups a tracking record needs.
// Every method may fail independently.
type RepositoryContext interface {
	HeadHash(ctx context.Context) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
	UserEmail(ctx context.Context) (string, error)
}

// Stager adds files to the index
type Stager interface {
	Stage(ctx context.Context, paths ...string) error
}

// VersionProbe reports the installed version of a tool, if any
type VersionProbe interface {
	Version(ctx context.Context, tool string) (string, bool)
}

// Options describes a single tracking run
type Options struct {
	CommitMsgPath string
	CommitSource  string
	ReportPath    string
	TrackerPath   string
}

// Tracker records the outcome of a commit's secret scan
type Tracker struct {
	Repo   RepositoryContext
	Stager Stager       // nil disables staging
	Probe  VersionProbe // nil skips version collection
	Tools  []string

	// Annotate enables commit message annotation
	Annotate   bool
	Annotation Annotation

	// Out receives progress and warnings; Quiet drops the progress lines
	Out   io.Writer
	Quiet bool

	Now   func() time.Time
	NewID func() string
}

// New creates a Tracker with default annotation, clock and output
func New(repo RepositoryContext) *Tracker {
	return &Tracker{
		Repo:       repo,
		Tools:      []string{"gitleaks", "pre-commit"},
		Annotate:   true,
		Annotation: DefaultAnnotation(),
		Out:        os.Stderr,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

// Track builds and writes the tracking record for one commit attempt. Only a
// failure to write the tracker file is returned; everything else degrades to
// a sentinel or a warning. The report file is removed on every path.
func (t *Tracker) Track(ctx context.Context, opts Options) (*models.TrackingRecord, error) {
	defer t.removeReport(opts.ReportPath)
	if opts.TrackerPath == "" {
		return nil, errors.New("tracker path is required")
	}

	record := t.buildRecord(ctx, opts)

	if record.Completed() {
		t.infof("✓ Secrets scan report found, recording completed scan\n")
	} else {
		t.warnf("Warning: %s\n", record.Warning)
	}

	if err := WriteRecord(opts.TrackerPath, record); err != nil {
		return record, err
	}
	t.infof("  Tracker: %s\n", opts.TrackerPath)

	if t.shouldAnnotate(record, opts) {
		changed, err := t.Annotation.annotateFile(opts.CommitMsgPath, record.Timestamp)
		switch {
		case err != nil:
			t.warnf("Warning: failed to annotate commit message: %v\n", err)
		case changed:
			t.infof("  Commit message annotated\n")
		}
	}

	if t.Stager != nil {
		if err := t.Stager.Stage(ctx, opts.TrackerPath); err != nil {
			t.warnf("Warning: failed to stage tracker file: %v\n", err)
		}
	}

	return record, nil
}

func (t *Tracker) buildRecord(ctx context.Context, opts Options) *models.TrackingRecord {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	newID := uuid.NewString
	if t.NewID != nil {
		newID = t.NewID
	}

	record := &models.TrackingRecord{
		Timestamp:     now().UTC(),
		CommitHash:    lookup(ctx, t.Repo, RepositoryContext.HeadHash, models.SentinelCommit),
		Branch:        lookup(ctx, t.Repo, RepositoryContext.CurrentBranch, models.SentinelBranch),
		UserEmail:     lookup(ctx, t.Repo, RepositoryContext.UserEmail, models.SentinelEmail),
		CommitSource:  opts.CommitSource,
		RunID:         newID(),
		SchemaVersion: models.SchemaVersion,
	}

	if reportExists(opts.ReportPath) {
		record.ScanStatus = models.StatusCompleted
		record.ToolVersions = t.toolVersions(ctx)
	} else {
		record.ScanStatus = models.StatusPossiblySkipped
		record.Warning = models.SkippedWarning
	}
	return record
}

// lookup calls fn and substitutes the sentinel on any failure
func lookup(ctx context.Context, repo RepositoryContext, fn func(RepositoryContext, context.Context) (string, error), sentinel string) string {
	if repo == nil {
		return sentinel
	}
	v, err := fn(repo, ctx)
	if err != nil || v == "" {
		return sentinel
	}
	return v
}

func (t *Tracker) toolVersions(ctx context.Context) map[string]string {
	if t.Probe == nil || len(t.Tools) == 0 {
		return nil
	}
	versions := make(map[string]string, len(t.Tools))
	for _, tool := range t.Tools {
		v, ok := t.Probe.Version(ctx, tool)
		if !ok {
			v = models.SentinelVersion
		}
		versions[tool] = v
	}
	return versions
}

func (t *Tracker) shouldAnnotate(record *models.TrackingRecord, opts Options) bool {
	if !t.Annotate || !record.Completed() || opts.CommitMsgPath == "" {
		return false
	}
	if models.IsExcludedSource(opts.CommitSource) {
		return false
	}
	info, err := os.Stat(opts.CommitMsgPath)
	return err == nil && info.Mode().IsRegular()
}

func (t *Tracker) removeReport(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		t.warnf("Warning: failed to remove scan report: %v\n", err)
	}
}

func reportExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func (t *Tracker) infof(format string, args ...any) {
	if t.Quiet || t.Out == nil {
		return
	}
	fmt.Fprintf(t.Out, format, args...)
}

func (t *Tracker) warnf(format string, args ...any) {
	if t.Out == nil {
		return
	}
	fmt.Fprintf(t.Out, format, args...)
}

// WriteRecord replaces the tracker file with record
func WriteRecord(path string, record *models.TrackingRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tracking record: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create tracker directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write tracker file: %w", err)
	}
	return nil
}

// ReadRecord loads a tracker file
func ReadRecord(path string) (*models.TrackingRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracker file: %w", err)
	}
	return ParseRecord(data)
}

// ParseRecord decodes tracker file content
func ParseRecord(data []byte) (*models.TrackingRecord, error) {
	var record models.TrackingRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse tracking record: %w", err)
	}
	return &record, nil
}
