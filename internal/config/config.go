package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pders01/scantrack/internal/tracker"
	"github.com/pders01/scantrack/internal/versions"
	"github.com/spf13/viper"
)

// FileName is the repo-local config file looked up before the user config
const FileName = ".scantrack.toml"

// Git backends
const (
	BackendExec  = "exec"
	BackendGoGit = "go-git"
)

// SetDefaults registers every default on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("tracker.file", ".gitleaks-tracker.json")
	v.SetDefault("tracker.report", ".gitleaks-report.json")
	v.SetDefault("tracker.tools", []string{"gitleaks", "pre-commit"})
	v.SetDefault("tracker.stage", true)
	v.SetDefault("annotation.enabled", true)
	v.SetDefault("annotation.marker", tracker.DefaultMarker)
	v.SetDefault("annotation.signoff", tracker.DefaultSignoff)
	v.SetDefault("git.backend", BackendExec)
	v.SetDefault("probe.timeout", versions.DefaultTimeout.String())
}

// GetTrackerFile returns the tracker file path, relative to the repo root
func GetTrackerFile() string {
	return viper.GetString("tracker.file")
}

// GetReportFile returns the path gitleaks writes its report to
func GetReportFile() string {
	return viper.GetString("tracker.report")
}

// GetTools returns the tools whose versions are recorded
func GetTools() []string {
	return viper.GetStringSlice("tracker.tools")
}

// GetStageEnabled reports whether the tracker file is staged after writing
func GetStageEnabled() bool {
	return viper.GetBool("tracker.stage")
}

// GetAnnotationEnabled reports whether commit messages are annotated
func GetAnnotationEnabled() bool {
	return viper.GetBool("annotation.enabled")
}

// GetAnnotation returns the configured commit message annotation
func GetAnnotation() tracker.Annotation {
	return tracker.Annotation{
		Marker:  viper.GetString("annotation.marker"),
		Signoff: viper.GetString("annotation.signoff"),
	}
}

// GetGitBackend returns "exec" or "go-git"
func GetGitBackend() string {
	return viper.GetString("git.backend")
}

// GetProbeTimeout returns the per-tool version query timeout
func GetProbeTimeout() time.Duration {
	d := viper.GetDuration("probe.timeout")
	if d <= 0 {
		return versions.DefaultTimeout
	}
	return d
}

// File mirrors the on-disk TOML layout
type File struct {
	Tracker    TrackerSection    `toml:"tracker"`
	Annotation AnnotationSection `toml:"annotation"`
	Git        GitSection        `toml:"git"`
	Probe      ProbeSection      `toml:"probe"`
}

type TrackerSection struct {
	File   string   `toml:"file"`
	Report string   `toml:"report"`
	Tools  []string `toml:"tools"`
	Stage  bool     `toml:"stage"`
}

type AnnotationSection struct {
	Enabled bool   `toml:"enabled"`
	Marker  string `toml:"marker"`
	Signoff string `toml:"signoff"`
}

type GitSection struct {
	Backend string `toml:"backend"`
}

type ProbeSection struct {
	Timeout string `toml:"timeout"`
}

// Default returns the config file populated with defaults
func Default() File {
	v := viper.New()
	SetDefaults(v)
	return File{
		Tracker: TrackerSection{
			File:   v.GetString("tracker.file"),
			Report: v.GetString("tracker.report"),
			Tools:  v.GetStringSlice("tracker.tools"),
			Stage:  v.GetBool("tracker.stage"),
		},
		Annotation: AnnotationSection{
			Enabled: v.GetBool("annotation.enabled"),
			Marker:  v.GetString("annotation.marker"),
			Signoff: v.GetString("annotation.signoff"),
		},
		Git:   GitSection{Backend: v.GetString("git.backend")},
		Probe: ProbeSection{Timeout: v.GetString("probe.timeout")},
	}
}

// Encode renders f as TOML
func (f File) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}
