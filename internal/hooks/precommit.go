package hooks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the file pre-commit reads its hooks from
const ConfigFileName = ".pre-commit-config.yaml"

// Hook ids written by scantrack init
const (
	GitleaksHookID = "gitleaks"
	TrackHookID    = "scantrack-track"
)

// Git hook types scantrack needs installed
const (
	HookTypePreCommit     = "pre-commit"
	HookTypePrepareCommit = "prepare-commit-msg"
)

// GitleaksRepo and GitleaksRev pin the upstream gitleaks hook
const (
	GitleaksRepo = "https://github.com/gitleaks/gitleaks"
	GitleaksRev  = "v8.24.2"
)

// PreCommitConfig is the subset of .pre-commit-config.yaml scantrack manages
type PreCommitConfig struct {
	DefaultInstallHookTypes []string `yaml:"default_install_hook_types,omitempty"`
	Repos                   []Repo   `yaml:"repos"`
}

type Repo struct {
	Repo  string `yaml:"repo"`
	Rev   string `yaml:"rev,omitempty"`
	Hooks []Hook `yaml:"hooks"`
}

type Hook struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name,omitempty"`
	Entry     string   `yaml:"entry,omitempty"`
	Language  string   `yaml:"language,omitempty"`
	Args      []string `yaml:"args,omitempty"`
	Stages    []string `yaml:"stages,omitempty"`
	AlwaysRun bool     `yaml:"always_run,omitempty"`
}

// DefaultConfig returns a config running gitleaks before the commit and the
// tracker while the commit message is prepared
func DefaultConfig(reportPath string) *PreCommitConfig {
	return &PreCommitConfig{
		DefaultInstallHookTypes: []string{HookTypePreCommit, HookTypePrepareCommit},
		Repos: []Repo{
			{
				Repo: GitleaksRepo,
				Rev:  GitleaksRev,
				Hooks: []Hook{
					{
						ID:     GitleaksHookID,
						Args:   []string{"--report-path", reportPath},
						Stages: []string{HookTypePreCommit},
					},
				},
			},
			{
				Repo: "local",
				Hooks: []Hook{
					{
						ID:        TrackHookID,
						Name:      "Record secret scan",
						Entry:     "scantrack track",
						Language:  "system",
						Stages:    []string{HookTypePrepareCommit},
						AlwaysRun: true,
					},
				},
			},
		},
	}
}

// Marshal renders the config as YAML
func (c *PreCommitConfig) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pre-commit config: %w", err)
	}
	return data, nil
}

// HasHook reports whether any repo in the config declares hook id
func (c *PreCommitConfig) HasHook(id string) bool {
	for _, repo := range c.Repos {
		for _, hook := range repo.Hooks {
			if hook.ID == id {
				return true
			}
		}
	}
	return false
}

// LoadConfig reads an existing pre-commit config
func LoadConfig(path string) (*PreCommitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg PreCommitConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// ErrPreCommitMissing is returned when pre-commit is not on PATH
var ErrPreCommitMissing = errors.New("pre-commit is not installed")

// Install runs pre-commit install for both hook types in dir
func Install(ctx context.Context, dir string) error {
	path, err := exec.LookPath("pre-commit")
	if err != nil {
		return ErrPreCommitMissing
	}

	cmd := exec.CommandContext(ctx, path, "install",
		"--hook-type", HookTypePreCommit,
		"--hook-type", HookTypePrepareCommit)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pre-commit install failed: %s: %w", string(output), err)
	}
	return nil
}
