package hooks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigHooks(t *testing.T) {
	cfg := DefaultConfig(".gitleaks-report.json")

	assert.True(t, cfg.HasHook(GitleaksHookID))
	assert.True(t, cfg.HasHook(TrackHookID))
	assert.False(t, cfg.HasHook("black"))
	assert.Equal(t, []string{"pre-commit", "prepare-commit-msg"}, cfg.DefaultInstallHookTypes)
}

func TestDefaultConfigYAML(t *testing.T) {
	data, err := DefaultConfig("scan/report.json").Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))

	repos, ok := raw["repos"].([]any)
	require.True(t, ok)
	require.Len(t, repos, 2)

	gitleaks := repos[0].(map[string]any)
	assert.Equal(t, GitleaksRepo, gitleaks["repo"])
	hook := gitleaks["hooks"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"--report-path", "scan/report.json"}, hook["args"])

	local := repos[1].(map[string]any)
	assert.Equal(t, "local", local["repo"])
	_, hasRev := local["rev"]
	assert.False(t, hasRev)
	track := local["hooks"].([]any)[0].(map[string]any)
	assert.Equal(t, "scantrack track", track["entry"])
	assert.Equal(t, []any{"prepare-commit-msg"}, track["stages"])
	assert.Equal(t, true, track["always_run"])
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `repos:
- repo: https://github.com/psf/black
  rev: 24.1.0
  hooks:
  - id: black
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.HasHook("black"))
	assert.False(t, cfg.HasHook(GitleaksHookID))
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("repos: [unterminated"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
