package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TempGitRepo is a throwaway git repository for tests
type TempGitRepo struct {
	Path string
	T    *testing.T
}

// NewTempGitRepo creates a repository with one initial commit on main
func NewTempGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	repo := NewEmptyGitRepo(t)
	repo.CreateFile("README.md", "# Test Repository\n")
	repo.Commit("Initial commit")
	return repo
}

// NewEmptyGitRepo creates a repository without any commits
func NewEmptyGitRepo(t *testing.T) *TempGitRepo {
	t.Helper()

	repo := &TempGitRepo{Path: t.TempDir(), T: t}
	repo.Git("init", "-q", "-b", "main")

	// required for commits; hooks and signing must not interfere
	repo.Git("config", "user.name", "Test User")
	repo.Git("config", "user.email", "test@example.com")
	repo.Git("config", "commit.gpgsign", "false")
	repo.Git("config", "core.hooksPath", filepath.Join(repo.Path, ".no-hooks"))

	return repo
}

// Chdir switches into the repository until the test ends
func (r *TempGitRepo) Chdir() {
	r.T.Helper()

	oldWd, err := os.Getwd()
	if err != nil {
		r.T.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(r.Path); err != nil {
		r.T.Fatalf("failed to chdir: %v", err)
	}
	r.T.Cleanup(func() { _ = os.Chdir(oldWd) })
}

// Git runs a git command in the repository and returns trimmed stdout
func (r *TempGitRepo) Git(args ...string) string {
	r.T.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Path
	output, err := cmd.CombinedOutput()
	if err != nil {
		r.T.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}

// CreateFile creates a file in the repository
func (r *TempGitRepo) CreateFile(name, content string) string {
	r.T.Helper()
	path := filepath.Join(r.Path, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		r.T.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		r.T.Fatalf("failed to create file: %v", err)
	}
	return path
}

// ReadFile returns the content of a file in the repository
func (r *TempGitRepo) ReadFile(name string) string {
	r.T.Helper()
	data, err := os.ReadFile(filepath.Join(r.Path, name))
	if err != nil {
		r.T.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// Exists reports whether a file exists in the work tree
func (r *TempGitRepo) Exists(name string) bool {
	r.T.Helper()
	_, err := os.Stat(filepath.Join(r.Path, name))
	return err == nil
}

// Commit stages and commits all changes
func (r *TempGitRepo) Commit(message string) {
	r.T.Helper()
	r.Git("add", ".")
	r.Git("commit", "-q", "-m", message)
}

// Staged returns the paths currently in the index diff against HEAD
func (r *TempGitRepo) Staged() []string {
	r.T.Helper()
	out := r.Git("diff", "--cached", "--name-only")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Head returns the full hash of HEAD
func (r *TempGitRepo) Head() string {
	r.T.Helper()
	return r.Git("rev-parse", "HEAD")
}
