package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Repo runs git commands against a working directory. An empty Dir means
// the process working directory.
type Repo struct {
	Dir string
}

// NewRepo returns a Repo rooted at dir
func NewRepo(dir string) *Repo {
	return &Repo{Dir: dir}
}

// run executes git and returns trimmed stdout
func (r *Repo) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// IsGitRepo checks if the directory is inside a git work tree
func (r *Repo) IsGitRepo(ctx context.Context) bool {
	_, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// TopLevel returns the absolute path of the work tree root
func (r *Repo) TopLevel(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to find repository root: %w", err)
	}
	return out, nil
}

// HooksDir returns the hooks directory as an absolute path, honouring
// core.hooksPath
func (r *Repo) HooksDir(ctx context.Context) (string, error) {
	if custom, err := r.run(ctx, "config", "--get", "core.hooksPath"); err == nil && custom != "" {
		if filepath.IsAbs(custom) {
			return custom, nil
		}
		// relative hooksPath is resolved against the work tree root
		top, err := r.TopLevel(ctx)
		if err != nil {
			return "", err
		}
		return filepath.Join(top, custom), nil
	}

	out, err := r.run(ctx, "rev-parse", "--path-format=absolute", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("failed to find hooks directory: %w", err)
	}
	return out, nil
}

// HeadHash returns the commit hash HEAD points to. It fails before the
// first commit.
func (r *Repo) HeadHash(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--verify", "-q", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current commit: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("failed to get current commit: empty output")
	}
	return out, nil
}

// CurrentBranch returns the short branch name. It works on an unborn branch
// and fails on a detached HEAD.
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("failed to get current branch: detached HEAD")
	}
	return out, nil
}

// UserEmail returns the configured user.email
func (r *Repo) UserEmail(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "config", "--get", "user.email")
	if err != nil {
		return "", fmt.Errorf("failed to get user.email: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("user.email is empty")
	}
	return out, nil
}

// Stage adds paths to the index
func (r *Repo) Stage(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	return nil
}

// Show reads a file as committed at rev
func (r *Repo) Show(ctx context.Context, rev, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "show", fmt.Sprintf("%s:%s", rev, path))
	cmd.Dir = r.Dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to read %s at %s: %w", path, rev, err)
	}
	return string(output), nil
}

// FileRevisions returns the hashes of commits that touched path, newest
// first. A limit of zero means no limit.
func (r *Repo) FileRevisions(ctx context.Context, path string, limit int) ([]string, error) {
	args := []string{"log", "--format=%H"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	args = append(args, "--", path)

	out, err := r.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions of %s: %w", path, err)
	}

	var revs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			revs = append(revs, line)
		}
	}
	return revs, nil
}
