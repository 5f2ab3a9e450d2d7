package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// envIndexFile is set by git for hooks running inside a commit
const envIndexFile = "GIT_INDEX_FILE"

// GoGitRepo answers the same repository lookups as Repo without a git binary
type GoGitRepo struct {
	repo *gogit.Repository
}

// OpenGoGit opens the repository containing dir
func OpenGoGit(dir string) (*GoGitRepo, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &GoGitRepo{repo: repo}, nil
}

// HeadHash returns the commit hash HEAD points to
func (g *GoGitRepo) HeadHash(ctx context.Context) (string, error) {
	ref, err := g.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get current commit: %w", err)
	}
	return ref.Hash().String(), nil
}

// CurrentBranch returns the branch HEAD refers to, including unborn ones
func (g *GoGitRepo) CurrentBranch(ctx context.Context) (string, error) {
	ref, err := g.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if ref.Type() != plumbing.SymbolicReference || !ref.Target().IsBranch() {
		return "", fmt.Errorf("failed to get current branch: detached HEAD")
	}
	return ref.Target().Short(), nil
}

// UserEmail returns user.email from the local and global config
func (g *GoGitRepo) UserEmail(ctx context.Context) (string, error) {
	cfg, err := g.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return "", fmt.Errorf("failed to read git config: %w", err)
	}
	if cfg.User.Email == "" {
		return "", fmt.Errorf("user.email is empty")
	}
	return cfg.User.Email, nil
}

// Stage adds paths to the index. Absolute paths must lie inside the work tree.
// go-git only writes .git/index, so an index named by GIT_INDEX_FILE is
// updated through the git binary instead.
func (g *GoGitRepo) Stage(ctx context.Context, paths ...string) error {
	wt, err := g.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	root := wt.Filesystem.Root()

	if os.Getenv(envIndexFile) != "" {
		return NewRepo(root).Stage(ctx, paths...)
	}

	for _, p := range paths {
		if filepath.IsAbs(p) {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return fmt.Errorf("failed to stage %s: %w", p, err)
			}
			p = rel
		}
		if _, err := wt.Add(filepath.ToSlash(p)); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return nil
}
