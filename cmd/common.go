package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/pders01/scantrack/internal/config"
	"github.com/pders01/scantrack/internal/git"
	"github.com/pders01/scantrack/internal/tracker"
)

// repository is what the tracker needs from the configured git backend
type repository interface {
	tracker.RepositoryContext
	tracker.Stager
}

// openRepository returns the configured backend. go-git falls back to the
// git binary when the repository cannot be opened.
func openRepository(w io.Writer) repository {
	switch backend := config.GetGitBackend(); backend {
	case config.BackendGoGit:
		repo, err := git.OpenGoGit(".")
		if err == nil {
			return repo
		}
		fmt.Fprintf(w, "Warning: %v, falling back to git binary\n", err)
	case config.BackendExec, "":
	default:
		fmt.Fprintf(w, "Warning: unknown git backend %q, using git binary\n", backend)
	}
	return git.NewRepo("")
}

// repoPath resolves a repo-relative path against the work tree root. Paths
// stay relative to the working directory when the root cannot be found.
func repoPath(ctx context.Context, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	root, err := git.NewRepo("").TopLevel(ctx)
	if err != nil {
		return path
	}
	return filepath.Join(root, path)
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
