// Package gitctx talks to the git repository that receives published files:
// it reports the working-tree state and records one commit per publish batch.
package gitctx

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// ErrNothingToCommit is returned by a backend when the commit step found no
// staged change, e.g. because the tree was cleaned after the status check.
var ErrNothingToCommit = errors.New("nothing to commit")

// ChangeContext captures a minimal view of the target repository.
type ChangeContext struct {
	Root          string   `json:"root" yaml:"root"`
	Branch        string   `json:"branch,omitempty" yaml:"branch,omitempty"`
	GitSHA        string   `json:"git_sha,omitempty" yaml:"git_sha,omitempty"`
	ModifiedFiles []string `json:"modified_files" yaml:"modified_files"`
}

// Clean reports whether the working tree has no pending change.
func (c *ChangeContext) Clean() bool { return len(c.ModifiedFiles) == 0 }

// Inspect opens the repository containing root and reports its branch, head
// and pending changes. A repository without commits has an empty branch and SHA.
func Inspect(root string) (*ChangeContext, error) {
	repo, err := openRepo(root)
	if err != nil {
		return nil, err
	}
	cc := &ChangeContext{Root: root}
	if head, err := repo.Head(); err == nil {
		cc.Branch = head.Name().Short()
		cc.GitSHA = head.Hash().String()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	cc.ModifiedFiles = changedPaths(st)
	return cc, nil
}

func openRepo(root string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s is not inside a git repository: %w", root, err)
		}
		return nil, fmt.Errorf("open repository %s: %w", root, err)
	}
	return repo, nil
}

// changedPaths lists files with a staged or unstaged change, untracked files included.
func changedPaths(st git.Status) []string {
	files := make([]string, 0, len(st))
	for path, s := range st {
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			files = append(files, filepath.ToSlash(path))
		}
	}
	sort.Strings(files)
	return files
}

// parsePorcelain extracts paths from `git status --porcelain` output.
func parsePorcelain(out string) []string {
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		p := line[3:]
		// Renames are reported as "old -> new".
		if i := strings.Index(p, " -> "); i >= 0 {
			p = p[i+4:]
		}
		files = append(files, unquotePath(p))
	}
	sort.Strings(files)
	return files
}

// unquotePath decodes a path git wrapped in C-style quotes. Git quotes paths
// holding control characters, quotes or bytes outside ASCII (`"caf\303\251.md"`).
func unquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if s, err := strconv.Unquote(p); err == nil {
		return s
	}
	return p[1 : len(p)-1]
}
