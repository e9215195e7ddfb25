package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Signature is the identity recorded on publish commits.
type Signature struct {
	Name  string
	Email string
}

// Backend performs the three version-control steps of a publish commit.
type Backend interface {
	// Status lists paths with a pending change, untracked files included.
	Status(ctx context.Context) ([]string, error)
	// StageAll stages every change in the working tree, deletions included.
	StageAll(ctx context.Context) error
	// Commit records the staged changes and returns the new commit hash.
	// It returns ErrNothingToCommit when nothing was staged.
	Commit(ctx context.Context, message string, author Signature, when time.Time) (string, error)
}

// GoGitBackend implements Backend in-process with go-git.
type GoGitBackend struct {
	repo *git.Repository
}

// NewGoGitBackend opens the repository containing root.
func NewGoGitBackend(root string) (*GoGitBackend, error) {
	repo, err := openRepo(root)
	if err != nil {
		return nil, err
	}
	return &GoGitBackend{repo: repo}, nil
}

func (b *GoGitBackend) Status(_ context.Context) ([]string, error) {
	wt, err := b.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	return changedPaths(st), nil
}

func (b *GoGitBackend) StageAll(_ context.Context) error {
	wt, err := b.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	return nil
}

func (b *GoGitBackend) Commit(_ context.Context, message string, author Signature, when time.Time) (string, error) {
	wt, err := b.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: when},
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrNothingToCommit
		}
		return "", err
	}
	return hash.String(), nil
}

// CLIBackend implements Backend by running the git binary in root.
type CLIBackend struct {
	root string
	bin  string
}

// NewCLIBackend locates git on PATH and checks that root is inside a work tree.
func NewCLIBackend(ctx context.Context, root string) (*CLIBackend, error) {
	bin, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git executable not found: %w", err)
	}
	b := &CLIBackend{root: root, bin: bin}
	out, err := b.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(out) != "true" {
		return nil, fmt.Errorf("%s is not inside a git repository: %w", root, git.ErrRepositoryNotExists)
	}
	return b, nil
}

func (b *CLIBackend) Status(ctx context.Context) ([]string, error) {
	out, err := b.run(ctx, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("read status: %w", err)
	}
	return parsePorcelain(out), nil
}

func (b *CLIBackend) StageAll(ctx context.Context) error {
	if _, err := b.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	return nil
}

func (b *CLIBackend) Commit(ctx context.Context, message string, author Signature, when time.Time) (string, error) {
	out, err := b.runEnv(ctx, []string{
		"GIT_AUTHOR_DATE=" + when.Format(time.RFC3339),
		"GIT_COMMITTER_DATE=" + when.Format(time.RFC3339),
	}, "-c", "user.name="+author.Name, "-c", "user.email="+author.Email, "-c", "commit.gpgsign=false",
		"commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") || strings.Contains(out, "nothing added to commit") {
			return "", ErrNothingToCommit
		}
		return "", err
	}
	hash, err := b.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("read commit hash: %w", err)
	}
	return strings.TrimSpace(hash), nil
}

func (b *CLIBackend) run(ctx context.Context, args ...string) (string, error) {
	return b.runEnv(ctx, nil, args...)
}

func (b *CLIBackend) runEnv(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, b.bin, args...)
	cmd.Dir = b.root
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// OpenBackend opens root with the named backend: "gogit" (default) or "cli".
func OpenBackend(ctx context.Context, name, root string) (Backend, error) {
	switch name {
	case "", "gogit":
		return NewGoGitBackend(root)
	case "cli":
		return NewCLIBackend(ctx, root)
	default:
		return nil, fmt.Errorf("unknown git backend %q", name)
	}
}
