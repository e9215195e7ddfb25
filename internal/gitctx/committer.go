package gitctx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampToken is replaced in commit message templates by the commit instant.
const TimestampToken = "{timestamp}"

// TimestampLayout renders the commit instant in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Outcome is the result of a commit attempt.
type Outcome string

const (
	Committed Outcome = "committed"
	NoChanges Outcome = "no_changes"
	Failed    Outcome = "failed"
)

// CommitError reports a failed status, stage or commit step.
type CommitError struct {
	Step string
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("git %s failed: %v", e.Step, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// IsCommitError reports whether err is or wraps a *CommitError.
func IsCommitError(err error) bool {
	var ce *CommitError
	return errors.As(err, &ce)
}

// CommitResult is what a single Commit call did.
type CommitResult struct {
	Outcome Outcome  `json:"outcome" yaml:"outcome"`
	Hash    string   `json:"hash,omitempty" yaml:"hash,omitempty"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
	Files   []string `json:"files,omitempty" yaml:"files,omitempty"`
	Err     error    `json:"-" yaml:"-"`
}

// Committer records the working tree as one commit.
type Committer struct {
	backend  Backend
	open     func(context.Context) (Backend, error)
	template string
	author   Signature
	now      func() time.Time
}

// CommitterOption customizes a Committer.
type CommitterOption func(*Committer)

// WithClock replaces the clock used for the timestamp token and commit dates.
func WithClock(now func() time.Time) CommitterOption {
	return func(c *Committer) { c.now = now }
}

// WithAuthor sets the commit identity.
func WithAuthor(author Signature) CommitterOption {
	return func(c *Committer) { c.author = author }
}

// NewCommitter creates a Committer writing messages from template.
func NewCommitter(backend Backend, template string, opts ...CommitterOption) *Committer {
	c := &Committer{
		backend:  backend,
		template: template,
		author:   Signature{Name: "vaultpub", Email: "vaultpub@localhost"},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDeferredCommitter creates a Committer that opens the named backend at
// root on its first Commit. An unopenable repository then surfaces as a
// Failed outcome of the commit step rather than before mirroring starts.
func NewDeferredCommitter(backendName, root, template string, opts ...CommitterOption) *Committer {
	c := NewCommitter(nil, template, opts...)
	c.open = func(ctx context.Context) (Backend, error) {
		return OpenBackend(ctx, backendName, root)
	}
	return c
}

// RenderMessage replaces the first timestamp token in template with t in UTC.
func RenderMessage(template string, t time.Time) string {
	return strings.Replace(template, TimestampToken, t.UTC().Format(TimestampLayout), 1)
}

// Commit stages every change and records one commit. A clean tree yields
// NoChanges without touching the index. Failures are reported in the result;
// Commit never panics on a backend error.
func (c *Committer) Commit(ctx context.Context) CommitResult {
	if c.backend == nil {
		if c.open == nil {
			return failed("open", errors.New("no git backend configured"))
		}
		b, err := c.open(ctx)
		if err != nil {
			return failed("open", err)
		}
		c.backend = b
	}
	files, err := c.backend.Status(ctx)
	if err != nil {
		return failed("status", err)
	}
	if len(files) == 0 {
		return CommitResult{Outcome: NoChanges}
	}
	if err := c.backend.StageAll(ctx); err != nil {
		return failed("add", err)
	}

	when := c.now()
	msg := RenderMessage(c.template, when)
	hash, err := c.backend.Commit(ctx, msg, c.author, when)
	if err != nil {
		if errors.Is(err, ErrNothingToCommit) {
			return CommitResult{Outcome: NoChanges}
		}
		return failed("commit", err)
	}
	return CommitResult{Outcome: Committed, Hash: hash, Message: msg, Files: files}
}

func failed(step string, err error) CommitResult {
	return CommitResult{Outcome: Failed, Err: &CommitError{Step: step, Err: err}}
}
