package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/vaultpub/internal/gitctx"
	"github.com/fulmenhq/vaultpub/internal/mirror"
)

// CommitSkipped is reported when the commit step did not run: auto-commit
// is off, the run was a dry run, or the user declined PublishOne.
const CommitSkipped gitctx.Outcome = "skipped"

// DiagnosticKind classifies a per-item problem.
type DiagnosticKind string

const (
	AssetMissing DiagnosticKind = "asset_missing"
	ReadFailed   DiagnosticKind = "read_failed"
	WriteFailed  DiagnosticKind = "write_failed"
	Collision    DiagnosticKind = "collision"
)

// Diagnostic is one per-item problem. None of them stop the batch.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind" yaml:"kind"`
	Document string         `json:"document" yaml:"document"`
	Path     string         `json:"path,omitempty" yaml:"path,omitempty"`
	Message  string         `json:"message" yaml:"message"`
	Err      error          `json:"-" yaml:"-"`
}

// Result is the outcome of one publish batch.
type Result struct {
	Documents   []*mirror.Report    `json:"documents" yaml:"documents"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Commit      gitctx.CommitResult `json:"commit" yaml:"commit"`

	Mirrored      int `json:"mirrored" yaml:"mirrored"`
	Failed        int `json:"failed" yaml:"failed"`
	AssetsCopied  int `json:"assets_copied" yaml:"assets_copied"`
	AssetsMissing int `json:"assets_missing" yaml:"assets_missing"`
	AssetsFailed  int `json:"assets_failed" yaml:"assets_failed"`

	// FlagAdded is set when PublishOne added the publish flag to the source.
	FlagAdded bool `json:"flag_added,omitempty" yaml:"flag_added,omitempty"`
	// Aborted is set when the user declined PublishOne's confirmation.
	Aborted bool `json:"aborted,omitempty" yaml:"aborted,omitempty"`
	DryRun  bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// PartialFailure reports whether any document or asset write failed.
// Missing assets are diagnostics only.
func (r *Result) PartialFailure() bool {
	return r.Failed > 0 || r.AssetsFailed > 0
}

func (r *Result) add(rep *mirror.Report) {
	r.Documents = append(r.Documents, rep)
	if rep.Err != nil {
		r.Failed++
		r.diagnose(rep.Document, rep.Target, rep.Err)
	} else {
		r.Mirrored++
	}
	for _, miss := range rep.Missing {
		r.AssetsMissing++
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Kind:     AssetMissing,
			Document: rep.Document,
			Path:     miss.Reference.Target,
			Message:  miss.Error(),
			Err:      miss,
		})
	}
	for _, a := range rep.Assets {
		if a.Err != nil {
			r.AssetsFailed++
			r.diagnose(rep.Document, a.Source, a.Err)
			continue
		}
		r.AssetsCopied++
	}
}

func (r *Result) diagnose(doc, path string, err error) {
	kind := WriteFailed
	var we *mirror.WriteError
	switch {
	case errors.Is(err, mirror.ErrTargetClaimed):
		kind = Collision
	case errors.As(err, &we) && we.Op == mirror.OpRead:
		kind = ReadFailed
	case we == nil && path == "":
		kind = ReadFailed
	}
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Kind:     kind,
		Document: doc,
		Path:     path,
		Message:  err.Error(),
		Err:      err,
	})
}

// Summary is the single user-facing message for the batch.
func (r *Result) Summary() string {
	if r.Aborted {
		return "Publish cancelled"
	}

	var b strings.Builder
	verb := "Published"
	if r.DryRun {
		verb = "Would publish"
	}
	fmt.Fprintf(&b, "%s %d %s", verb, r.Mirrored, plural(r.Mirrored, "document", "documents"))
	if r.AssetsCopied > 0 {
		fmt.Fprintf(&b, ", %d %s", r.AssetsCopied, plural(r.AssetsCopied, "asset", "assets"))
	}

	var problems []string
	if r.Failed > 0 {
		problems = append(problems, fmt.Sprintf("%d failed", r.Failed))
	}
	if r.AssetsFailed > 0 {
		problems = append(problems, fmt.Sprintf("%d %s failed", r.AssetsFailed, plural(r.AssetsFailed, "asset", "assets")))
	}
	if r.AssetsMissing > 0 {
		problems = append(problems, fmt.Sprintf("%d %s missing", r.AssetsMissing, plural(r.AssetsMissing, "asset", "assets")))
	}
	if len(problems) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(problems, ", "))
	}

	switch r.Commit.Outcome {
	case gitctx.Committed:
		fmt.Fprintf(&b, "; committed %s", shortHash(r.Commit.Hash))
	case gitctx.NoChanges:
		b.WriteString("; no changes to commit")
	case gitctx.Failed:
		fmt.Fprintf(&b, "; commit failed: %v", r.Commit.Err)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
