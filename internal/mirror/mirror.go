// Package mirror copies published documents and their assets, byte for byte,
// into the target tree.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/vaultpub/internal/assets"
	"github.com/fulmenhq/vaultpub/internal/corpus"
	"github.com/fulmenhq/vaultpub/pkg/logger"
	"github.com/fulmenhq/vaultpub/pkg/safeio"
)

// Layout is where mirrored files land. Both directories must be absolute.
type Layout struct {
	DocumentsDir string
	AssetsDir    string
}

// Op names the step a WriteError happened in.
type Op string

const (
	OpRead      Op = "read"
	OpMkdir     Op = "mkdir"
	OpWrite     Op = "write"
	OpCollision Op = "collision"
)

// WriteError is a per-file failure. It never aborts the rest of the batch.
type WriteError struct {
	Op     Op
	Source string
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Source, e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ErrTargetClaimed is wrapped by collision errors: two different corpus files
// would land on the same target name.
var ErrTargetClaimed = errors.New("target already claimed by another file")

// Copy is one asset copy planned for a document.
type Copy struct {
	Asset  assets.Resolved
	Target string
	// Skip is set when an earlier job already owns this exact copy.
	Skip bool
	// Err is set when the target is owned by a different source file.
	Err error
}

// Job is the mirroring plan for one document.
type Job struct {
	Document corpus.Document
	Target   string
	Copies   []Copy
	Missing  []*assets.LookupError

	// TargetErr is set when another document already owns Target.
	TargetErr error
}

// AssetReport is the outcome of one asset copy.
type AssetReport struct {
	Source string      `json:"source" yaml:"source"`
	Target string      `json:"target" yaml:"target"`
	Rule   assets.Rule `json:"rule" yaml:"rule"`
	Bytes  int         `json:"bytes" yaml:"bytes"`
	Err    error       `json:"-" yaml:"-"`
}

// Report is the outcome of mirroring one document.
type Report struct {
	Document string                `json:"document" yaml:"document"`
	Target   string                `json:"target" yaml:"target"`
	Bytes    int                   `json:"bytes" yaml:"bytes"`
	Err      error                 `json:"-" yaml:"-"`
	Assets   []AssetReport         `json:"assets,omitempty" yaml:"assets,omitempty"`
	Missing  []*assets.LookupError `json:"-" yaml:"-"`
}

// Failed reports whether the document itself or any of its asset copies failed.
func (r *Report) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, a := range r.Assets {
		if a.Err != nil {
			return true
		}
	}
	return false
}

// Mirror writes documents and assets according to a Layout.
type Mirror struct {
	layout   Layout
	source   corpus.Reader
	resolver *assets.Resolver
	log      *logger.Logger
}

// New creates a Mirror reading asset bytes from source.
func New(layout Layout, source corpus.Reader, resolver *assets.Resolver, log *logger.Logger) *Mirror {
	if log == nil {
		log = logger.Discard()
	}
	return &Mirror{layout: layout, source: source, resolver: resolver, log: log}
}

// Plan resolves the document's references and computes every target path.
// It performs no writes.
func (m *Mirror) Plan(doc corpus.Document) *Job {
	job := &Job{
		Document: doc,
		Target:   filepath.Join(m.layout.DocumentsDir, doc.Name),
	}
	resolved, missing := m.resolver.Resolve(doc.Path, doc.Text)
	job.Missing = missing
	seen := make(map[string]bool, len(resolved))
	for _, r := range resolved {
		if seen[r.File.Path] {
			continue
		}
		seen[r.File.Path] = true
		job.Copies = append(job.Copies, Copy{
			Asset:  r,
			Target: filepath.Join(m.layout.AssetsDir, r.File.Name),
		})
	}
	return job
}

// Run performs the writes of a planned job. Failures are recorded in the
// report; Run only returns early when ctx is already done.
func (m *Mirror) Run(ctx context.Context, job *Job) *Report {
	rep := &Report{
		Document: job.Document.Path,
		Target:   job.Target,
		Missing:  job.Missing,
	}
	for _, miss := range job.Missing {
		m.log.Warn("Asset not found", logger.String("document", miss.Document), logger.String("asset", miss.Reference.Target))
	}

	if err := ctx.Err(); err != nil {
		rep.Err = err
		return rep
	}

	if job.TargetErr != nil {
		rep.Err = job.TargetErr
		m.log.Error("Document mirror skipped", logger.String("document", job.Document.Path), logger.Err(job.TargetErr))
	} else if err := m.write(job.Document.Path, job.Target, []byte(job.Document.Text)); err != nil {
		rep.Err = err
		m.log.Error("Document mirror failed", logger.String("document", job.Document.Path), logger.Err(err))
	} else {
		rep.Bytes = len(job.Document.Text)
		m.log.Debug("Document mirrored", logger.String("document", job.Document.Path), logger.String("target", job.Target))
	}

	for _, c := range job.Copies {
		if c.Skip {
			continue
		}
		ar := AssetReport{Source: c.Asset.File.Path, Target: c.Target, Rule: c.Asset.Rule}
		switch {
		case c.Err != nil:
			ar.Err = c.Err
		case ctx.Err() != nil:
			ar.Err = ctx.Err()
		default:
			ar.Bytes, ar.Err = m.copyAsset(c)
		}
		if ar.Err != nil {
			m.log.Error("Asset mirror failed", logger.String("document", job.Document.Path), logger.String("asset", ar.Source), logger.Err(ar.Err))
		}
		rep.Assets = append(rep.Assets, ar)
	}
	return rep
}

// Document plans and runs a single document.
func (m *Mirror) Document(ctx context.Context, doc corpus.Document) *Report {
	return m.Run(ctx, m.Plan(doc))
}

func (m *Mirror) copyAsset(c Copy) (int, error) {
	data, err := m.source.ReadFile(c.Asset.File.Path)
	if err != nil {
		return 0, &WriteError{Op: OpRead, Source: c.Asset.File.Path, Target: c.Target, Err: err}
	}
	if err := m.write(c.Asset.File.Path, c.Target, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (m *Mirror) write(source, target string, data []byte) error {
	if err := safeio.EnsureDir(filepath.Dir(target)); err != nil {
		return &WriteError{Op: OpMkdir, Source: source, Target: target, Err: err}
	}
	if err := safeio.WriteFilePreservePerms(target, data); err != nil {
		return &WriteError{Op: OpWrite, Source: source, Target: target, Err: err}
	}
	return nil
}
