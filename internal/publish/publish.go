// Package publish runs the vault publish pipeline: select flagged documents,
// mirror them and their assets into the target tree, then commit once.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/vaultpub/internal/assets"
	"github.com/fulmenhq/vaultpub/internal/corpus"
	"github.com/fulmenhq/vaultpub/internal/frontmatter"
	"github.com/fulmenhq/vaultpub/internal/gitctx"
	"github.com/fulmenhq/vaultpub/internal/mirror"
	"github.com/fulmenhq/vaultpub/pkg/config"
	"github.com/fulmenhq/vaultpub/pkg/logger"
)

// ConfigError is returned before any I/O when the publish settings are unusable.
type ConfigError = config.ValidationError

var (
	// ErrDocumentNotFound is returned by PublishOne for an unknown document id.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrNotPublishable is returned by PublishOne when the document is not
	// flagged and no Confirmer was supplied to approve adding the flag.
	ErrNotPublishable = errors.New("document is not marked for publishing")
)

// Notifier displays a message to the user. It must not block.
type Notifier interface {
	Notify(msg string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(msg string)

func (f NotifyFunc) Notify(msg string) { f(msg) }

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// Committer records the target tree after mirroring. *gitctx.Committer implements it.
type Committer interface {
	Commit(ctx context.Context) gitctx.CommitResult
}

// Pipeline publishes documents from a corpus according to an immutable config.
type Pipeline struct {
	cfg       config.Config
	corpus    corpus.Corpus
	committer Committer
	notifier  Notifier
	log       *logger.Logger
	dryRun    bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithNotifier sets the receiver of the per-batch summary.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithLogger sets the logger for per-item diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithDryRun selects and resolves without writing, mutating or committing.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) { p.dryRun = dryRun }
}

// New creates a Pipeline. committer may be nil when auto-commit is disabled.
func New(cfg config.Config, c corpus.Corpus, committer Committer, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, corpus: c, committer: committer}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Discard()
	}
	if p.notifier == nil {
		p.notifier = NotifyFunc(func(string) {})
	}
	return p
}

// PublishAll mirrors every document whose frontmatter carries the publish
// flag, then commits the target tree once. Per-item failures are recorded in
// the Result; only configuration and corpus enumeration errors are returned.
func (p *Pipeline) PublishAll(ctx context.Context) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	ids, err := p.corpus.Documents()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	res := &Result{DryRun: p.dryRun}
	var docs []corpus.Document
	for _, f := range ids {
		text, err := p.corpus.ReadDocument(f.Path)
		if err != nil {
			p.log.Error("Document read failed", logger.String("document", f.Path), logger.Err(err))
			res.add(&mirror.Report{Document: f.Path, Err: err})
			continue
		}
		if !frontmatter.IsPublishable(text) {
			continue
		}
		docs = append(docs, corpus.Document{File: f, Text: text})
	}
	p.log.Info("Selected documents for publishing", logger.Int("selected", len(docs)), logger.Int("scanned", len(ids)))

	if err := p.publish(ctx, docs, res); err != nil {
		return nil, err
	}
	p.log.Debug("Publish finished", logger.Duration("elapsed", time.Since(start)))
	return res, nil
}

// PublishOne publishes a single document. When the document lacks the publish
// flag, confirmer decides whether the flag is added to the source document;
// declining leaves the corpus and the target tree untouched.
func (p *Pipeline) PublishOne(ctx context.Context, id string, confirmer Confirmer) (*Result, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := corpus.NewFile(id)
	text, err := p.corpus.ReadDocument(f.Path)
	if err != nil {
		if errors.Is(err, corpus.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, f.Path)
		}
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	res := &Result{DryRun: p.dryRun}
	if !frontmatter.IsPublishable(text) {
		if confirmer == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotPublishable, f.Path)
		}
		ok, err := confirmer.Confirm(ctx, fmt.Sprintf("%s is not marked for publishing. Add %q to its frontmatter and publish it?", f.Path, frontmatter.FlagLine))
		if err != nil {
			return nil, fmt.Errorf("confirm %s: %w", f.Path, err)
		}
		if !ok {
			p.log.Info("Publish cancelled", logger.String("document", f.Path))
			res.Aborted = true
			res.Commit = gitctx.CommitResult{Outcome: CommitSkipped}
			return res, nil
		}

		text = frontmatter.AddPublishFlag(text)
		if p.dryRun {
			p.log.Info("Would add publish flag", logger.String("document", f.Path))
		} else {
			if err := p.corpus.WriteDocument(f.Path, text); err != nil {
				return nil, fmt.Errorf("add publish flag to %s: %w", f.Path, err)
			}
			p.log.Info("Added publish flag", logger.String("document", f.Path))
		}
		res.FlagAdded = true
	}

	if err := p.publish(ctx, []corpus.Document{{File: f, Text: text}}, res); err != nil {
		return nil, err
	}
	return res, nil
}

// publish mirrors docs, waits for every write, commits once and notifies.
func (p *Pipeline) publish(ctx context.Context, docs []corpus.Document, res *Result) error {
	files, err := p.corpus.Files()
	if err != nil {
		return fmt.Errorf("list corpus files: %w", err)
	}
	resolver := assets.NewResolver(assets.NewIndex(files))
	m := mirror.New(mirror.Layout{
		DocumentsDir: p.cfg.PublishDir(),
		AssetsDir:    p.cfg.AssetsDir(),
	}, p.corpus, resolver, p.log.With("mirror"))

	// Claims are made in document order so collisions resolve the same way
	// regardless of worker scheduling.
	batch := mirror.NewBatch()
	jobs := make([]*mirror.Job, 0, len(docs))
	for _, doc := range docs {
		job := m.Plan(doc)
		batch.Claim(job)
		jobs = append(jobs, job)
	}

	var reports []*mirror.Report
	if p.dryRun {
		reports = make([]*mirror.Report, 0, len(jobs))
		for _, job := range jobs {
			reports = append(reports, planned(job))
		}
	} else {
		reports = p.run(ctx, m, jobs)
	}
	for _, rep := range reports {
		res.add(rep)
	}
	res.sort()

	res.Commit = p.commit(ctx)
	if res.Commit.Err != nil {
		p.log.Error("Commit failed", logger.Err(res.Commit.Err))
	} else {
		p.log.Info("Commit finished", logger.String("outcome", string(res.Commit.Outcome)), logger.String("hash", res.Commit.Hash))
	}

	p.notifier.Notify(res.Summary())
	return nil
}

func (p *Pipeline) run(ctx context.Context, m *mirror.Mirror, jobs []*mirror.Job) []*mirror.Report {
	workers := p.cfg.Publish.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		reports = make([]*mirror.Report, 0, len(jobs))
	)
	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		g.Go(func() error {
			rep := m.Run(ctx, job)
			mu.Lock()
			reports = append(reports, rep)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (p *Pipeline) commit(ctx context.Context) gitctx.CommitResult {
	switch {
	case p.dryRun:
		return gitctx.CommitResult{Outcome: CommitSkipped}
	case !p.cfg.Publish.AutoCommit:
		p.log.Debug("Auto-commit disabled")
		return gitctx.CommitResult{Outcome: CommitSkipped}
	case p.committer == nil:
		p.log.Warn("Auto-commit enabled but no committer configured")
		return gitctx.CommitResult{Outcome: CommitSkipped}
	}
	return p.committer.Commit(ctx)
}

// planned reports what a job would write without performing any I/O.
func planned(job *mirror.Job) *mirror.Report {
	rep := &mirror.Report{
		Document: job.Document.Path,
		Target:   job.Target,
		Bytes:    len(job.Document.Text),
		Err:      job.TargetErr,
		Missing:  job.Missing,
	}
	for _, c := range job.Copies {
		if c.Skip {
			continue
		}
		rep.Assets = append(rep.Assets, mirror.AssetReport{
			Source: c.Asset.File.Path,
			Target: c.Target,
			Rule:   c.Asset.Rule,
			Err:    c.Err,
		})
	}
	return rep
}

func (r *Result) sort() {
	sort.SliceStable(r.Documents, func(i, j int) bool {
		return r.Documents[i].Document < r.Documents[j].Document
	})
	sort.SliceStable(r.Diagnostics, func(i, j int) bool {
		return r.Diagnostics[i].Document < r.Diagnostics[j].Document
	})
}
