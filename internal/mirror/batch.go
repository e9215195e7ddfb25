package mirror

import "sync"

// Batch assigns target paths to source files across the documents of one
// publish run. The first claim for a target wins: a repeat claim from the same
// source is skipped, a claim from a different source becomes a collision.
// Claim jobs in document order to keep the outcome deterministic.
type Batch struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewBatch starts an empty claim registry.
func NewBatch() *Batch {
	return &Batch{owners: make(map[string]string)}
}

// Claim marks the job's document target and asset copies against earlier claims.
func (b *Batch) Claim(job *Job) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if owner, ok := b.owners[job.Target]; ok && owner != job.Document.Path {
		job.TargetErr = &WriteError{Op: OpCollision, Source: job.Document.Path, Target: job.Target, Err: claimedBy(owner)}
	} else {
		b.owners[job.Target] = job.Document.Path
	}

	for i := range job.Copies {
		c := &job.Copies[i]
		src := c.Asset.File.Path
		owner, ok := b.owners[c.Target]
		switch {
		case !ok:
			b.owners[c.Target] = src
		case owner == src:
			c.Skip = true
		default:
			c.Err = &WriteError{Op: OpCollision, Source: src, Target: c.Target, Err: claimedBy(owner)}
		}
	}
}

func claimedBy(owner string) error {
	return &claimError{owner: owner}
}

type claimError struct{ owner string }

func (e *claimError) Error() string { return ErrTargetClaimed.Error() + " (" + e.owner + ")" }

func (e *claimError) Unwrap() error { return ErrTargetClaimed }
