// Package assets finds the binary files a document embeds and maps each
// reference to a concrete corpus file.
package assets

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/fulmenhq/vaultpub/internal/corpus"
)

// Kind is the syntax a reference was written in.
type Kind string

const (
	// KindEmbed is the wiki-style `![[name]]` form.
	KindEmbed Kind = "embed"
	// KindImage is the markdown `![alt](target)` form.
	KindImage Kind = "image"
)

// Rule records which resolution step matched.
type Rule string

const (
	RuleExactPath Rule = "exact-path"
	RuleCleanPath Rule = "clean-path"
	RuleBasename  Rule = "basename"
)

// Reference is one asset reference as written by the author.
type Reference struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Target is the literal name or link target, untouched.
	Target string `json:"target" yaml:"target"`
	// Offset is the byte position of the reference in the document.
	Offset int `json:"offset" yaml:"offset"`
}

// Resolved pairs a reference with the corpus file it points at.
type Resolved struct {
	Reference
	File corpus.File `json:"file" yaml:"file"`
	Rule Rule        `json:"rule" yaml:"rule"`
}

// LookupError reports a reference that matched no corpus file.
type LookupError struct {
	Document  string
	Reference Reference
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: asset %q not found in corpus", e.Document, e.Reference.Target)
}

// referencePattern matches both forms in a single pass so results keep the
// order they appear in the text.
var referencePattern = regexp.MustCompile(`!\[\[([^\]]+)\]\]|!\[[^\]]*\]\(([^)]+)\)`)

// Extract returns every asset reference in text, in order, duplicates included.
func Extract(text string) []Reference {
	matches := referencePattern.FindAllStringSubmatchIndex(text, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		switch {
		case m[2] >= 0:
			refs = append(refs, Reference{Kind: KindEmbed, Target: text[m[2]:m[3]], Offset: m[0]})
		case m[4] >= 0:
			refs = append(refs, Reference{Kind: KindImage, Target: text[m[4]:m[5]], Offset: m[0]})
		}
	}
	return refs
}

// Index is a snapshot of the corpus files references can resolve to.
type Index struct {
	files  []corpus.File
	byPath map[string]int
}

// NewIndex builds an index over files, keeping their enumeration order for
// tie-breaking. When a path repeats, the first occurrence wins.
func NewIndex(files []corpus.File) *Index {
	idx := &Index{
		files:  append([]corpus.File(nil), files...),
		byPath: make(map[string]int, len(files)),
	}
	for i, f := range idx.files {
		if _, dup := idx.byPath[f.Path]; !dup {
			idx.byPath[f.Path] = i
		}
	}
	return idx
}

// Len returns the number of indexed files.
func (idx *Index) Len() int { return len(idx.files) }

// Lookup resolves one literal target. The first matching rule wins:
//  1. a corpus path equal to the literal target;
//  2. a corpus path equal to the target once cleaned (`./`, `//`, leading `/`);
//  3. the first file, in enumeration order, whose name equals the target or
//     the target's final path segment.
func (idx *Index) Lookup(target string) (corpus.File, Rule, bool) {
	if i, ok := idx.byPath[target]; ok {
		return idx.files[i], RuleExactPath, true
	}
	if clean := cleanTarget(target); clean != target {
		if i, ok := idx.byPath[clean]; ok {
			return idx.files[i], RuleCleanPath, true
		}
	}
	last := target
	if i := strings.LastIndex(target, "/"); i >= 0 {
		last = target[i+1:]
	}
	for _, f := range idx.files {
		if f.Name == target || f.Name == last {
			return f, RuleBasename, true
		}
	}
	return corpus.File{}, "", false
}

func cleanTarget(target string) string {
	if target == "" {
		return target
	}
	return strings.TrimPrefix(path.Clean(target), "/")
}

// Resolver maps the references of a document onto an index.
type Resolver struct {
	index *Index
}

// NewResolver creates a resolver over a prepared index.
func NewResolver(index *Index) *Resolver {
	return &Resolver{index: index}
}

// Resolve extracts the references of a document and resolves each of them.
// Unresolved references come back as LookupErrors; they never stop resolution.
func (r *Resolver) Resolve(docID, text string) ([]Resolved, []*LookupError) {
	var (
		resolved []Resolved
		missing  []*LookupError
	)
	for _, ref := range Extract(text) {
		f, rule, ok := r.index.Lookup(ref.Target)
		if !ok {
			missing = append(missing, &LookupError{Document: docID, Reference: ref})
			continue
		}
		resolved = append(resolved, Resolved{Reference: ref, File: f, Rule: rule})
	}
	return resolved, missing
}
