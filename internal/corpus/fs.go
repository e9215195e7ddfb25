package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/fulmenhq/vaultpub/pkg/ignore"
	"github.com/fulmenhq/vaultpub/pkg/safeio"
)

// DocumentExt is the extension that marks a file as a document.
const DocumentExt = ".md"

// FSOptions narrows what an FS corpus exposes.
type FSOptions struct {
	// Ignore holds extra gitignore-style patterns hidden from the corpus.
	Ignore []string
	// Include and Exclude are doublestar globs applied to document paths.
	// An empty Include accepts every document.
	Include []string
	Exclude []string
	// Skip holds directories, absolute or relative to the working directory,
	// that are never enumerated when they lie inside the vault. The publish
	// target goes here so mirrored output is not read back as input.
	Skip []string
}

// FS is a corpus backed by a directory on disk. Every call walks the tree
// again, so results always reflect the current state of the vault.
type FS struct {
	root    string
	matcher *ignore.Matcher
	include []string
	exclude []string
	skip    map[string]bool
}

// NewFS opens the vault at root.
func NewFS(root string, opts FSOptions) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault %s: %w", root, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	for _, pattern := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	m, err := ignore.NewMatcher(abs, opts.Ignore...)
	if err != nil {
		return nil, err
	}
	skip, err := skipDirs(abs, opts.Skip)
	if err != nil {
		return nil, err
	}
	return &FS{root: abs, matcher: m, include: opts.Include, exclude: opts.Exclude, skip: skip}, nil
}

// skipDirs maps the Skip directories that lie strictly inside root to their
// vault-relative slash paths. Others cannot be reached by the walk.
func skipDirs(root string, dirs []string) (map[string]bool, error) {
	skip := map[string]bool{}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", dir, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		skip[filepath.ToSlash(rel)] = true
	}
	return skip, nil
}

// Root returns the absolute vault directory.
func (c *FS) Root() string { return c.root }

// Documents lists markdown files that pass the ignore rules and document globs.
func (c *FS) Documents() ([]File, error) {
	var docs []File
	err := c.walk(func(f File) {
		if IsDocument(f.Path) && c.selected(f.Path) {
			docs = append(docs, f)
		}
	})
	return docs, err
}

// Files lists every non-ignored file, documents included, in lexical walk order.
func (c *FS) Files() ([]File, error) {
	var files []File
	err := c.walk(func(f File) { files = append(files, f) })
	return files, err
}

// ReadDocument returns the text of the document with the given id.
func (c *FS) ReadDocument(id string) (string, error) {
	data, err := c.ReadFile(id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadFile returns the bytes of a vault-relative file.
func (c *FS) ReadFile(p string) ([]byte, error) {
	full, err := c.resolve(p)
	if err != nil {
		return nil, err
	}
	data, err := safeio.ReadFileContained(c.root, full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return data, err
}

// WriteDocument overwrites an existing document.
func (c *FS) WriteDocument(id, text string) error {
	full, err := c.resolve(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return err
	}
	return safeio.WriteFilePreservePerms(full, []byte(text))
}

func (c *FS) resolve(p string) (string, error) {
	clean, err := safeio.CleanUserPath(p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p, err)
	}
	return safeio.Contained(c.root, filepath.Join(c.root, filepath.FromSlash(clean)))
}

func (c *FS) selected(rel string) bool {
	if len(c.include) > 0 && !matchAny(c.include, rel) {
		return false
	}
	return !matchAny(c.exclude, rel)
}

func (c *FS) walk(visit func(File)) error {
	return filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if c.skip[rel] || c.matcher.IsIgnoredDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || c.matcher.IsIgnored(rel) {
			return nil
		}
		visit(NewFile(rel))
		return nil
	})
}

// IsDocument reports whether a path names a markdown document.
func IsDocument(p string) bool {
	return strings.EqualFold(filepath.Ext(p), DocumentExt)
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
