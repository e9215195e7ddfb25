// Package ignore decides which vault paths are invisible to the publisher.
// Patterns use gitignore syntax and are evaluated with go-git's matcher.
package ignore

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the vault-level ignore file read in addition to .gitignore.
const FileName = ".vaultpubignore"

// DefaultPatterns are always applied: VCS metadata, editor state and the trash folder.
var DefaultPatterns = []string{".git", ".obsidian", ".trash", FileName}

// Matcher provides gitignore-based filtering for paths relative to a vault root.
type Matcher struct {
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered ignore sources:
//  1. DefaultPatterns
//  2. .gitignore files inside the vault
//  3. <vault>/.vaultpubignore
//  4. extra patterns supplied by configuration
func NewMatcher(vaultRoot string, extra ...string) (*Matcher, error) {
	var all []gitignore.Pattern
	for _, p := range DefaultPatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(vaultRoot), nil); err == nil {
		all = append(all, gitPatterns...)
	}

	vaultPatterns, err := readIgnoreFile(filepath.Join(vaultRoot, FileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	for _, p := range vaultPatterns {
		all = append(all, gitignore.ParsePattern(p, nil))
	}

	for _, p := range extra {
		if p = strings.TrimSpace(p); p != "" {
			all = append(all, gitignore.ParsePattern(p, nil))
		}
	}

	return &Matcher{matcher: gitignore.NewMatcher(all)}, nil
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- fixed file name under the vault root
	if err != nil {
		return nil, err
	}

	var patterns []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}

// IsIgnored checks whether a vault-relative file path is excluded.
func (m *Matcher) IsIgnored(rel string) bool {
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, false)
}

// IsIgnoredDir checks whether a vault-relative directory should be skipped during traversal.
func (m *Matcher) IsIgnoredDir(rel string) bool {
	parts := splitPath(rel)
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, true)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	path = filepath.ToSlash(path)
	if path == "" || path == "." {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
