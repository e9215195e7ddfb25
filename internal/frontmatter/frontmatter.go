// Package frontmatter locates the leading `---` block of a markdown document
// and answers whether the document is marked for publishing.
//
// Eligibility is a lexical test over the block body: the body must contain
// `publish: true` or `publish:true` verbatim. The body is not parsed as YAML,
// so an unrelated value that happens to contain the literal also counts.
package frontmatter

import (
	"regexp"
	"strings"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

// FlagLine is the line inserted when a document is marked for publishing.
const FlagLine = "publish: true"

// flagLiterals are the accepted spellings of the publish flag.
var flagLiterals = []string{"publish: true", "publish:true"}

// blockPattern matches a block at the very start of the text: a `---` line,
// a body, and the first later line that is exactly `---`.
var blockPattern = regexp.MustCompile(`\A---\r?\n((?s:.*?))\r?\n---\r?(?:\n|\z)`)

// Block is the location of a frontmatter block inside a document.
type Block struct {
	// Body is the text between the delimiters, without the surrounding newlines.
	Body string
	// BodyEnd is the byte offset just past the body, i.e. where the newline
	// preceding the closing delimiter starts.
	BodyEnd int
	// End is the byte offset just past the closing delimiter line.
	End int
}

// Find returns the leading frontmatter block, if the text has one.
func Find(text string) (Block, bool) {
	m := blockPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return Block{}, false
	}
	return Block{
		Body:    text[m[2]:m[3]],
		BodyEnd: m[3],
		End:     m[1],
	}, true
}

// IsPublishable reports whether the document text carries the publish flag.
// Missing frontmatter and a missing flag both mean "not publishable".
func IsPublishable(text string) bool {
	block, ok := Find(text)
	if !ok {
		return false
	}
	return HasFlag(block.Body)
}

// HasFlag reports whether a frontmatter body contains one of the flag literals.
func HasFlag(body string) bool {
	for _, lit := range flagLiterals {
		if strings.Contains(body, lit) {
			return true
		}
	}
	return false
}

// AddPublishFlag returns text with the publish flag added. An existing block
// gets the flag as its last line; otherwise a new block is prepended. Text
// that is already publishable is returned unchanged.
func AddPublishFlag(text string) string {
	block, ok := Find(text)
	if !ok {
		return Delimiter + "\n" + FlagLine + "\n" + Delimiter + "\n\n" + text
	}
	if HasFlag(block.Body) {
		return text
	}
	newline := "\n"
	if strings.HasPrefix(text[block.BodyEnd:], "\r\n") {
		newline = "\r\n"
	}
	return text[:block.BodyEnd] + newline + FlagLine + text[block.BodyEnd:]
}
