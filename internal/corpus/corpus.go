// Package corpus is the publisher's view of the source vault: the documents
// that may be published and the files they can reference.
package corpus

import (
	"errors"
	"path"
	"strings"
)

// ErrNotFound is returned when a document or file does not exist in the corpus.
var ErrNotFound = errors.New("not found in corpus")

// File identifies one corpus file.
type File struct {
	// Path is slash-separated and relative to the corpus root.
	Path string `json:"path" yaml:"path"`
	// Name is the final path element.
	Name string `json:"name" yaml:"name"`
}

// NewFile builds a File from a corpus-relative path.
func NewFile(p string) File {
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	return File{Path: p, Name: path.Base(p)}
}

// Document is a markdown file together with its text as read during this run.
type Document struct {
	File
	Text string
}

// Reader enumerates and reads the corpus.
type Reader interface {
	// Documents lists candidate documents in a stable order.
	Documents() ([]File, error)
	// ReadDocument returns the current text of a document.
	ReadDocument(id string) (string, error)
	// Files lists every file an asset reference may resolve to, in a stable order.
	Files() ([]File, error)
	// ReadFile returns the raw bytes of a corpus file.
	ReadFile(p string) ([]byte, error)
}

// Writer persists document edits.
type Writer interface {
	WriteDocument(id, text string) error
}

// Corpus is the full host collaborator used by the publish pipeline.
type Corpus interface {
	Reader
	Writer
}
