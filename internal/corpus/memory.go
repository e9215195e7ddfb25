package corpus

import (
	"fmt"
	"sync"
)

// Memory is an in-process corpus. Files keep their insertion order, which is
// the enumeration order reported by Documents and Files.
type Memory struct {
	mu    sync.RWMutex
	order []string
	data  map[string][]byte
}

// NewMemory creates an empty in-memory corpus.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Put adds or replaces a file. New paths are appended to the enumeration order.
func (m *Memory) Put(p string, data []byte) *Memory {
	f := NewFile(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[f.Path]; !ok {
		m.order = append(m.order, f.Path)
	}
	m.data[f.Path] = append([]byte(nil), data...)
	return m
}

// PutText is Put for string content.
func (m *Memory) PutText(p, text string) *Memory {
	return m.Put(p, []byte(text))
}

func (m *Memory) Documents() ([]File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []File
	for _, p := range m.order {
		if IsDocument(p) {
			out = append(out, NewFile(p))
		}
	}
	return out, nil
}

func (m *Memory) Files() ([]File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]File, 0, len(m.order))
	for _, p := range m.order {
		out = append(out, NewFile(p))
	}
	return out, nil
}

func (m *Memory) ReadDocument(id string) (string, error) {
	data, err := m.ReadFile(id)
	return string(data), err
}

func (m *Memory) ReadFile(p string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) WriteDocument(id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	m.data[id] = []byte(text)
	return nil
}
