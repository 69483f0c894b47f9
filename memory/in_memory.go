package memory

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
)

// ErrNotFound is returned when a note id is unknown.
var ErrNotFound = errors.New("memory not found")

// Note is one stored memory.
type Note struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Store keeps notes per session.
type Store interface {
	Save(sessionID, content string, metadata map[string]any) (Note, error)
	Search(sessionID, query string, limit int) ([]Note, error)
	Delete(sessionID, noteID string) error
}

// InMemoryStore is a process-local Store.
//
// Search is a case-insensitive substring scan returning notes in insertion
// order; an empty query matches everything.
type InMemoryStore struct {
	mu    sync.RWMutex
	notes map[string][]Note // sessionID -> notes
	next  map[string]int
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		notes: make(map[string][]Note),
		next:  make(map[string]int),
	}
}

// Save appends a note and returns it with its generated id.
func (m *InMemoryStore) Save(sessionID, content string, metadata map[string]any) (Note, error) {
	if strings.TrimSpace(content) == "" {
		return Note{}, errors.New("memory content is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := Note{
		ID:       fmt.Sprintf("mem_%d", m.next[sessionID]),
		Content:  content,
		Metadata: maps.Clone(metadata),
	}
	m.next[sessionID]++
	m.notes[sessionID] = append(m.notes[sessionID], n)
	return n, nil
}

// Search returns up to limit notes containing query. A limit <= 0 means no limit.
func (m *InMemoryStore) Search(sessionID, query string, limit int) ([]Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	out := []Note{}
	for _, n := range m.notes[sessionID] {
		if limit > 0 && len(out) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(n.Content), q) {
			n.Metadata = maps.Clone(n.Metadata)
			out = append(out, n)
		}
	}
	return out, nil
}

// Delete removes a note by id.
func (m *InMemoryStore) Delete(sessionID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	notes := m.notes[sessionID]
	for i, n := range notes {
		if n.ID == noteID {
			m.notes[sessionID] = append(notes[:i:i], notes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, noteID)
}
