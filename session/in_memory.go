package session

import (
	"slices"
	"sync"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
)

// Store resolves session ids to live sessions.
type Store interface {
	// Get returns the session for id, creating it on first use.
	Get(id string) *core.Session
	Delete(id string) bool
	IDs() []string
}

// Options configures an InMemoryStore.
type Options struct {
	// Logger is attached to every session the store creates.
	Logger logging.Logger
}

// InMemoryStore is a process-local Store. Sessions are shared by reference,
// not cloned: a session is the state of one run.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	logger   logging.Logger
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &InMemoryStore{sessions: make(map[string]*core.Session), logger: opts.Logger}
}

// Get returns an existing session or creates a new one lazily.
func (s *InMemoryStore) Get(id string) *core.Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	return s.createLocked(id, nil)
}

// Create replaces the session for id with a fresh one seeded from starting
// (cloned; nil starts empty).
func (s *InMemoryStore) Create(id string, starting *core.Context) *core.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(id, starting)
}

// Delete drops the session for id and reports whether it existed.
func (s *InMemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// IDs returns the known session ids in sorted order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// createLocked allocates and stores a new session; caller holds the write lock.
func (s *InMemoryStore) createLocked(id string, starting *core.Context) *core.Session {
	optFns := []func(o *core.SessionOptions){core.WithSessionID(id), core.WithLogger(s.logger)}
	if starting != nil {
		optFns = append(optFns, core.WithContext(starting))
	}
	sess := core.NewSession(optFns...)
	s.sessions[id] = sess
	s.logger.Debug("session.create", "session", id)
	return sess
}
