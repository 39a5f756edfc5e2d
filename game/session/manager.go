package session

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// DefaultPosition is the position token of a new session when the manager is
// built without WithInitialPosition.
const DefaultPosition = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Manager is the registry of live sessions keyed by room ID. It is the only
// authority on whether a session exists.
type Manager struct {
	sessions        map[string]*Session
	initialPosition string
	now             func() time.Time
	mu              sync.RWMutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithInitialPosition sets the position token given to new sessions.
func WithInitialPosition(position string) Option {
	return func(m *Manager) {
		if position != "" {
			m.initialPosition = position
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an empty session registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:        make(map[string]*Session),
		initialPosition: DefaultPosition,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create registers a new session under id. A non-nil owner takes the primary
// seat before the session becomes visible to other callers.
func (m *Manager) Create(id string, owner Member) (*Session, error) {
	return m.Open(id, owner, nil)
}

// Open registers a new session like Create and then runs init inside the new
// session's critical section before any other caller can reach it. The
// returned error is ErrSessionAlreadyExists, ErrInvalidSessionID, or whatever
// init returned. A session whose init fails is released before Open returns.
func (m *Manager) Open(id string, owner Member, init func(tx *Tx) error) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidSessionID
	}

	s := newSession(id, m.initialPosition, m.now(), m)
	s.primary = owner

	// s is unreachable until it is in the map, so taking its lock first cannot
	// contend with anyone.
	s.mu.Lock()
	defer s.mu.Unlock()

	m.mu.Lock()
	if _, exists := m.sessions[id]; exists {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if init != nil {
		if err := init(&Tx{s: s}); err != nil {
			s.closed = true
			m.release(s)
			return nil, err
		}
	}
	return s, nil
}

// Get returns the live session registered under id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove deletes id from the registry and closes its session. It is a no-op
// when id is absent. Remove must not be called from inside Exec.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// List returns the live sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// release drops s if it is still the session registered under its ID. The
// caller holds s.mu; the lock order is always session before registry.
func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.sessions[s.ID]; ok && current == s {
		delete(m.sessions, s.ID)
	}
}
