package session

import (
	"encoding/json"
	"sync"
	"time"
)

// Role is a connection's seat within a session.
type Role int

const (
	RoleNone Role = iota
	RolePrimary
	RoleSecondary
	RoleObserver
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleSecondary:
		return "secondary"
	case RoleObserver:
		return "observer"
	default:
		return "none"
	}
}

// IsPrincipal reports whether the role holds one of the two seats.
func (r Role) IsPrincipal() bool {
	return r == RolePrimary || r == RoleSecondary
}

// Opponent returns the other principal seat, or RoleNone for non-principals.
func (r Role) Opponent() Role {
	switch r {
	case RolePrimary:
		return RoleSecondary
	case RoleSecondary:
		return RolePrimary
	default:
		return RoleNone
	}
}

// Member is one connection attached to a session. Send is called while the
// session is locked and must not block.
type Member interface {
	ID() string
	Send(payload []byte) error
}

// MoveRecord is one entry of the move log. Move is stored as received.
type MoveRecord struct {
	Move          json.RawMessage `json:"move"`
	PositionToken string          `json:"fen"`
	By            string          `json:"by"`
	At            time.Time       `json:"at"`
}

// State is the shared game state of a session.
type State struct {
	PositionToken string
	Moves         []MoveRecord
}

// Phase describes where a session is in its lifecycle.
type Phase string

const (
	PhaseAwaitingSecond Phase = "awaiting_second"
	PhaseActive         Phase = "active"
	PhaseReduced        Phase = "reduced"
	PhaseClosed         Phase = "closed"
)

// Session is one room: two principal seats, observers in join order, and the
// last position asserted by a client.
type Session struct {
	ID        string
	CreatedAt time.Time

	manager *Manager

	mu           sync.Mutex
	primary      Member
	secondary    Member
	observers    []Member
	state        State
	paired       bool
	closed       bool
	lastActivity time.Time
}

func newSession(id, position string, now time.Time, manager *Manager) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    now,
		manager:      manager,
		state:        State{PositionToken: position},
		lastActivity: now,
	}
}

// Exec runs fn inside the session's critical section. Membership edits, state
// writes and the sends that announce them all happen under the same lock, so
// every occupant sees events in log order. If fn leaves the session without
// occupants it is closed and dropped from its manager. Exec on a closed session
// returns ErrSessionNotFound without calling fn.
func (s *Session) Exec(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionNotFound
	}

	err := fn(&Tx{s: s})
	s.lastActivity = s.clock()

	if s.vacant() {
		s.closed = true
		if s.manager != nil {
			s.manager.release(s)
		}
	}
	return err
}

// Closed reports whether the session was released.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot is a point-in-time copy of a session for read APIs.
type Snapshot struct {
	ID            string
	Primary       string
	Secondary     string
	Observers     []string
	PositionToken string
	Moves         []MoveRecord
	Phase         Phase
	CreatedAt     time.Time
	LastActivity  time.Time
}

// Snapshot copies the session's current membership and state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.ID,
		PositionToken: s.state.PositionToken,
		Moves:         append([]MoveRecord(nil), s.state.Moves...),
		Phase:         s.phase(),
		CreatedAt:     s.CreatedAt,
		LastActivity:  s.lastActivity,
		Observers:     make([]string, 0, len(s.observers)),
	}
	if s.primary != nil {
		snap.Primary = s.primary.ID()
	}
	if s.secondary != nil {
		snap.Secondary = s.secondary.ID()
	}
	for _, o := range s.observers {
		snap.Observers = append(snap.Observers, o.ID())
	}
	return snap
}

func (s *Session) phase() Phase {
	switch {
	case s.closed:
		return PhaseClosed
	case !s.paired:
		return PhaseAwaitingSecond
	case s.primary != nil && s.secondary != nil:
		return PhaseActive
	default:
		return PhaseReduced
	}
}

func (s *Session) vacant() bool {
	return s.primary == nil && s.secondary == nil && len(s.observers) == 0
}

func (s *Session) clock() time.Time {
	if s.manager != nil {
		return s.manager.now()
	}
	return time.Now()
}

// Tx is the view of a session handed to Exec callbacks. It must not escape
// the callback.
type Tx struct {
	s *Session
}

// RoomID returns the session identifier.
func (tx *Tx) RoomID() string {
	return tx.s.ID
}

// Principal returns the member in the given seat, or nil.
func (tx *Tx) Principal(r Role) Member {
	switch r {
	case RolePrimary:
		return tx.s.primary
	case RoleSecondary:
		return tx.s.secondary
	default:
		return nil
	}
}

// Observers returns the observers in join order.
func (tx *Tx) Observers() []Member {
	return append([]Member(nil), tx.s.observers...)
}

// Occupants returns primary, secondary and then observers in join order,
// skipping empty seats.
func (tx *Tx) Occupants() []Member {
	out := make([]Member, 0, 2+len(tx.s.observers))
	if tx.s.primary != nil {
		out = append(out, tx.s.primary)
	}
	if tx.s.secondary != nil {
		out = append(out, tx.s.secondary)
	}
	return append(out, tx.s.observers...)
}

// RoleOf finds m by identity.
func (tx *Tx) RoleOf(m Member) Role {
	switch {
	case m == nil:
		return RoleNone
	case tx.s.primary == m:
		return RolePrimary
	case tx.s.secondary == m:
		return RoleSecondary
	}
	for _, o := range tx.s.observers {
		if o == m {
			return RoleObserver
		}
	}
	return RoleNone
}

// Pair seats m as secondary when that seat is free and as an observer
// otherwise.
func (tx *Tx) Pair(m Member) Role {
	if tx.s.secondary == nil {
		tx.s.secondary = m
		tx.s.paired = true
		return RoleSecondary
	}
	tx.s.observers = append(tx.s.observers, m)
	return RoleObserver
}

// Vacate removes m from whatever seat it holds and returns that seat.
func (tx *Tx) Vacate(m Member) Role {
	switch tx.RoleOf(m) {
	case RolePrimary:
		tx.s.primary = nil
		return RolePrimary
	case RoleSecondary:
		tx.s.secondary = nil
		return RoleSecondary
	case RoleObserver:
		kept := tx.s.observers[:0]
		for _, o := range tx.s.observers {
			if o != m {
				kept = append(kept, o)
			}
		}
		for i := len(kept); i < len(tx.s.observers); i++ {
			tx.s.observers[i] = nil
		}
		tx.s.observers = kept
		return RoleObserver
	default:
		return RoleNone
	}
}

// RecordMove appends a move to the log and, when token is not empty, makes
// it the current position. The latest write wins.
func (tx *Tx) RecordMove(move json.RawMessage, token string, by Role) {
	if token != "" {
		tx.s.state.PositionToken = token
	}
	tx.s.state.Moves = append(tx.s.state.Moves, MoveRecord{
		Move:          move,
		PositionToken: tx.s.state.PositionToken,
		By:            by.String(),
		At:            tx.s.clock(),
	})
}

// State returns a copy of the shared state.
func (tx *Tx) State() State {
	return State{
		PositionToken: tx.s.state.PositionToken,
		Moves:         append([]MoveRecord(nil), tx.s.state.Moves...),
	}
}
