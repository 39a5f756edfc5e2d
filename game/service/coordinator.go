package service

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/Srijit23/Chessify/game/protocol"
	"github.com/Srijit23/Chessify/game/session"
)

// Error texts sent back to clients.
const (
	MsgRoomExists     = "Room already exists"
	MsgRoomNotFound   = "Room not found"
	MsgRoomIDRequired = "Room ID is required"
	MsgRoomIDTooLong  = "Room ID is too long"
	MsgAlreadyInRoom  = "Already in a room"
)

// Membership is the per-connection record of which room a connection is in
// and which seat it holds. Transports keep it and pass it back on every call;
// the zero value means "not in a room". Role is the seat granted at create or
// join time and is used for logging; the session stays authoritative for the
// current seat.
type Membership struct {
	RoomID string
	Role   session.Role

	session *session.Session
}

// InRoom reports whether the connection holds a seat.
func (m Membership) InRoom() bool {
	return m.session != nil
}

// Coordinator routes decoded client messages to session operations and
// handles connection teardown.
type Coordinator struct {
	sessions        *session.Manager
	maxRoomIDLength int
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMaxRoomIDLength caps the length of caller-supplied room IDs.
func WithMaxRoomIDLength(n int) CoordinatorOption {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxRoomIDLength = n
		}
	}
}

// NewCoordinator creates a coordinator that owns no state besides the given
// registry.
func NewCoordinator(sessions *session.Manager, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		sessions:        sessions,
		maxRoomIDLength: 64,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch decodes one frame from conn, applies it, and returns the
// connection's membership afterwards. Protocol errors are answered on conn and
// never close it.
func (c *Coordinator) Dispatch(conn session.Member, m Membership, raw []byte) Membership {
	msg, err := protocol.Decode(raw)
	if err != nil {
		log.Printf("protocol error conn=%s: %v", conn.ID(), err)
		c.reply(conn, protocol.NewError(protocol.ErrorMessage(err)))
		return m
	}

	switch msg := msg.(type) {
	case protocol.CreateRoom:
		return c.createRoom(conn, m, msg)
	case protocol.JoinRoom:
		return c.joinRoom(conn, m, msg)
	case protocol.MakeMove:
		c.makeMove(conn, m, msg)
	case protocol.GameOver:
		c.gameOver(conn, m, msg)
	case protocol.OfferDraw:
		c.forwardToOpponent(conn, m, msg.Type(), msg.Raw)
	case protocol.DrawResponse:
		c.forwardToOpponent(conn, m, msg.Type(), msg.Raw)
	case protocol.ChatMessage:
		c.chat(conn, m, msg)
	}
	return m
}

// Disconnect vacates conn's seat, tells the opposing principal when a
// principal leaves, and lets the session be reclaimed once it is empty.
func (c *Coordinator) Disconnect(conn session.Member, m Membership) {
	if !m.InRoom() {
		return
	}

	err := m.session.Exec(func(tx *session.Tx) error {
		role := tx.Vacate(conn)
		log.Printf("room=%s conn=%s left (joined as %s, vacated %s)", m.RoomID, conn.ID(), m.Role, role)
		if !role.IsPrincipal() {
			return nil
		}
		if opponent := tx.Principal(role.Opponent()); opponent != nil {
			c.send(m.RoomID, []session.Member{opponent}, protocol.NewPlayerDisconnected(role.String()))
		}
		return nil
	})
	if errors.Is(err, session.ErrSessionNotFound) {
		return
	}
	if m.session.Closed() {
		log.Printf("room=%s removed (no occupants)", m.RoomID)
	}
}

func (c *Coordinator) createRoom(conn session.Member, m Membership, msg protocol.CreateRoom) Membership {
	if m.InRoom() {
		c.reply(conn, protocol.NewError(MsgAlreadyInRoom))
		return m
	}
	if reason := c.checkRoomID(msg.RoomID); reason != "" {
		c.reply(conn, protocol.NewError(reason))
		return m
	}

	sess, err := c.sessions.Open(msg.RoomID, conn, func(tx *session.Tx) error {
		c.send(msg.RoomID, []session.Member{conn}, protocol.NewRoomCreated(msg.RoomID, session.RolePrimary.String()))
		return nil
	})
	if errors.Is(err, session.ErrSessionAlreadyExists) {
		log.Printf("room=%s create rejected conn=%s: already exists", msg.RoomID, conn.ID())
		c.reply(conn, protocol.NewError(MsgRoomExists))
		return m
	}
	if err != nil {
		log.Printf("room=%s create failed conn=%s: %v", msg.RoomID, conn.ID(), err)
		c.reply(conn, protocol.NewError(err.Error()))
		return m
	}

	log.Printf("room=%s created by conn=%s", msg.RoomID, conn.ID())
	return Membership{RoomID: msg.RoomID, Role: session.RolePrimary, session: sess}
}

func (c *Coordinator) joinRoom(conn session.Member, m Membership, msg protocol.JoinRoom) Membership {
	if m.InRoom() {
		c.reply(conn, protocol.NewError(MsgAlreadyInRoom))
		return m
	}
	if reason := c.checkRoomID(msg.RoomID); reason != "" {
		c.reply(conn, protocol.NewError(reason))
		return m
	}

	sess, err := c.sessions.Get(msg.RoomID)
	if err != nil {
		c.reply(conn, protocol.NewError(MsgRoomNotFound))
		return m
	}

	var role session.Role
	err = sess.Exec(func(tx *session.Tx) error {
		role = tx.Pair(conn)
		state := tx.State()
		moves := moveLog(state)

		if role == session.RoleSecondary {
			if primary := tx.Principal(session.RolePrimary); primary != nil {
				c.send(msg.RoomID, []session.Member{primary},
					protocol.NewGameStart(msg.RoomID, session.RolePrimary.String(), state.PositionToken, moves))
			}
			c.send(msg.RoomID, []session.Member{conn},
				protocol.NewGameStart(msg.RoomID, session.RoleSecondary.String(), state.PositionToken, moves))
			return nil
		}

		c.send(msg.RoomID, []session.Member{conn}, protocol.NewSpectateStart(msg.RoomID, state.PositionToken, moves))
		return nil
	})
	if errors.Is(err, session.ErrSessionNotFound) {
		// closed between lookup and lock
		c.reply(conn, protocol.NewError(MsgRoomNotFound))
		return m
	}

	log.Printf("room=%s conn=%s joined as %s", msg.RoomID, conn.ID(), role)
	return Membership{RoomID: msg.RoomID, Role: role, session: sess}
}

func (c *Coordinator) makeMove(conn session.Member, m Membership, msg protocol.MakeMove) {
	c.inRoom(conn, m, msg.Type(), func(tx *session.Tx) {
		tx.RecordMove(msg.Move, msg.FEN, tx.RoleOf(conn))
		event := protocol.NewMoveMade(msg.Move, tx.State().PositionToken)
		c.send(m.RoomID, tx.Occupants(), event)
	})
}

func (c *Coordinator) gameOver(conn session.Member, m Membership, msg protocol.GameOver) {
	c.inRoom(conn, m, msg.Type(), func(tx *session.Tx) {
		log.Printf("room=%s game over: %s", m.RoomID, string(msg.Result))
		c.send(m.RoomID, tx.Occupants(), protocol.NewGameOver(msg.Result))
	})
}

func (c *Coordinator) chat(conn session.Member, m Membership, msg protocol.ChatMessage) {
	c.inRoom(conn, m, msg.Type(), func(tx *session.Tx) {
		c.send(m.RoomID, tx.Occupants(), protocol.NewChat(msg.Message, tx.RoleOf(conn).String()))
	})
}

// forwardToOpponent relays a draw message, as received, to the other
// principal. Observers cannot negotiate.
func (c *Coordinator) forwardToOpponent(conn session.Member, m Membership, kind string, raw json.RawMessage) {
	c.inRoom(conn, m, kind, func(tx *session.Tx) {
		role := tx.RoleOf(conn)
		if !role.IsPrincipal() {
			log.Printf("room=%s dropped %s from non-principal conn=%s", m.RoomID, kind, conn.ID())
			return
		}
		opponent := tx.Principal(role.Opponent())
		if opponent == nil {
			log.Printf("room=%s dropped %s: no opponent for %s", m.RoomID, kind, role)
			return
		}
		c.deliver(m.RoomID, []session.Member{opponent}, raw)
	})
}

// inRoom runs fn in the caller's session. Messages for a room that no longer
// resolves are dropped without a reply; late frames after teardown are
// expected.
func (c *Coordinator) inRoom(conn session.Member, m Membership, kind string, fn func(tx *session.Tx)) {
	if !m.InRoom() {
		log.Printf("dropped %s from conn=%s: not in a room", kind, conn.ID())
		return
	}
	err := m.session.Exec(func(tx *session.Tx) error {
		fn(tx)
		return nil
	})
	if errors.Is(err, session.ErrSessionNotFound) {
		log.Printf("room=%s dropped %s from conn=%s (role=%s): room is gone", m.RoomID, kind, conn.ID(), m.Role)
	}
}

func (c *Coordinator) checkRoomID(id string) string {
	switch {
	case id == "":
		return MsgRoomIDRequired
	case len(id) > c.maxRoomIDLength:
		return MsgRoomIDTooLong
	default:
		return ""
	}
}

// reply sends event to conn alone, outside any session.
func (c *Coordinator) reply(conn session.Member, event any) {
	c.send("", []session.Member{conn}, event)
}

// send encodes event once and fans it out.
func (c *Coordinator) send(roomID string, targets []session.Member, event any) DeliveryReport {
	payload, err := protocol.Encode(event)
	if err != nil {
		log.Printf("room=%s %v", roomID, err)
		return DeliveryReport{}
	}
	return c.deliver(roomID, targets, payload)
}

// deliver hands payload to every target. One recipient's failure never stops
// delivery to the rest; failures are logged and reported, not returned.
func (c *Coordinator) deliver(roomID string, targets []session.Member, payload []byte) DeliveryReport {
	report := Deliver(targets, payload)
	for _, f := range report.Failures {
		log.Printf("room=%s send to conn=%s failed: %v", roomID, f.MemberID, f.Err)
	}
	return report
}

func moveLog(state session.State) []json.RawMessage {
	if len(state.Moves) == 0 {
		return nil
	}
	moves := make([]json.RawMessage, 0, len(state.Moves))
	for _, rec := range state.Moves {
		moves = append(moves, rec.Move)
	}
	return moves
}
