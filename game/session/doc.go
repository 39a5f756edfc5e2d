// Package session holds rooms and the registry that owns them.
//
// Core Types:
//
// Manager is the registry keyed by room ID. It is the only authority on
// whether a room exists, and IDs are matched exactly.
//
// Session is one room: a primary seat, a secondary seat, observers in join
// order, and the last position token a client asserted together with the
// move log. Moves are stored verbatim and never interpreted.
//
// Concurrency:
//
// Each Session has its own lock. Every membership edit, state write and the
// sends announcing it run inside Session.Exec, so all occupants see events in
// the same order as the move log, and two concurrent joins can never both take
// the secondary seat. Sessions do not block each other. When an Exec leaves a
// session without occupants it is closed and removed from the registry; a
// closed session behaves exactly like a missing one. Lock order is always
// session before registry.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Open("abc123", conn, func(tx *session.Tx) error {
//		// announce the room while nobody else can reach it
//		return nil
//	})
//
//	err = sess.Exec(func(tx *session.Tx) error {
//		role := tx.Pair(other)
//		...
//		return nil
//	})
package session
