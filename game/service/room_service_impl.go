package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Srijit23/Chessify/game/session"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// roomServiceImpl implements the RoomService interface
type roomServiceImpl struct {
	sessions *session.Manager
}

// NewRoomService creates a read-only view over the session registry.
func NewRoomService(sessions *session.Manager) RoomService {
	return &roomServiceImpl{sessions: sessions}
}

// ListRooms returns every live room, oldest first.
func (s *roomServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	live := s.sessions.List()
	rooms := make([]*RoomInfo, 0, len(live))
	for _, sess := range live {
		snap := sess.Snapshot()
		if snap.Phase == session.PhaseClosed {
			continue
		}
		rooms = append(rooms, roomInfoFromSnapshot(snap))
	}
	return rooms, nil
}

// GetRoom returns one room.
func (s *roomServiceImpl) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	snap, err := s.snapshot(roomID)
	if err != nil {
		return nil, err
	}
	return roomInfoFromSnapshot(snap), nil
}

// GetMoveHistory returns a page of a room's move log.
func (s *roomServiceImpl) GetMoveHistory(ctx context.Context, roomID string, opts HistoryOptions) (*HistoryResponse, error) {
	snap, err := s.snapshot(roomID)
	if err != nil {
		return nil, err
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 1 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}

	moves := snap.Moves
	if strings.EqualFold(opts.Order, "desc") {
		reversed := make([]session.MoveRecord, len(moves))
		for i, mv := range moves {
			reversed[len(moves)-1-i] = mv
		}
		moves = reversed
	}

	total := len(moves)
	totalPages := (total + opts.Limit - 1) / opts.Limit
	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &HistoryResponse{
		RoomID:      roomID,
		Moves:       append([]session.MoveRecord{}, moves[start:end]...),
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// CountRooms returns the number of live rooms.
func (s *roomServiceImpl) CountRooms(ctx context.Context) int {
	return s.sessions.Count()
}

func (s *roomServiceImpl) snapshot(roomID string) (session.Snapshot, error) {
	sess, err := s.sessions.Get(roomID)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("room %s: %w", roomID, err)
	}
	snap := sess.Snapshot()
	if snap.Phase == session.PhaseClosed {
		return session.Snapshot{}, fmt.Errorf("room %s: %w", roomID, session.ErrSessionNotFound)
	}
	return snap, nil
}
