package service

import (
	"time"

	"github.com/Srijit23/Chessify/game/session"
)

// RoomInfo provides information about a room
type RoomInfo struct {
	RoomID         string        `json:"room_id"`
	Phase          session.Phase `json:"state"`
	Primary        string        `json:"primary,omitempty"`
	Secondary      string        `json:"secondary,omitempty"`
	Observers      []string      `json:"observers"`
	FEN            string        `json:"fen"`
	MoveCount      int           `json:"move_count"`
	CreatedAt      time.Time     `json:"created_at"`
	LastActivityAt time.Time     `json:"last_activity_at"`
}

// Occupants counts every connection attached to the room.
func (r *RoomInfo) Occupants() int {
	n := len(r.Observers)
	if r.Primary != "" {
		n++
	}
	if r.Secondary != "" {
		n++
	}
	return n
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	RoomID      string               `json:"room_id"`
	Moves       []session.MoveRecord `json:"moves"`
	TotalMoves  int                  `json:"total_moves"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	TotalPages  int                  `json:"total_pages"`
	HasNext     bool                 `json:"has_next"`
	HasPrevious bool                 `json:"has_previous"`
}

// Stats is a process-wide count of rooms and connections.
type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

func roomInfoFromSnapshot(snap session.Snapshot) *RoomInfo {
	return &RoomInfo{
		RoomID:         snap.ID,
		Phase:          snap.Phase,
		Primary:        snap.Primary,
		Secondary:      snap.Secondary,
		Observers:      snap.Observers,
		FEN:            snap.PositionToken,
		MoveCount:      len(snap.Moves),
		CreatedAt:      snap.CreatedAt,
		LastActivityAt: snap.LastActivity,
	}
}
