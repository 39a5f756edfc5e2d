package service

import (
	"context"
)

// RoomService defines the read-only room queries served over REST and MCP.
type RoomService interface {
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	GetRoom(ctx context.Context, roomID string) (*RoomInfo, error)
	GetMoveHistory(ctx context.Context, roomID string, opts HistoryOptions) (*HistoryResponse, error)
	CountRooms(ctx context.Context) int
}
