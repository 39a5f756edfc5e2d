package api

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srijit23/Chessify/game/service"
	"github.com/Srijit23/Chessify/game/session"
)

type memberStub struct{ id string }

func (m memberStub) ID() string          { return m.id }
func (m memberStub) Send(p []byte) error { return nil }

// newLiveServer serves the API over a real registry with one active room.
func newLiveServer(t *testing.T) *Client {
	t.Helper()

	sessions := session.NewManager()
	coordinator := service.NewCoordinator(sessions)
	p, s := memberStub{"p"}, memberStub{"s"}
	mp := coordinator.Dispatch(p, service.Membership{}, []byte(`{"type":"create_room","roomId":"live"}`))
	coordinator.Dispatch(s, service.Membership{}, []byte(`{"type":"join_room","roomId":"live"}`))
	coordinator.Dispatch(p, mp, []byte(`{"type":"make_move","move":{"from":"e2","to":"e4"},"fen":"after-e4"}`))

	server := httptest.NewServer(NewServer(service.NewRoomService(sessions), &mockHub{connections: 2}))
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/")
}

func TestClient(t *testing.T) {
	client := newLiveServer(t)
	ctx := context.Background()

	stats, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &service.Stats{Rooms: 1, Connections: 2}, stats)

	list, err := client.ListRooms(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "live", list.Rooms[0].RoomID)
	assert.Equal(t, session.PhaseActive, list.Rooms[0].Phase)

	room, err := client.GetRoom(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "after-e4", room.FEN)
	assert.Equal(t, 1, room.MoveCount)

	history, err := client.MoveHistory(ctx, "live", service.HistoryOptions{Page: 1, Limit: 10, Order: "desc"})
	require.NoError(t, err)
	require.Len(t, history.Moves, 1)
	assert.JSONEq(t, `{"from":"e2","to":"e4"}`, string(history.Moves[0].Move))
	assert.Equal(t, "primary", history.Moves[0].By)
}

func TestClient_NotFound(t *testing.T) {
	client := newLiveServer(t)

	_, err := client.GetRoom(context.Background(), "nope")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, service.MsgRoomNotFound, apiErr.Error())
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(nil)
	url := server.URL
	server.Close()

	_, err := NewClient(url).Stats(context.Background())
	assert.Error(t, err)
}
