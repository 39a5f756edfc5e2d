package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srijit23/Chessify/game/config"
	"github.com/Srijit23/Chessify/game/service"
	"github.com/Srijit23/Chessify/game/session"
)

type testServer struct {
	hub      *Hub
	sessions *session.Manager
	url      string
}

func newTestServer(t *testing.T, cfg config.Config) *testServer {
	t.Helper()

	sessions := session.NewManager(session.WithInitialPosition(cfg.InitialPosition))
	hub := NewHub(service.NewCoordinator(sessions), cfg)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	return &testServer{
		hub:      hub,
		sessions: sessions,
		url:      "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &event), "frame must hold exactly one JSON object: %s", data)
	return event
}

func expectSilence(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(wait))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame: %s", data)
}

func TestEndToEndScenario(t *testing.T) {
	ts := newTestServer(t, config.Default())
	a := dial(t, ts.url)
	b := dial(t, ts.url)

	send(t, a, `{"type":"create_room","roomId":"abc123"}`)
	created := readEvent(t, a)
	assert.Equal(t, "room_created", created["type"])
	assert.Equal(t, "abc123", created["roomId"])
	assert.Equal(t, "primary", created["color"])

	send(t, b, `{"type":"join_room","roomId":"abc123"}`)
	startA := readEvent(t, a)
	startB := readEvent(t, b)
	assert.Equal(t, "game_start", startA["type"])
	assert.Equal(t, "game_start", startB["type"])
	assert.Equal(t, "primary", startA["color"])
	assert.Equal(t, "secondary", startB["color"])
	assert.Equal(t, config.StartingPosition, startA["fen"])
	assert.Equal(t, startA["fen"], startB["fen"])

	send(t, a, `{"type":"make_move","move":{"from":"e2","to":"e4"},"fen":"new-fen"}`)
	moveB := readEvent(t, b)
	assert.Equal(t, "move_made", moveB["type"])
	assert.Equal(t, map[string]interface{}{"from": "e2", "to": "e4"}, moveB["move"])
	assert.Equal(t, "new-fen", moveB["fen"])
	moveA := readEvent(t, a)
	assert.Equal(t, "move_made", moveA["type"])

	require.NoError(t, b.Close())
	left := readEvent(t, a)
	assert.Equal(t, "player_disconnected", left["type"])
	assert.Equal(t, "secondary", left["color"])

	_, err := ts.sessions.Get("abc123")
	require.NoError(t, err, "room survives while the primary is connected")

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool {
		_, err := ts.sessions.Get("abc123")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return ts.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	// the id is free again
	c := dial(t, ts.url)
	send(t, c, `{"type":"create_room","roomId":"abc123"}`)
	assert.Equal(t, "room_created", readEvent(t, c)["type"])
}

func TestSpectatorReceivesBroadcasts(t *testing.T) {
	ts := newTestServer(t, config.Default())
	a := dial(t, ts.url)
	b := dial(t, ts.url)
	o := dial(t, ts.url)

	send(t, a, `{"type":"create_room","roomId":"r"}`)
	readEvent(t, a)
	send(t, b, `{"type":"join_room","roomId":"r"}`)
	readEvent(t, a)
	readEvent(t, b)

	send(t, a, `{"type":"make_move","move":"e4","fen":"fen-1"}`)
	readEvent(t, a)
	readEvent(t, b)

	send(t, o, `{"type":"join_room","roomId":"r"}`)
	spectate := readEvent(t, o)
	assert.Equal(t, "spectate_start", spectate["type"])
	assert.Equal(t, "fen-1", spectate["fen"])
	assert.Equal(t, []interface{}{"e4"}, spectate["moves"])

	send(t, b, `{"type":"game_over","result":"1-0"}`)
	for _, conn := range []*websocket.Conn{a, b, o} {
		event := readEvent(t, conn)
		assert.Equal(t, "game_over", event["type"])
		assert.Equal(t, "1-0", event["result"])
	}
}

func TestProtocolErrorsKeepConnectionOpen(t *testing.T) {
	ts := newTestServer(t, config.Default())
	conn := dial(t, ts.url)

	tests := []struct {
		frame   string
		message string
	}{
		{`not json`, "Invalid message format"},
		{`{"roomId":"x"}`, "Missing message type"},
		{`{"type":"teleport"}`, "Unknown message type: teleport"},
		{`{"type":"join_room","roomId":"nowhere"}`, service.MsgRoomNotFound},
	}

	for _, tt := range tests {
		send(t, conn, tt.frame)
		event := readEvent(t, conn)
		assert.Equal(t, "error", event["type"])
		assert.Equal(t, tt.message, event["message"])
	}

	// orphan messages are dropped without a reply
	send(t, conn, `{"type":"make_move","move":"e4","fen":"x"}`)
	expectSilence(t, conn, 200*time.Millisecond)
}

func TestOriginPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedOrigins = []string{"https://chess.example"}
	ts := newTestServer(t, cfg)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(ts.url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://CHESS.example")
	conn, _, err := websocket.DefaultDialer.Dial(ts.url, header)
	require.NoError(t, err)
	conn.Close()

	// non-browser clients send no Origin
	conn, _, err = websocket.DefaultDialer.Dial(ts.url, nil)
	require.NoError(t, err)
	conn.Close()
}

func TestRateLimitDiscardsExcessFrames(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit = config.RateLimitConfig{Burst: 1, PerSecond: 0.01}
	ts := newTestServer(t, cfg)
	conn := dial(t, ts.url)

	send(t, conn, `{"type":"teleport"}`)
	send(t, conn, `{"type":"teleport"}`)

	assert.Equal(t, "error", readEvent(t, conn)["type"])
	expectSilence(t, conn, 200*time.Millisecond)
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	cfg := config.Default()
	cfg.MaxMessageSize = 64
	ts := newTestServer(t, cfg)
	conn := dial(t, ts.url)

	send(t, conn, `{"type":"create_room","roomId":"`+strings.Repeat("x", 200)+`"}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	require.Eventually(t, func() bool { return ts.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientSend(t *testing.T) {
	client := &Client{id: "c1", send: make(chan []byte, 1)}

	require.NoError(t, client.Send([]byte("one")))
	assert.ErrorIs(t, client.Send([]byte("two")), ErrSendBufferFull)

	client.closeSend()
	assert.ErrorIs(t, client.Send([]byte("three")), ErrClientClosed)
	client.closeSend()

	assert.Equal(t, "c1", client.ID())
}

func TestHubShutdown(t *testing.T) {
	ts := newTestServer(t, config.Default())
	a := dial(t, ts.url)
	b := dial(t, ts.url)

	send(t, a, `{"type":"create_room","roomId":"r"}`)
	readEvent(t, a)
	send(t, b, `{"type":"join_room","roomId":"r"}`)
	readEvent(t, a)
	readEvent(t, b)
	require.Equal(t, 2, ts.hub.Count())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, ts.hub.Shutdown(ctx))

	assert.Equal(t, 0, ts.hub.Count())
	assert.Equal(t, 0, ts.sessions.Count())

	// late connections are closed right after the handshake
	late := dial(t, ts.url)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, ts.hub.Count())
}
