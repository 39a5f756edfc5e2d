package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Inbound
	}{
		{"create", `{"type":"create_room","roomId":"abc123"}`, CreateRoom{RoomID: "abc123"}},
		{"join", ` {"type":"join_room","roomId":"abc123"} `, JoinRoom{RoomID: "abc123"}},
		{"move", `{"type":"make_move","move":{"from":"e2","to":"e4"},"fen":"f"}`,
			MakeMove{Move: json.RawMessage(`{"from":"e2","to":"e4"}`), FEN: "f"}},
		{"game over", `{"type":"game_over","result":"1-0","winner":"white"}`, GameOver{Result: json.RawMessage(`"1-0"`)}},
		{"chat", `{"type":"chat_message","message":"hi"}`, ChatMessage{Message: json.RawMessage(`"hi"`)}},
		{"offer draw", `{"type":"offer_draw"}`, OfferDraw{Raw: json.RawMessage(`{"type":"offer_draw"}`)}},
		{"draw response", `{"type":"draw_response","accepted":false}`,
			DrawResponse{Raw: json.RawMessage(`{"type":"draw_response","accepted":false}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		target  error
		message string
	}{
		{"empty", ``, ErrMalformed, "Invalid message format"},
		{"not json", `hello`, ErrMalformed, "Invalid message format"},
		{"array", `[1,2]`, ErrMalformed, "Invalid message format"},
		{"truncated", `{"type":"create_room"`, ErrMalformed, "Invalid message format"},
		{"type not a string", `{"type":7}`, ErrMalformed, "Invalid message format"},
		{"missing type", `{"roomId":"x"}`, ErrMissingType, "Missing message type"},
		{"null type", `{"type":null}`, ErrMissingType, "Missing message type"},
		{"empty type", `{"type":""}`, ErrMissingType, "Missing message type"},
		{"unknown type", `{"type":"castle"}`, ErrUnknownType, "Unknown message type: castle"},
		{"bad payload", `{"type":"join_room","roomId":[]}`, ErrMalformed, "Invalid message format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, tt.message, ErrorMessage(err))
		})
	}
}

func TestDecode_UnknownTypeError(t *testing.T) {
	_, err := Decode([]byte(`{"type":"resign"}`))

	var unknown *UnknownTypeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "resign", unknown.Type)
}

func TestDecode_DrawFrameIsCopied(t *testing.T) {
	frame := []byte(`{"type":"offer_draw"}`)
	msg, err := Decode(frame)
	require.NoError(t, err)

	frame[2] = 'X'
	assert.Equal(t, `{"type":"offer_draw"}`, string(msg.(OfferDraw).Raw))
}

func TestEncode(t *testing.T) {
	data, err := Encode(NewMoveMade(json.RawMessage(`{"from":"e2","to":"e4"}`), "fen"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"move_made","move":{"from":"e2","to":"e4"},"fen":"fen"}`, string(data))

	data, err = Encode(NewGameStart("r", "primary", "fen", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_start","roomId":"r","color":"primary","fen":"fen"}`, string(data))

	data, err = Encode(NewGameOver(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_over"}`, string(data), "absent result is omitted")

	_, err = Encode(NewMoveMade(json.RawMessage(`{broken`), "fen"))
	assert.Error(t, err)
}

func TestOutboundEvents(t *testing.T) {
	tests := []struct {
		event any
		want  string
	}{
		{NewRoomCreated("abc", "primary"), `{"type":"room_created","roomId":"abc","color":"primary"}`},
		{NewSpectateStart("abc", "fen", []json.RawMessage{json.RawMessage(`"e4"`)}), `{"type":"spectate_start","roomId":"abc","fen":"fen","moves":["e4"]}`},
		{NewPlayerDisconnected("secondary"), `{"type":"player_disconnected","color":"secondary"}`},
		{NewChat(json.RawMessage(`"gg"`), "observer"), `{"type":"chat_message","message":"gg","from":"observer"}`},
		{NewError("Room not found"), `{"type":"error","message":"Room not found"}`},
	}

	for _, tt := range tests {
		data, err := Encode(tt.event)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(data))
	}
}
