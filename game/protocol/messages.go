package protocol

import "encoding/json"

// Inbound message types.
const (
	TypeCreateRoom   = "create_room"
	TypeJoinRoom     = "join_room"
	TypeMakeMove     = "make_move"
	TypeGameOver     = "game_over"
	TypeOfferDraw    = "offer_draw"
	TypeDrawResponse = "draw_response"
	TypeChatMessage  = "chat_message"
)

// Outbound-only event types.
const (
	TypeRoomCreated        = "room_created"
	TypeGameStart          = "game_start"
	TypeSpectateStart      = "spectate_start"
	TypeMoveMade           = "move_made"
	TypePlayerDisconnected = "player_disconnected"
	TypeError              = "error"
)

// Inbound is a decoded client message. Every implementation lives in this
// package, so a type switch over Inbound is exhaustive.
type Inbound interface {
	Type() string
	inbound()
}

// CreateRoom asks for a new room with the caller as primary.
type CreateRoom struct {
	RoomID string `json:"roomId"`
}

// JoinRoom asks to enter an existing room as secondary or observer.
type JoinRoom struct {
	RoomID string `json:"roomId"`
}

// MakeMove carries a move and the position it produced. Both are opaque.
type MakeMove struct {
	Move json.RawMessage `json:"move"`
	FEN  string          `json:"fen"`
}

// GameOver announces a result to the room.
type GameOver struct {
	Result json.RawMessage `json:"result"`
}

// OfferDraw is forwarded verbatim to the opposing principal.
type OfferDraw struct {
	Raw json.RawMessage `json:"-"`
}

// DrawResponse is forwarded verbatim to the opposing principal.
type DrawResponse struct {
	Raw json.RawMessage `json:"-"`
}

// ChatMessage is re-emitted to every occupant with the sender's role.
type ChatMessage struct {
	Message json.RawMessage `json:"message"`
}

func (CreateRoom) Type() string   { return TypeCreateRoom }
func (JoinRoom) Type() string     { return TypeJoinRoom }
func (MakeMove) Type() string     { return TypeMakeMove }
func (GameOver) Type() string     { return TypeGameOver }
func (OfferDraw) Type() string    { return TypeOfferDraw }
func (DrawResponse) Type() string { return TypeDrawResponse }
func (ChatMessage) Type() string  { return TypeChatMessage }

func (CreateRoom) inbound()   {}
func (JoinRoom) inbound()     {}
func (MakeMove) inbound()     {}
func (GameOver) inbound()     {}
func (OfferDraw) inbound()    {}
func (DrawResponse) inbound() {}
func (ChatMessage) inbound()  {}

// RoomCreated confirms create_room to its sender.
type RoomCreated struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Color  string `json:"color"`
}

// GameStart is sent to both principals when pairing completes.
type GameStart struct {
	Type   string            `json:"type"`
	RoomID string            `json:"roomId"`
	Color  string            `json:"color"`
	FEN    string            `json:"fen"`
	Moves  []json.RawMessage `json:"moves,omitempty"`
}

// SpectateStart is sent to an observer when it joins.
type SpectateStart struct {
	Type   string            `json:"type"`
	RoomID string            `json:"roomId"`
	FEN    string            `json:"fen"`
	Moves  []json.RawMessage `json:"moves,omitempty"`
}

// MoveMade is broadcast after every make_move.
type MoveMade struct {
	Type string          `json:"type"`
	Move json.RawMessage `json:"move"`
	FEN  string          `json:"fen"`
}

// GameOverEvent is broadcast after game_over.
type GameOverEvent struct {
	Type   string          `json:"type"`
	Result json.RawMessage `json:"result,omitempty"`
}

// PlayerDisconnected tells the remaining principal which seat was vacated.
type PlayerDisconnected struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

// ChatEvent is the broadcast form of a chat message.
type ChatEvent struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
	From    string          `json:"from"`
}

// ErrorEvent reports a failure to the requesting connection only.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewRoomCreated(roomID, color string) RoomCreated {
	return RoomCreated{Type: TypeRoomCreated, RoomID: roomID, Color: color}
}

func NewGameStart(roomID, color, fen string, moves []json.RawMessage) GameStart {
	return GameStart{Type: TypeGameStart, RoomID: roomID, Color: color, FEN: fen, Moves: moves}
}

func NewSpectateStart(roomID, fen string, moves []json.RawMessage) SpectateStart {
	return SpectateStart{Type: TypeSpectateStart, RoomID: roomID, FEN: fen, Moves: moves}
}

func NewMoveMade(move json.RawMessage, fen string) MoveMade {
	return MoveMade{Type: TypeMoveMade, Move: move, FEN: fen}
}

func NewGameOver(result json.RawMessage) GameOverEvent {
	return GameOverEvent{Type: TypeGameOver, Result: result}
}

func NewPlayerDisconnected(color string) PlayerDisconnected {
	return PlayerDisconnected{Type: TypePlayerDisconnected, Color: color}
}

func NewChat(message json.RawMessage, from string) ChatEvent {
	return ChatEvent{Type: TypeChatMessage, Message: message, From: from}
}

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}
