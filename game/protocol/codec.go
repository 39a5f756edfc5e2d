package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrMissingType = errors.New("missing message type")
	ErrUnknownType = errors.New("unknown message type")
)

// UnknownTypeError names a type outside the recognized set.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string { return "unknown message type: " + e.Type }

func (e *UnknownTypeError) Is(target error) bool { return target == ErrUnknownType }

type envelope struct {
	Type *string `json:"type"`
}

// Decode parses one frame into its Inbound variant. Errors match ErrMalformed,
// ErrMissingType or ErrUnknownType under errors.Is.
func Decode(data []byte) (Inbound, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == nil || *env.Type == "" {
		return nil, ErrMissingType
	}

	switch *env.Type {
	case TypeCreateRoom:
		return decodeInto[CreateRoom](trimmed)
	case TypeJoinRoom:
		return decodeInto[JoinRoom](trimmed)
	case TypeMakeMove:
		return decodeInto[MakeMove](trimmed)
	case TypeGameOver:
		return decodeInto[GameOver](trimmed)
	case TypeChatMessage:
		return decodeInto[ChatMessage](trimmed)
	case TypeOfferDraw:
		return OfferDraw{Raw: clone(trimmed)}, nil
	case TypeDrawResponse:
		return DrawResponse{Raw: clone(trimmed)}, nil
	default:
		return nil, &UnknownTypeError{Type: *env.Type}
	}
}

func decodeInto[T Inbound](data []byte) (Inbound, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}

// Encode serializes an outbound event.
func Encode(event any) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", event, err)
	}
	return data, nil
}

// ErrorMessage turns a Decode error into the text sent back to the client.
func ErrorMessage(err error) string {
	var unknown *UnknownTypeError
	switch {
	case errors.Is(err, ErrMissingType):
		return "Missing message type"
	case errors.As(err, &unknown):
		return "Unknown message type: " + unknown.Type
	default:
		return "Invalid message format"
	}
}

func clone(b []byte) json.RawMessage {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
