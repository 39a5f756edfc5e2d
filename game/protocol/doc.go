// Package protocol defines the JSON messages exchanged over the WebSocket.
//
// Every frame is one JSON object with a "type" field. Decode turns a frame
// into one of a closed set of Inbound variants; outbound events are plain
// structs built with the New* constructors. Move, result and chat payloads are
// carried as raw JSON and passed through unchanged.
package protocol
