// Package mcp exposes read-only room inspection as Model Context Protocol
// tools.
//
// The tools proxy the REST API through api.Client, so the same server can be
// inspected from a separate stdio process (`chessify mcp`) or through the
// in-process /mcp endpoint mounted by `chessify serve`.
//
// Tools:
//   - server_stats
//   - list_rooms
//   - get_room
//   - move_history
package mcp
