// Package api provides the HTTP surface of the room server.
//
// Endpoints:
//
//   - GET /ws - WebSocket upgrade; all game traffic flows here
//   - GET /health - liveness probe
//   - GET /api/stats - live room and connection counts
//   - GET /api/rooms - live rooms, oldest first (?limit=)
//   - GET /api/rooms/{id} - one room
//   - GET /api/rooms/{id}/moves - paginated move log (?page=&limit=&order=asc|desc)
//
// The REST endpoints are read-only. Rooms are created and joined over the
// WebSocket only.
//
// Errors are returned as JSON:
//
//	{"error": "Room not found"}
//
// Client is a small consumer of the same endpoints, used by the MCP tools and
// the status command.
package api
