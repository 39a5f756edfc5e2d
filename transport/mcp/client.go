package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Srijit23/Chessify/api"
	"github.com/Srijit23/Chessify/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	api       *api.Client
	mcpServer *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL, version string) *Client {
	c := &Client{
		api: api.NewClient(baseURL),
	}

	c.initMCPServer(version)
	return c
}

func (c *Client) initMCPServer(version string) {
	c.mcpServer = server.NewMCPServer(
		"Chessify",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Chessify room inspector - MCP Interface

Read-only view of a running two-player chess room server. Rooms are created
and played over the WebSocket endpoint; these tools only observe them.

AVAILABLE TOOLS:
- server_stats: Count live rooms and open connections
- list_rooms: List live rooms with their seats and move counts
- get_room: Show one room's seats, lifecycle state and current position
- move_history: Page through a room's move log`),
	)

	c.registerTools()
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Count live rooms and open WebSocket connections",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleServerStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List live rooms, oldest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of rooms to return (optional)",
				},
			},
		},
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get details of a specific room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID to retrieve",
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get a page of a room's move log",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room ID",
				},
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number, starting at 1 (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Moves per page (optional)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"description": "asc (oldest first) or desc (newest first)",
					"enum":        []string{"asc", "desc"},
				},
			},
			Required: []string{"room_id"},
		},
	}, c.handleMoveHistory)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func (c *Client) handleServerStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := c.api.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Rooms: %d\nConnections: %d\n", stats.Rooms, stats.Connections)), nil
}

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	limit := 0
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	list, err := c.api.ListRooms(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Live Rooms (%d of %d):\n\n", list.Count, list.Total)
	for _, room := range list.Rooms {
		fmt.Fprintf(&b, "- %s [%s] moves=%d observers=%d created=%s\n",
			room.RoomID, room.Phase, room.MoveCount, len(room.Observers), room.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	roomID, _ := arguments(request)["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	room, err := c.api.GetRoom(ctx, roomID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRoomInfo(room)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	roomID, _ := args["room_id"].(string)
	if roomID == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}

	opts := service.HistoryOptions{}
	if page, ok := args["page"].(float64); ok {
		opts.Page = int(page)
	}
	if limit, ok := args["limit"].(float64); ok {
		opts.Limit = int(limit)
	}
	if order, ok := args["order"].(string); ok {
		opts.Order = order
	}

	history, err := c.api.MoveHistory(ctx, roomID, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(history)), nil
}

func formatRoomInfo(room *service.RoomInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\n", room.RoomID)
	fmt.Fprintf(&b, "State: %s\n", room.Phase)
	fmt.Fprintf(&b, "Primary: %s\n", seat(room.Primary))
	fmt.Fprintf(&b, "Secondary: %s\n", seat(room.Secondary))
	fmt.Fprintf(&b, "Observers: %d\n", len(room.Observers))
	fmt.Fprintf(&b, "Moves: %d\n", room.MoveCount)
	fmt.Fprintf(&b, "Position: %s\n", room.FEN)
	fmt.Fprintf(&b, "Created: %s\n", room.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Last activity: %s\n", room.LastActivityAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

func seat(id string) string {
	if id == "" {
		return "(empty)"
	}
	return id
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History for %s (Page %d/%d), Total: %d\n\n",
		history.RoomID, history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("(no moves)\n")
		return b.String()
	}
	for i, move := range history.Moves {
		num := (history.Page-1)*history.PageSize + i + 1
		fmt.Fprintf(&b, "%d. %s by %s -> %s\n", num, string(move.Move), move.By, move.PositionToken)
	}
	return b.String()
}
