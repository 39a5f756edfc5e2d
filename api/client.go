package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Srijit23/Chessify/game/service"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// RoomList is the body of GET /api/rooms.
type RoomList struct {
	Count int                 `json:"count"`
	Total int                 `json:"total"`
	Rooms []*service.RoomInfo `json:"rooms"`
}

// Client calls a running server's read API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stats returns room and connection counts.
func (c *Client) Stats(ctx context.Context) (*service.Stats, error) {
	var stats service.Stats
	if err := c.get(ctx, "/api/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListRooms returns live rooms, oldest first. limit <= 0 means all.
func (c *Client) ListRooms(ctx context.Context, limit int) (*RoomList, error) {
	path := "/api/rooms"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var list RoomList
	if err := c.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetRoom returns one room.
func (c *Client) GetRoom(ctx context.Context, roomID string) (*service.RoomInfo, error) {
	var room service.RoomInfo
	if err := c.get(ctx, "/api/rooms/"+url.PathEscape(roomID), &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// MoveHistory returns one page of a room's move log.
func (c *Client) MoveHistory(ctx context.Context, roomID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Order != "" {
		query.Set("order", opts.Order)
	}

	path := "/api/rooms/" + url.PathEscape(roomID) + "/moves"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.get(ctx, path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		body, _ := io.ReadAll(resp.Body)
		json.Unmarshal(body, &errResp)
		return &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
