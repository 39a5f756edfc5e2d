package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Srijit23/Chessify/game/service"
	"github.com/Srijit23/Chessify/game/session"
)

// ConnectionHub is the part of the WebSocket hub the HTTP surface needs.
type ConnectionHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	Count() int
}

// Server represents the REST API server
type Server struct {
	rooms  service.RoomService
	hub    ConnectionHub
	router *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case /ws
// answers 503 and connection counts are zero.
func NewServer(rooms service.RoomService, hub ConnectionHub) *Server {
	s := &Server{
		rooms:  rooms,
		hub:    hub,
		router: mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/api/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/rooms", s.handleListRooms).Methods("GET")
	s.router.HandleFunc("/api/rooms/{id}", s.handleGetRoom).Methods("GET")
	s.router.HandleFunc("/api/rooms/{id}/moves", s.handleGetMoves).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Handle mounts an extra handler, such as the MCP endpoint, on the router.
func (s *Server) Handle(path string, handler http.Handler) {
	s.router.Handle(path, handler)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := service.Stats{Rooms: s.rooms.CountRooms(r.Context())}
	if s.hub != nil {
		stats.Connections = s.hub.Count()
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.ListRooms(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total := len(rooms)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(rooms) {
			rooms = rooms[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"total": total,
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	room, err := s.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		respondRoomError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, room)
}

func (s *Server) handleGetMoves(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "asc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.rooms.GetMoveHistory(r.Context(), roomID, opts)
	if err != nil {
		respondRoomError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "WebSocket hub not available", http.StatusServiceUnavailable)
		return
	}
	s.hub.ServeWS(w, r)
}

func respondRoomError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, service.MsgRoomNotFound)
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
