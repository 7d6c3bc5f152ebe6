package server

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-rooms/internal/game"
)

// Server ties the transport to the rooms: it serves the lobby HTTP API and
// upgrades WebSockets into registered per-player sessions.
type Server struct {
	cfg      *ServerConfig
	logger   *log.Logger
	sessions *SessionManager
	registry *Registry
	upgrader websocket.Upgrader
}

// NewServer creates a server. The clock and rng are injectable so tests
// can control timeouts and deals.
func NewServer(cfg *ServerConfig, logger *log.Logger, clock quartz.Clock, rng *rand.Rand) *Server {
	sessions := NewSessionManager(logger)

	return &Server{
		cfg:      cfg,
		logger:   logger.WithPrefix("server"),
		sessions: sessions,
		registry: NewRegistry(cfg, sessions, logger, clock, rng),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				// In production, implement proper origin checking
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Registry exposes the room directory, mainly for tests and tooling
func (s *Server) Registry() *Registry {
	return s.registry
}

// Sessions exposes the session table, mainly for tests and tooling
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Handler returns the HTTP routing surface
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("POST /create-room", s.handleCreateRoom)
	mux.HandleFunc("GET /api/room/{id}/state", s.handleRoomState)
	mux.HandleFunc("GET /ws/{room_id}/{player_id}", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start serves HTTP on the configured address. Blocks until the listener
// fails.
func (s *Server) Start() error {
	addr := s.cfg.GetServerAddress()
	s.logger.Info("Starting server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Stop shuts every room down and closes their connections
func (s *Server) Stop() {
	s.registry.Shutdown()
}

// CreateRoomRequest is the create-room POST body. Omitted numbers fall
// back to the configured defaults.
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	SmallBlind int    `json:"small_blind"`
	BigBlind   int    `json:"big_blind"`
	Ante       int    `json:"ante"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	mode := game.NoLimit
	if req.Mode != "" {
		m, err := game.ParseBettingMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}

	if req.Name == "" {
		req.Name = "Hold'em"
	}
	smallBlind := req.SmallBlind
	if smallBlind <= 0 {
		smallBlind = s.cfg.Defaults.SmallBlind
	}
	bigBlind := req.BigBlind
	if bigBlind <= 0 {
		bigBlind = s.cfg.Defaults.BigBlind
	}
	// The big blind can never undercut twice the small blind
	if bigBlind < smallBlind*2 {
		bigBlind = smallBlind * 2
	}
	ante := req.Ante
	if ante < 0 {
		ante = 0
	}

	room := s.registry.Create(req.Name, mode, smallBlind, bigBlind, ante)
	writeJSON(w, http.StatusOK, room.Info())
}

func (s *Server) handleRoomState(w http.ResponseWriter, r *http.Request) {
	room, ok := s.registry.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	snap := room.StateFor(r.URL.Query().Get("player_id"))
	if snap == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleWebSocket upgrades the connection and seats the player. The room
// lookup happens before the upgrade so an unknown room stays a plain 404.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("room_id")
	playerID := r.PathValue("player_id")
	name := r.URL.Query().Get("name")

	if playerID == "" {
		http.Error(w, "player id required", http.StatusBadRequest)
		return
	}
	room, ok := s.registry.Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	var conn *Connection
	conn = NewConnection(wsConn, roomID, playerID, s.logger,
		func(cmd ClientCommand) {
			room.Dispatch(playerID, cmd)
		},
		func() {
			s.sessions.Unregister(roomID, playerID, conn)
			room.Disconnect(playerID)
		},
	)

	// A reconnect displaces the old transport; closing it must not unseat
	// the player, which Disconnect checks against the session table
	if old := s.sessions.Register(roomID, playerID, conn); old != nil {
		_ = old.Close()
	}

	if err := room.Join(playerID, name); err != nil {
		// No pumps are running yet, so write the refusal directly
		if msg, merr := NewMessage(MessageTypeError, ErrorData{Code: "join_failed", Message: err.Error()}); merr == nil {
			_ = wsConn.WriteJSON(msg)
		}
		_ = conn.Close()
		return
	}

	conn.Start()
	s.logger.Info("WebSocket connected", "room", roomID, "player", playerID)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
