package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-rooms/internal/server"
)

// Lobby talks to the server's HTTP API: creating rooms, listing them and
// fetching one-off state snapshots without holding a WebSocket.
type Lobby struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewLobby creates a lobby client against the server base URL
func NewLobby(serverURL string, timeout time.Duration, logger *log.Logger) *Lobby {
	return &Lobby{
		baseURL:    serverURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithPrefix("lobby"),
	}
}

// CreateRoom asks the server for a new room and returns its listing,
// including the generated room code
func (l *Lobby) CreateRoom(req server.CreateRoomRequest) (server.RoomInfo, error) {
	var info server.RoomInfo

	body, err := json.Marshal(req)
	if err != nil {
		return info, err
	}

	resp, err := l.httpClient.Post(l.baseURL+"/create-room", "application/json", bytes.NewReader(body))
	if err != nil {
		return info, fmt.Errorf("create room request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info, httpError("create room", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, fmt.Errorf("invalid create room response: %w", err)
	}

	l.logger.Info("Room created", "room", info.ID, "name", info.Name)
	return info, nil
}

// ListRooms fetches the lobby listing
func (l *Lobby) ListRooms() ([]server.RoomInfo, error) {
	resp, err := l.httpClient.Get(l.baseURL + "/api/rooms")
	if err != nil {
		return nil, fmt.Errorf("list rooms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("list rooms", resp)
	}

	var infos []server.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, fmt.Errorf("invalid room list response: %w", err)
	}
	return infos, nil
}

// RoomState fetches one state snapshot as the given player sees it. An
// empty playerID gets the spectator view with every hand face down.
func (l *Lobby) RoomState(roomID, playerID string) (*server.Snapshot, error) {
	u := fmt.Sprintf("%s/api/room/%s/state", l.baseURL, roomID)
	if playerID != "" {
		u += "?player_id=" + url.QueryEscape(playerID)
	}

	resp, err := l.httpClient.Get(u)
	if err != nil {
		return nil, fmt.Errorf("room state request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("room state", resp)
	}

	var snap server.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("invalid room state response: %w", err)
	}
	return &snap, nil
}

// Health pings the health endpoint
func (l *Lobby) Health() error {
	resp, err := l.httpClient.Get(l.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpError("health", resp)
	}
	return nil
}

func httpError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := bytes.TrimSpace(body)
	if len(msg) == 0 {
		return fmt.Errorf("%s failed: %s", op, resp.Status)
	}
	return fmt.Errorf("%s failed: %s: %s", op, resp.Status, msg)
}
