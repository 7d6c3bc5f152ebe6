package server

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Transport is the send side of one client session. Connection implements
// it over a WebSocket; tests substitute in-memory fakes.
type Transport interface {
	SendMessage(msg *Message) error
	Close() error
}

// SessionManager maps (room, player) to the live transport. Rooms send
// through it without ever touching sockets, so a dead endpoint only
// affects its own player and never stalls room processing.
type SessionManager struct {
	mu     sync.RWMutex
	logger *log.Logger
	rooms  map[string]map[string]Transport
}

// NewSessionManager creates an empty session table
func NewSessionManager(logger *log.Logger) *SessionManager {
	return &SessionManager{
		logger: logger.WithPrefix("sessions"),
		rooms:  make(map[string]map[string]Transport),
	}
}

// Register attaches a transport for the player and returns the displaced
// one when the player reconnects over a session that is still live.
func (sm *SessionManager) Register(roomID, playerID string, t Transport) Transport {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	conns, ok := sm.rooms[roomID]
	if !ok {
		conns = make(map[string]Transport)
		sm.rooms[roomID] = conns
	}
	old := conns[playerID]
	conns[playerID] = t
	return old
}

// Unregister detaches the player's transport. It only removes the entry
// when t is still the registered transport, so a reconnect that already
// displaced it is left alone.
func (sm *SessionManager) Unregister(roomID, playerID string, t Transport) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	conns, ok := sm.rooms[roomID]
	if !ok {
		return
	}
	if conns[playerID] != t {
		return
	}
	delete(conns, playerID)
	if len(conns) == 0 {
		delete(sm.rooms, roomID)
	}
}

// Connected reports whether the player has a live transport
func (sm *SessionManager) Connected(roomID, playerID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.rooms[roomID][playerID]
	return ok
}

// Send delivers one message to one player
func (sm *SessionManager) Send(roomID, playerID string, msg *Message) error {
	sm.mu.RLock()
	t, ok := sm.rooms[roomID][playerID]
	sm.mu.RUnlock()

	if !ok {
		return fmt.Errorf("no connection for player %s in room %s", playerID, roomID)
	}
	return t.SendMessage(msg)
}

// Broadcast sends the same message to every connected player in the room
func (sm *SessionManager) Broadcast(roomID string, msg *Message) {
	for playerID, t := range sm.roomTransports(roomID) {
		if err := t.SendMessage(msg); err != nil {
			sm.logger.Debug("Dropping broadcast to dead connection",
				"room", roomID, "player", playerID, "error", err)
		}
	}
}

// BroadcastPersonal sends each connected player a message built for them.
// A nil message from the builder skips that player.
func (sm *SessionManager) BroadcastPersonal(roomID string, build func(playerID string) *Message) {
	for playerID, t := range sm.roomTransports(roomID) {
		msg := build(playerID)
		if msg == nil {
			continue
		}
		if err := t.SendMessage(msg); err != nil {
			sm.logger.Debug("Dropping personal message to dead connection",
				"room", roomID, "player", playerID, "error", err)
		}
	}
}

// ClosePlayer closes the player's transport if one is attached
func (sm *SessionManager) ClosePlayer(roomID, playerID string) {
	sm.mu.RLock()
	t, ok := sm.rooms[roomID][playerID]
	sm.mu.RUnlock()

	if ok {
		_ = t.Close()
	}
}

// CloseRoom closes every transport in the room and forgets them. Used
// when a room shuts down.
func (sm *SessionManager) CloseRoom(roomID string) {
	sm.mu.Lock()
	conns := sm.rooms[roomID]
	delete(sm.rooms, roomID)
	sm.mu.Unlock()

	for _, t := range conns {
		_ = t.Close()
	}
}

// roomTransports copies the room's transports so sends happen outside
// the lock. Closing a dead transport mid-send re-enters the manager, and
// holding the lock there would deadlock.
func (sm *SessionManager) roomTransports(roomID string) map[string]Transport {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	conns := sm.rooms[roomID]
	if len(conns) == 0 {
		return nil
	}
	out := make(map[string]Transport, len(conns))
	for playerID, t := range conns {
		out[playerID] = t
	}
	return out
}
