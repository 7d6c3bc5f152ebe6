package server

import (
	rand "math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdem-rooms/internal/game"
	"github.com/lox/holdem-rooms/internal/gameid"
	"github.com/lox/holdem-rooms/internal/randutil"
)

// Registry is the process-wide room directory. Its lock guards only the
// map; room work always happens outside it, so a slow room can never stall
// lobby requests or other rooms.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	cfg      *ServerConfig
	sessions *SessionManager
	logger   *log.Logger
	clock    quartz.Clock
	rng      *rand.Rand
	ids      *gameid.Generator
}

// NewRegistry creates an empty registry. The rng seeds each room's private
// deck shuffler, so a seeded registry gives reproducible deals in tests.
func NewRegistry(cfg *ServerConfig, sessions *SessionManager, logger *log.Logger, clock quartz.Clock, rng *rand.Rand) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		cfg:      cfg,
		sessions: sessions,
		logger:   logger.WithPrefix("registry"),
		clock:    clock,
		rng:      rng,
		ids:      gameid.NewGenerator(nil),
	}
}

// Create makes a room with a fresh code, starts its goroutine and lists it
func (reg *Registry) Create(name string, mode game.BettingMode, smallBlind, bigBlind, ante int) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id := reg.ids.GenerateRoomCode()
	for reg.rooms[id] != nil {
		id = reg.ids.GenerateRoomCode()
	}

	cfg := RoomConfig{
		Name:          name,
		Mode:          mode,
		SmallBlind:    smallBlind,
		BigBlind:      bigBlind,
		Ante:          ante,
		StartingChips: reg.cfg.Defaults.StartingChips,
		MaxPlayers:    reg.cfg.Defaults.MaxPlayers,
		TurnTimeout:   reg.cfg.TurnTimeout(),
	}

	room := NewRoom(id, cfg, reg.sessions, reg.logger, reg.clock, randutil.New(reg.rng.Int64()), reg.remove)
	reg.rooms[id] = room
	room.Start()

	reg.logger.Info("Room created", "room", id, "name", name,
		"mode", mode, "small_blind", smallBlind, "big_blind", bigBlind, "ante", ante)
	return room
}

// Get looks up a room by code
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	room, ok := reg.rooms[id]
	return room, ok
}

// List returns lobby info for every live room, sorted by code for stable
// output. Info calls happen outside the lock.
func (reg *Registry) List() []RoomInfo {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	slices.SortFunc(infos, func(a, b RoomInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}

// Count returns the number of live rooms
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Delete shuts a room down and removes it from the directory
func (reg *Registry) Delete(id string) bool {
	reg.mu.Lock()
	room, ok := reg.rooms[id]
	delete(reg.rooms, id)
	reg.mu.Unlock()

	if ok {
		room.Shutdown()
	}
	return ok
}

// Shutdown closes every room; used when the server stops
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()

	for _, room := range rooms {
		room.Shutdown()
	}
}

// remove drops a room that closed itself: the last player left, or it
// failed an internal invariant. Called from the room's own goroutine.
func (reg *Registry) remove(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.rooms[id]; ok {
		delete(reg.rooms, id)
		reg.logger.Info("Room removed", "room", id)
	}
}
