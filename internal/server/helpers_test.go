package server

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-rooms/internal/game"
	"github.com/lox/holdem-rooms/internal/randutil"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func defaultRoomConfig() RoomConfig {
	return RoomConfig{
		Name:          "Test Room",
		Mode:          game.NoLimit,
		SmallBlind:    10,
		BigBlind:      20,
		StartingChips: 1000,
		MaxPlayers:    10,
		TurnTimeout:   30 * time.Second,
	}
}

// fakeTransport collects everything a room sends to one player
type fakeTransport struct {
	mu     sync.Mutex
	msgs   []*Message
	closed bool
}

func (f *fakeTransport) SendMessage(msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrConnectionClosed
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTransport) byType(msgType string) []*Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Message
	for _, m := range f.msgs {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) countByType(msgType string) int {
	return len(f.byType(msgType))
}

func (f *fakeTransport) snapshots(t *testing.T) []*Snapshot {
	t.Helper()
	var out []*Snapshot
	for _, m := range f.byType(MessageTypeGameState) {
		var snap Snapshot
		require.NoError(t, json.Unmarshal(m.Data, &snap))
		out = append(out, &snap)
	}
	return out
}

func (f *fakeTransport) lastSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	snaps := f.snapshots(t)
	require.NotEmpty(t, snaps, "no game_state received")
	return snaps[len(snaps)-1]
}

// snapshotAtStage returns the first captured snapshot for the given stage
func (f *fakeTransport) snapshotAtStage(t *testing.T, stage string) *Snapshot {
	t.Helper()
	for _, snap := range f.snapshots(t) {
		if snap.Stage == stage {
			return snap
		}
	}
	t.Fatalf("no game_state captured at stage %s", stage)
	return nil
}

func (f *fakeTransport) errorCodes(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, m := range f.byType(MessageTypeError) {
		var data ErrorData
		require.NoError(t, json.Unmarshal(m.Data, &data))
		out = append(out, data.Code)
	}
	return out
}

func (f *fakeTransport) chats(t *testing.T) []ChatData {
	t.Helper()
	var out []ChatData
	for _, m := range f.byType(MessageTypeChat) {
		var data ChatData
		require.NoError(t, json.Unmarshal(m.Data, &data))
		out = append(out, data)
	}
	return out
}

// syncRoom drives an unstarted room by calling its handlers directly on
// the test goroutine. With no room goroutine running there is no
// concurrent writer, so tests can inspect and adjust state between calls.
type syncRoom struct {
	t        *testing.T
	room     *Room
	sessions *SessionManager
	clock    *quartz.Mock
}

func newSyncRoom(t *testing.T, cfg RoomConfig) *syncRoom {
	t.Helper()
	sessions := NewSessionManager(testLogger())
	clock := quartz.NewMock(t)
	room := NewRoom("TESTROOM", cfg, sessions, testLogger(), clock, randutil.New(1), nil)
	return &syncRoom{t: t, room: room, sessions: sessions, clock: clock}
}

func (s *syncRoom) join(playerID, name string) *fakeTransport {
	s.t.Helper()
	tr := &fakeTransport{}
	s.sessions.Register(s.room.ID, playerID, tr)
	require.NoError(s.t, s.room.handleJoin(playerID, name))
	return tr
}

func (s *syncRoom) cmd(playerID, action string, amount int) {
	s.t.Helper()
	s.room.handleCommand(playerID, ClientCommand{Action: action, Amount: amount})
}

func (s *syncRoom) start(playerID string) {
	s.t.Helper()
	s.cmd(playerID, ActionStartGame, 0)
	require.NotNil(s.t, s.room.hand, "hand did not start")
}

func (s *syncRoom) snap(playerID string) *Snapshot {
	return s.room.snapshotFor(playerID)
}

// actorRoom runs a started room with a mock clock; commands flow through
// the inbox exactly as in production. StateFor doubles as a barrier: the
// inbox is FIFO, so the returned snapshot reflects every command posted
// before it from this goroutine.
type actorRoom struct {
	t        *testing.T
	room     *Room
	sessions *SessionManager
	clock    *quartz.Mock
}

func newActorRoom(t *testing.T, cfg RoomConfig) *actorRoom {
	t.Helper()
	sessions := NewSessionManager(testLogger())
	clock := quartz.NewMock(t)
	room := NewRoom("TESTROOM", cfg, sessions, testLogger(), clock, randutil.New(1), nil)
	room.Start()
	t.Cleanup(room.Shutdown)
	return &actorRoom{t: t, room: room, sessions: sessions, clock: clock}
}

func (a *actorRoom) join(playerID, name string) *fakeTransport {
	a.t.Helper()
	tr := &fakeTransport{}
	a.sessions.Register(a.room.ID, playerID, tr)
	require.NoError(a.t, a.room.Join(playerID, name))
	return tr
}

func (a *actorRoom) cmd(playerID, action string, amount int) {
	a.room.Dispatch(playerID, ClientCommand{Action: action, Amount: amount})
}

// barrier waits for everything already posted to be processed and returns
// the player's snapshot afterwards
func (a *actorRoom) barrier(playerID string) *Snapshot {
	a.t.Helper()
	snap := a.room.StateFor(playerID)
	require.NotNil(a.t, snap, "room closed unexpectedly")
	return snap
}

// drop simulates a transport death the way the WebSocket handler reports
// it: unregister first, then tell the room
func (a *actorRoom) drop(playerID string, tr *fakeTransport) {
	a.sessions.Unregister(a.room.ID, playerID, tr)
	a.room.Disconnect(playerID)
}

func (a *actorRoom) advance(d time.Duration) {
	a.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.clock.Advance(d).MustWait(ctx)
}

// actingPlayer returns which of the given players the hand is waiting on
func actingPlayer(t *testing.T, snaps map[string]*Snapshot) string {
	t.Helper()
	for playerID, snap := range snaps {
		if snap.IsMyTurn {
			return playerID
		}
	}
	t.Fatal("nobody has the turn")
	return ""
}
