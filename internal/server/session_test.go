package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionRegisterDisplacesOldTransport(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	tr1 := &fakeTransport{}
	tr2 := &fakeTransport{}

	require.Nil(t, sm.Register("ROOM", "p1", tr1))
	require.Same(t, tr1, sm.Register("ROOM", "p1", tr2))

	msg, _ := NewMessage(MessageTypeChat, ChatData{Content: "hi"})
	require.NoError(t, sm.Send("ROOM", "p1", msg))
	require.Equal(t, 1, tr2.countByType(MessageTypeChat))
	require.Equal(t, 0, tr1.countByType(MessageTypeChat))
}

func TestSessionUnregisterRequiresMatchingTransport(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	tr1 := &fakeTransport{}
	tr2 := &fakeTransport{}
	sm.Register("ROOM", "p1", tr1)
	sm.Register("ROOM", "p1", tr2)

	// The displaced transport closing late must not unseat the live one
	sm.Unregister("ROOM", "p1", tr1)
	require.True(t, sm.Connected("ROOM", "p1"))

	sm.Unregister("ROOM", "p1", tr2)
	require.False(t, sm.Connected("ROOM", "p1"))
	require.Error(t, sm.Send("ROOM", "p1", &Message{Type: MessageTypeChat}))
}

func TestSessionBroadcastStaysInRoom(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	trA := &fakeTransport{}
	trB := &fakeTransport{}
	trOther := &fakeTransport{}
	sm.Register("ROOM", "p1", trA)
	sm.Register("ROOM", "p2", trB)
	sm.Register("OTHER", "p3", trOther)

	msg, _ := NewMessage(MessageTypeChat, ChatData{Content: "hi"})
	sm.Broadcast("ROOM", msg)

	require.Equal(t, 1, trA.countByType(MessageTypeChat))
	require.Equal(t, 1, trB.countByType(MessageTypeChat))
	require.Equal(t, 0, trOther.countByType(MessageTypeChat))
}

func TestSessionBroadcastPersonalSkipsNil(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	trA := &fakeTransport{}
	trB := &fakeTransport{}
	sm.Register("ROOM", "p1", trA)
	sm.Register("ROOM", "p2", trB)

	sm.BroadcastPersonal("ROOM", func(playerID string) *Message {
		if playerID == "p2" {
			return nil
		}
		msg, _ := NewMessage(MessageTypeChat, ChatData{Content: "for " + playerID})
		return msg
	})

	require.Equal(t, 1, trA.countByType(MessageTypeChat))
	require.Equal(t, 0, trB.countByType(MessageTypeChat))
}

func TestSessionBroadcastSurvivesDeadTransport(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	dead := &fakeTransport{}
	dead.Close()
	live := &fakeTransport{}
	sm.Register("ROOM", "p1", dead)
	sm.Register("ROOM", "p2", live)

	msg, _ := NewMessage(MessageTypeChat, ChatData{Content: "hi"})
	sm.Broadcast("ROOM", msg)
	require.Equal(t, 1, live.countByType(MessageTypeChat))
}

func TestSessionCloseRoomClosesEveryTransport(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	trA := &fakeTransport{}
	trB := &fakeTransport{}
	sm.Register("ROOM", "p1", trA)
	sm.Register("ROOM", "p2", trB)

	sm.CloseRoom("ROOM")
	require.True(t, trA.isClosed())
	require.True(t, trB.isClosed())
	require.False(t, sm.Connected("ROOM", "p1"))
	require.False(t, sm.Connected("ROOM", "p2"))
}

func TestSessionClosePlayer(t *testing.T) {
	t.Parallel()
	sm := NewSessionManager(testLogger())
	tr := &fakeTransport{}
	sm.Register("ROOM", "p1", tr)

	sm.ClosePlayer("ROOM", "p1")
	require.True(t, tr.isClosed())

	// Closing an unknown player is a no-op
	sm.ClosePlayer("ROOM", "p2")
	sm.ClosePlayer("NOWHERE", "p1")
}
