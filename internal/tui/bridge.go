package tui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-rooms/internal/client"
	"github.com/lox/holdem-rooms/internal/server"
)

// Messages delivered into the Bubble Tea loop by the network bridge.
type (
	// GameStateMsg carries a fresh personalised snapshot.
	GameStateMsg struct{ Snapshot *server.Snapshot }

	// ChatMsg carries one chat line, player or system.
	ChatMsg struct{ Chat server.ChatData }

	// ErrorMsg carries a rejected-command error.
	ErrorMsg struct{ Err server.ErrorData }

	// RoomClosedMsg means the room shut down and no more state will come.
	RoomClosedMsg struct{ Reason string }

	// DisconnectedMsg means the WebSocket dropped.
	DisconnectedMsg struct{}
)

// SetupNetworkHandlers wires server messages into the program as typed
// Bubble Tea messages. Call before client.Connect so the join snapshot is
// not missed; program.Send queues messages until the loop starts.
func SetupNetworkHandlers(c *client.Client, p *tea.Program, logger *log.Logger) {
	c.AddEventHandler(server.MessageTypeGameState, func(msg *server.Message) {
		var snap server.Snapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			logger.Error("bad game_state payload", "error", err)
			return
		}
		p.Send(GameStateMsg{Snapshot: &snap})
	})

	c.AddEventHandler(server.MessageTypeChat, func(msg *server.Message) {
		var chat server.ChatData
		if err := json.Unmarshal(msg.Data, &chat); err != nil {
			logger.Error("bad chat payload", "error", err)
			return
		}
		p.Send(ChatMsg{Chat: chat})
	})

	c.AddEventHandler(server.MessageTypeError, func(msg *server.Message) {
		var errData server.ErrorData
		if err := json.Unmarshal(msg.Data, &errData); err != nil {
			logger.Error("bad error payload", "error", err)
			return
		}
		p.Send(ErrorMsg{Err: errData})
	})

	c.AddEventHandler(server.MessageTypeRoomError, func(msg *server.Message) {
		var data server.RoomErrorData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			logger.Error("bad room_error payload", "error", err)
			return
		}
		p.Send(RoomClosedMsg{Reason: data.Message})
	})

	go func() {
		<-c.Done()
		p.Send(DisconnectedMsg{})
	}()
}
