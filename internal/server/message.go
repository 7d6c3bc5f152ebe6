package server

import (
	"encoding/json"
	"time"
)

// Server → client message types
const (
	MessageTypeGameState = "game_state"
	MessageTypeChat      = "chat"
	MessageTypeError     = "error"
	MessageTypeRoomError = "room_error"
)

// Client → server actions
const (
	ActionStartGame = "start_game"
	ActionFold      = "fold"
	ActionCheck     = "check"
	ActionCall      = "call"
	ActionBet       = "bet"
	ActionRaise     = "raise"
	ActionAllIn     = "all_in"
	ActionChat      = "chat"
	ActionLeave     = "leave"
)

// Chat message kinds carried in ChatData.MsgType
const (
	ChatTypePlayer = "chat"
	ChatTypeSystem = "system"
)

// Message is the server → client envelope: a type tag and a JSON payload,
// one object per WebSocket frame.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps a payload in the wire envelope
func NewMessage(messageType string, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// ClientCommand is the client → server frame. Action is required; Amount
// rides along on bet/raise and Content on chat.
type ClientCommand struct {
	Action  string `json:"action"`
	Amount  int    `json:"amount,omitempty"`
	Content string `json:"content,omitempty"`
}

// ErrorData is the payload of an "error" message sent back to the
// offending connection. The room state is never mutated alongside one.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomErrorData is broadcast when a room hits an internal invariant
// violation and shuts itself down after refunding contributions.
type RoomErrorData struct {
	Message string `json:"message"`
}

// ChatData is the payload of a "chat" message: player chatter and system
// announcements (hand start, street changes, timeouts, winners).
type ChatData struct {
	PlayerName string `json:"player_name"`
	Content    string `json:"content"`
	MsgType    string `json:"msg_type"`
	Timestamp  int64  `json:"timestamp"`
}

// RoomInfo is one lobby listing entry
type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
	Stage       string `json:"stage"`
	Mode        string `json:"mode"`
}
