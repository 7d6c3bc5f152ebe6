package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-rooms/internal/server"
)

// Client is the WebSocket side of one player's session: commands go out as
// single JSON frames, server messages come back and are dispatched to
// registered handlers by type.
type Client struct {
	serverURL string
	logger    *log.Logger

	conn    *websocket.Conn
	send    chan server.ClientCommand
	receive chan *server.Message

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu        sync.RWMutex
	connected bool
	roomID    string
	playerID  string

	eventHandlers map[string][]EventHandler
}

// EventHandler handles one incoming message
type EventHandler func(*server.Message)

// NewClient creates a client for the given server base URL. Handlers
// should be registered before Connect so the join snapshot is not missed.
func NewClient(serverURL string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL:     serverURL,
		logger:        logger.WithPrefix("client"),
		send:          make(chan server.ClientCommand, 64),
		receive:       make(chan *server.Message, 256),
		ctx:           ctx,
		cancel:        cancel,
		eventHandlers: make(map[string][]EventHandler),
	}
}

// Connect dials the room's WebSocket endpoint and starts the pumps. The
// server seats (or reattaches) the player and replies with a full state
// snapshot.
func (c *Client) Connect(roomID, playerID, name string) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = fmt.Sprintf("/ws/%s/%s", roomID, playerID)
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()

	c.logger.Info("Connecting", "url", u.String())
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.roomID = roomID
	c.playerID = playerID
	c.mu.Unlock()

	go c.readPump()
	go c.writePump()
	go c.eventProcessor()

	c.logger.Info("Connected", "room", roomID, "player", playerID)
	return nil
}

// Disconnect closes the connection and stops the pumps. Safe to call more
// than once.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.connected = false
		c.mu.Unlock()

		c.logger.Info("Disconnected")
	})
	return nil
}

// IsConnected reports whether the connection is up
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// RoomID returns the room joined by the last Connect
func (c *Client) RoomID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

// PlayerID returns the player identity used by the last Connect
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Done is closed when the connection ends, whether by Disconnect or by
// the server going away.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SendCommand queues one command frame for the server
func (c *Client) SendCommand(cmd server.ClientCommand) error {
	select {
	case c.send <- cmd:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// StartGame asks the server to deal a hand; only the room owner may
func (c *Client) StartGame() error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionStartGame})
}

// Fold folds the player's hand
func (c *Client) Fold() error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionFold})
}

// Check checks when no bet is owed
func (c *Client) Check() error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionCheck})
}

// Call matches the outstanding bet
func (c *Client) Call() error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionCall})
}

// Bet opens the betting for amount
func (c *Client) Bet(amount int) error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionBet, Amount: amount})
}

// Raise raises by amount on top of the current bet
func (c *Client) Raise(amount int) error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionRaise, Amount: amount})
}

// AllIn puts the player's whole stack in
func (c *Client) AllIn() error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionAllIn})
}

// Chat sends a chat line to the room
func (c *Client) Chat(content string) error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionChat, Content: content})
}

// Leave gives up the seat and ends the session
func (c *Client) Leave() error {
	return c.SendCommand(server.ClientCommand{Action: server.ActionLeave})
}

// AddEventHandler registers a handler for a message type. Handlers run on
// the event goroutine in arrival order.
func (c *Client) AddEventHandler(messageType string, handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandlers[messageType] = append(c.eventHandlers[messageType], handler)
}

// WaitForMessage waits for the next message of the given type
func (c *Client) WaitForMessage(messageType string, timeout time.Duration) (*server.Message, error) {
	responseChan := make(chan *server.Message, 1)

	c.AddEventHandler(messageType, func(msg *server.Message) {
		select {
		case responseChan <- msg:
		default:
		}
	})

	select {
	case msg := <-responseChan:
		return msg, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for %s", messageType)
	case <-c.ctx.Done():
		return nil, c.ctx.Err()
	}
}

// readPump reads server frames into the receive channel
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		c.cancel()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump writes queued commands and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case cmd := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(cmd); err != nil {
				c.logger.Error("Failed to write command", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// eventProcessor dispatches received messages to handlers in order. One
// goroutine, so a snapshot never overtakes the chat line sent before it.
func (c *Client) eventProcessor() {
	for {
		select {
		case msg := <-c.receive:
			c.handleMessage(msg)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) handleMessage(msg *server.Message) {
	c.mu.RLock()
	handlers := c.eventHandlers[msg.Type]
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug("No handler for message type", "type", msg.Type)
		return
	}
	for _, handler := range handlers {
		handler(msg)
	}
}
