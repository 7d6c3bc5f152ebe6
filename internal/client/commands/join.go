package commands

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-rooms/internal/client"
	"github.com/lox/holdem-rooms/internal/tui"
)

// JoinCommand joins a room and starts the TUI
type JoinCommand struct {
	Room string `arg:"" help:"Room code to join"`
}

func (cmd *JoinCommand) Run(flags *GlobalFlags) error {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return err
	}
	if err := ResolveIdentity(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The terminal belongs to the TUI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := NewLogger(cfg, logFile)

	lobby := client.NewLobby(cfg.Server.URL, cfg.RequestTimeout(), logger)

	// /join inside the TUI exits the program with a new room code, so the
	// session loops until the player quits for good.
	room := cmd.Room
	for {
		// Fail fast on a mistyped code before dialing the WebSocket.
		if _, err := lobby.RoomState(room, ""); err != nil {
			return fmt.Errorf("room %s not found: %w", room, err)
		}

		logger.Info("joining room",
			"server", cfg.Server.URL,
			"room", room,
			"player", cfg.Player.Name,
			"player_id", cfg.Player.ID)

		wsClient := client.NewClient(cfg.Server.URL, logger)
		model := tui.NewModel(wsClient, lobby, logger)
		program := tea.NewProgram(model, tea.WithAltScreen())

		// Handlers must be registered before Connect or the join
		// snapshot is lost.
		tui.SetupNetworkHandlers(wsClient, program, logger)

		if err := connectWithRetry(wsClient, cfg, room, logger); err != nil {
			return err
		}

		_, runErr := program.Run()
		_ = wsClient.Disconnect()
		if runErr != nil {
			return fmt.Errorf("error running TUI: %w", runErr)
		}

		room = model.NextRoom()
		if room == "" {
			return nil
		}
	}
}

func connectWithRetry(c *client.Client, cfg *client.ClientConfig, roomID string, logger *log.Logger) error {
	attempts := cfg.Server.ReconnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			logger.Warn("retrying connection", "attempt", i+1, "error", err)
			time.Sleep(cfg.ReconnectPause())
		}
		if err = c.Connect(roomID, cfg.Player.ID, cfg.Player.Name); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to join room %s: %w", roomID, err)
}
