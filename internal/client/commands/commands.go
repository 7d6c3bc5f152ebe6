package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-rooms/internal/client"
	"github.com/lox/holdem-rooms/internal/gameid"
)

// GlobalFlags holds common configuration for all commands
type GlobalFlags struct {
	Config   string `short:"c" long:"config" default:"holdem-client.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" long:"server" help:"Server URL (overrides config)"`
	Player   string `short:"p" long:"player" help:"Player name (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	LogFile  string `long:"log-file" help:"Log file path (overrides config)"`
}

// LoadConfig loads the HCL configuration and applies command line overrides.
func LoadConfig(flags *GlobalFlags) (*client.ClientConfig, error) {
	cfg, err := client.LoadClientConfig(flags.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if flags.Server != "" {
		cfg.Server.URL = flags.Server
	}
	if flags.Player != "" {
		cfg.Player.Name = flags.Player
	}
	if flags.LogLevel != "" {
		cfg.UI.LogLevel = flags.LogLevel
	}
	if flags.LogFile != "" {
		cfg.UI.LogFile = flags.LogFile
	}

	return cfg, nil
}

// NewLogger builds a logger at the configured level writing to w.
func NewLogger(cfg *client.ClientConfig, w io.Writer) *log.Logger {
	logger := log.New(w)
	switch cfg.UI.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// SetupLobby loads configuration and builds the REST lobby client used by
// the non-interactive commands.
func SetupLobby(flags *GlobalFlags) (*client.Lobby, *client.ClientConfig, error) {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	logger := NewLogger(cfg, os.Stderr)
	return client.NewLobby(cfg.Server.URL, cfg.RequestTimeout(), logger), cfg, nil
}

// ResolveIdentity fills in the player name, prompting when neither config
// nor flags supply one, and mints a fresh session ID when the config does
// not pin one. A pinned id lets the player reclaim their seat after a
// disconnect or restart.
func ResolveIdentity(cfg *client.ClientConfig) error {
	if cfg.Player.Name == "" {
		fmt.Print("Enter your player name: ")
		var input string
		_, _ = fmt.Scanln(&input)
		cfg.Player.Name = strings.TrimSpace(input)
		if cfg.Player.Name == "" {
			return fmt.Errorf("player name is required")
		}
	}

	if cfg.Player.ID == "" {
		cfg.Player.ID = gameid.Generate()
	}

	return nil
}
