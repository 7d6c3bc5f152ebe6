package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server   ServerSettings `hcl:"server,block"`
	Defaults *GameDefaults  `hcl:"defaults,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// GameDefaults holds the table parameters applied when a create-room
// request leaves them out, plus the limits every room shares.
type GameDefaults struct {
	StartingChips      int `hcl:"starting_chips,optional"`
	SmallBlind         int `hcl:"small_blind,optional"`
	BigBlind           int `hcl:"big_blind,optional"`
	Ante               int `hcl:"ante,optional"`
	MaxPlayers         int `hcl:"max_players,optional"`
	TurnTimeoutSeconds int `hcl:"turn_timeout,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Host:     "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Defaults: &GameDefaults{
			StartingChips:      1000,
			SmallBlind:         10,
			BigBlind:           20,
			Ante:               0,
			MaxPlayers:         10,
			TurnTimeoutSeconds: 30,
		},
	}
}

// LoadServerConfig loads server configuration from HCL file
func LoadServerConfig(filename string) (*ServerConfig, error) {
	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}

	if config.Defaults == nil {
		config.Defaults = &GameDefaults{}
	}
	if config.Defaults.StartingChips == 0 {
		config.Defaults.StartingChips = 1000
	}
	if config.Defaults.SmallBlind == 0 {
		config.Defaults.SmallBlind = 10
	}
	if config.Defaults.BigBlind == 0 {
		config.Defaults.BigBlind = 20
	}
	if config.Defaults.MaxPlayers == 0 {
		config.Defaults.MaxPlayers = 10
	}
	if config.Defaults.TurnTimeoutSeconds == 0 {
		config.Defaults.TurnTimeoutSeconds = 30
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}

	d := c.Defaults
	if d == nil {
		return fmt.Errorf("defaults missing")
	}
	if d.StartingChips <= 0 {
		return fmt.Errorf("starting chips must be positive")
	}
	if d.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if d.BigBlind <= d.SmallBlind {
		return fmt.Errorf("big blind must be greater than small blind")
	}
	if d.Ante < 0 {
		return fmt.Errorf("ante cannot be negative")
	}
	if d.MaxPlayers < 2 || d.MaxPlayers > 10 {
		return fmt.Errorf("max players must be between 2 and 10")
	}
	if d.TurnTimeoutSeconds <= 0 {
		return fmt.Errorf("turn timeout must be positive")
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// TurnTimeout returns the per-action clock as a duration
func (c *ServerConfig) TurnTimeout() time.Duration {
	return time.Duration(c.Defaults.TurnTimeoutSeconds) * time.Second
}
