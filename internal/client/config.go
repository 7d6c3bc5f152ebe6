package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ClientConfig represents the complete client configuration
type ClientConfig struct {
	Server ServerConnection `hcl:"server,block"`
	Player PlayerSettings   `hcl:"player,block"`
	UI     UISettings       `hcl:"ui,block"`
}

// ServerConnection contains server connection settings
type ServerConnection struct {
	URL               string `hcl:"url,optional"`
	ConnectTimeout    int    `hcl:"connect_timeout,optional"`
	RequestTimeout    int    `hcl:"request_timeout,optional"`
	ReconnectAttempts int    `hcl:"reconnect_attempts,optional"`
	ReconnectDelay    int    `hcl:"reconnect_delay,optional"`
}

// PlayerSettings holds the player's identity. The ID is the session
// credential: reconnecting with the same ID reclaims the seat and chips,
// so it belongs in the config file rather than being minted per run.
type PlayerSettings struct {
	Name string `hcl:"name,optional"`
	ID   string `hcl:"id,optional"`
}

// UISettings contains user interface settings
type UISettings struct {
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
	Theme    string `hcl:"theme,optional"`
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Server: ServerConnection{
			URL:               "http://localhost:8080",
			ConnectTimeout:    10,
			RequestTimeout:    30,
			ReconnectAttempts: 3,
			ReconnectDelay:    5,
		},
		Player: PlayerSettings{
			Name: "",
			ID:   "",
		},
		UI: UISettings{
			LogLevel: "warn",
			LogFile:  "holdem-client.log",
			Theme:    "default",
		},
	}
}

// LoadClientConfig loads client configuration from HCL file
func LoadClientConfig(filename string) (*ClientConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultClientConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ClientConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultClientConfig()

	if config.Server.URL == "" {
		config.Server.URL = defaults.Server.URL
	}
	if config.Server.ConnectTimeout == 0 {
		config.Server.ConnectTimeout = defaults.Server.ConnectTimeout
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if config.Server.ReconnectAttempts == 0 {
		config.Server.ReconnectAttempts = defaults.Server.ReconnectAttempts
	}
	if config.Server.ReconnectDelay == 0 {
		config.Server.ReconnectDelay = defaults.Server.ReconnectDelay
	}

	if config.UI.LogLevel == "" {
		config.UI.LogLevel = defaults.UI.LogLevel
	}
	if config.UI.LogFile == "" {
		config.UI.LogFile = defaults.UI.LogFile
	}
	if config.UI.Theme == "" {
		config.UI.Theme = defaults.UI.Theme
	}

	return &config, nil
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.Player.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if c.Server.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Server.ReconnectAttempts < 0 {
		return fmt.Errorf("reconnect attempts cannot be negative")
	}
	if c.Server.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive")
	}

	switch c.UI.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	switch c.UI.Theme {
	case "default", "dark", "light":
	default:
		return fmt.Errorf("invalid theme: %s", c.UI.Theme)
	}

	return nil
}

// RequestTimeout returns the lobby HTTP timeout as a duration
func (c *ClientConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

// ReconnectPause returns the wait between connection attempts
func (c *ClientConfig) ReconnectPause() time.Duration {
	return time.Duration(c.Server.ReconnectDelay) * time.Second
}

// GetServerURL returns the server URL
func (c *ClientConfig) GetServerURL() string {
	return c.Server.URL
}

// GetPlayerName returns the player name
func (c *ClientConfig) GetPlayerName() string {
	return c.Player.Name
}
