package commands

import (
	"fmt"

	"github.com/lox/holdem-rooms/internal/server"
)

// CreateRoomCommand creates a room and prints its join code
type CreateRoomCommand struct {
	Name       string `arg:"" optional:"" help:"Room name"`
	Mode       string `long:"mode" default:"no_limit" enum:"no_limit,limit,pot_limit" help:"Betting mode"`
	SmallBlind int    `long:"small-blind" help:"Small blind (0 uses the server default)"`
	BigBlind   int    `long:"big-blind" help:"Big blind (0 uses the server default)"`
	Ante       int    `long:"ante" help:"Ante taken from every player each hand"`
}

func (cmd *CreateRoomCommand) Run(flags *GlobalFlags) error {
	lobby, _, err := SetupLobby(flags)
	if err != nil {
		return err
	}

	info, err := lobby.CreateRoom(server.CreateRoomRequest{
		Name:       cmd.Name,
		Mode:       cmd.Mode,
		SmallBlind: cmd.SmallBlind,
		BigBlind:   cmd.BigBlind,
		Ante:       cmd.Ante,
	})
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	fmt.Printf("Created room %s (%s, %s)\n", info.ID, info.Name, info.Mode)
	fmt.Printf("Join with: holdem-client join %s\n", info.ID)
	return nil
}
