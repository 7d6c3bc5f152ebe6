package commands

import (
	"fmt"
)

// ListRoomsCommand lists the open rooms on the server
type ListRoomsCommand struct {
}

func (cmd *ListRoomsCommand) Run(flags *GlobalFlags) error {
	lobby, _, err := SetupLobby(flags)
	if err != nil {
		return err
	}

	rooms, err := lobby.ListRooms()
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Println("No rooms open")
		return nil
	}

	fmt.Println("Open rooms:")
	for _, room := range rooms {
		fmt.Printf("  %s  %-20s %s, %d players, %s\n",
			room.ID, room.Name, room.Mode, room.PlayerCount, room.Stage)
	}
	return nil
}
