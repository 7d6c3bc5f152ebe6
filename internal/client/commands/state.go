package commands

import (
	"fmt"
	"strings"
)

// StateCommand prints a spectator view of one room
type StateCommand struct {
	Room string `arg:"" help:"Room code to inspect"`
}

func (cmd *StateCommand) Run(flags *GlobalFlags) error {
	lobby, _, err := SetupLobby(flags)
	if err != nil {
		return err
	}

	snap, err := lobby.RoomState(cmd.Room, "")
	if err != nil {
		return fmt.Errorf("failed to fetch room state: %w", err)
	}

	fmt.Printf("%s [%s]\n", snap.RoomName, snap.RoomID)
	fmt.Printf("  %s %d/%d", snap.BettingMode, snap.SmallBlind, snap.BigBlind)
	if snap.Ante > 0 {
		fmt.Printf(" ante %d", snap.Ante)
	}
	fmt.Printf(", stage %s\n", snap.Stage)

	if snap.MainPot > 0 {
		fmt.Printf("  pot %d", snap.MainPot)
		for _, sp := range snap.SidePots {
			fmt.Printf(" + %d (%s)", sp.Amount, strings.Join(sp.Eligible, ", "))
		}
		fmt.Println()
	}

	fmt.Printf("  players (%d):\n", len(snap.Players))
	for _, p := range snap.Players {
		var notes []string
		if p.IsDealer {
			notes = append(notes, "dealer")
		}
		if p.Folded {
			notes = append(notes, "folded")
		}
		if p.AllIn {
			notes = append(notes, "all-in")
		}
		if p.IsCurrent {
			notes = append(notes, "to act")
		}
		suffix := ""
		if len(notes) > 0 {
			suffix = " (" + strings.Join(notes, ", ") + ")"
		}
		fmt.Printf("    %-16s %6d chips%s\n", p.Name, p.Chips, suffix)
	}

	return nil
}
