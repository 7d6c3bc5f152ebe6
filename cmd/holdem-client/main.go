package main

import (
	"github.com/alecthomas/kong"

	"github.com/lox/holdem-rooms/internal/client/commands"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	commands.GlobalFlags

	Version kong.VersionFlag           `short:"v" help:"Show version"`
	Create  commands.CreateRoomCommand `cmd:"" help:"Create a room and print its join code"`
	List    commands.ListRoomsCommand  `cmd:"" help:"List open rooms"`
	Join    commands.JoinCommand       `cmd:"" help:"Join a room in the terminal UI"`
	State   commands.StateCommand      `cmd:"" help:"Print a spectator view of a room"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("holdem-client"),
		kong.Description("Terminal client for hosted Texas Hold'em rooms"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.GlobalFlags)
	ctx.FatalIfErrorf(err)
}
