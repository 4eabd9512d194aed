package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"finboard-server/src/cmd"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "finboard")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
