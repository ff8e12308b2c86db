package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

var commands = []subcommands.Command{
	&statusCmd{},
	&summaryCmd{},
	&syncCmd{direction: mirror.Up},
	&syncCmd{direction: mirror.Down},
	&fullSyncCmd{},
	&exportCmd{},
	&importCmd{},
	&backupCmd{},
	&restoreCmd{},
	&tokenCmd{},
}

func main() {
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
