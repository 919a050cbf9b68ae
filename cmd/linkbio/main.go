package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/linkbio/cmd/linkbio/commands"
	"git.home.luguber.info/inful/linkbio/internal/observability"
	"git.home.luguber.info/inful/linkbio/internal/version"
)

func main() {
	var cli commands.CLI
	levelVar := new(slog.LevelVar)
	global := &commands.Global{
		Logger: observability.NewLogger(os.Stderr, "text", levelVar),
		Level:  levelVar,
	}
	slog.SetDefault(global.Logger)

	parser := kong.Parse(&cli,
		kong.Name("linkbio"),
		kong.Description("Link-in-bio pages: dashboard, public profiles and link health checks."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	if err := parser.Run(global, &cli); err != nil {
		slog.Error("Command failed", slog.String("command", parser.Command()), slog.Any("error", err))
		os.Exit(1)
	}
}
