package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command
type Globals struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error"`
	LogJSON  bool   `name:"log-json" help:"Emit structured JSON logs"`
	Config   string `short:"c" help:"Path to HCL configuration file" default:"blackjack.hcl" type:"path"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" default:"withargs" help:"Play blackjack interactively"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate basic strategy play against a dealer"`
	Dealers  DealersCmd       `cmd:"" help:"List dealers and their rules"`
	History  HistoryCmd       `cmd:"" help:"Work with round journals"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single-player blackjack against a roster of dealers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
