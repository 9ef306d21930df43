package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/rules"
)

// Logger builds the process logger from the global flags. Logs go to
// stderr so they never interleave with the game on stdout.
func (g *Globals) Logger() *log.Logger {
	level, err := log.ParseLevel(g.LogLevel)
	if err != nil {
		level = log.WarnLevel
	}

	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	}
	if g.LogJSON {
		opts.Formatter = log.JSONFormatter
		opts.TimeFormat = time.RFC3339Nano
	}
	return log.NewWithOptions(os.Stderr, opts)
}

// LoadConfig reads the configuration file and builds the dealer roster
func (g *Globals) LoadConfig() (*config.Config, *rules.Roster, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", g.Config, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config %s: %w", g.Config, err)
	}
	roster, err := cfg.Roster()
	if err != nil {
		return nil, nil, err
	}
	return cfg, roster, nil
}

func lookupDealer(roster *rules.Roster, id string) (rules.Dealer, error) {
	d, ok := roster.Lookup(id)
	if !ok {
		return rules.Dealer{}, fmt.Errorf("unknown dealer %q (available: %v)", id, roster.IDs())
	}
	return d, nil
}
