package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd plays many rounds of basic strategy without a human
type SimulateCmd struct {
	Dealer      string  `help:"Dealer to play against" default:"vegas"`
	Rounds      int     `short:"n" help:"Rounds per session" default:"10000"`
	Sessions    int     `short:"s" help:"Independent sessions run in parallel" default:"4"`
	Bet         int     `help:"Flat bet per round (raised to the table minimum)" default:"10"`
	Bankroll    int     `help:"Starting bankroll per session" default:"1000"`
	Penetration float64 `help:"Shoe penetration before a reshuffle" default:"0.75"`
	Seed        int64   `help:"Seed for reproducible runs (0 = random)"`
}

func (cmd *SimulateCmd) Run(globals *Globals) error {
	logger := globals.Logger()
	_, roster, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	dealer, err := lookupDealer(roster, cmd.Dealer)
	if err != nil {
		return err
	}
	if cmd.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive")
	}

	ctx := setupSignalHandler(logger)
	sim := simulator.New(simulator.Config{
		Dealer:      dealer,
		Rounds:      cmd.Rounds,
		Sessions:    cmd.Sessions,
		Bet:         cmd.Bet,
		Bankroll:    cmd.Bankroll,
		Penetration: cmd.Penetration,
		Seed:        cmd.Seed,
		Logger:      logger,
	})

	styles := newStyles()
	fmt.Println(styles.Title.Render(fmt.Sprintf(" Simulating %d x %d rounds vs %s ", cmd.Sessions, cmd.Rounds, dealer.Title)))

	start := time.Now()
	st, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	simulator.PrintSummary(os.Stdout, st, dealer, dealer.Rules)
	fmt.Println(styles.Info.Render(fmt.Sprintf("\nCompleted in %s (%.0f rounds/sec)",
		elapsed.Round(time.Millisecond), float64(st.Rounds)/elapsed.Seconds())))
	return nil
}
