package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/lox/blackjack/internal/broadcast"
	"github.com/lox/blackjack/internal/config"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/history"
	"github.com/lox/blackjack/internal/roundid"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/storage"
	"github.com/lox/blackjack/internal/table"
)

// PlayCmd runs an interactive session at one dealer's table
type PlayCmd struct {
	Dealer      string  `help:"Dealer to play against (see 'blackjack dealers')"`
	Bankroll    int     `help:"Starting bankroll (default from config)"`
	MinimumBet  int     `name:"min-bet" help:"Table minimum before the dealer multiplier (default from config)"`
	Penetration float64 `help:"Shoe penetration before a reshuffle (default from config)"`
	Seed        int64   `help:"Shuffle seed for a reproducible session (0 = random)"`
	Resume      bool    `help:"Resume from the saved snapshot"`
	Snapshot    string  `help:"Snapshot file (default from config)"`
	NoHistory   bool    `help:"Do not write a round journal"`
	Broadcast   string  `help:"Serve a spectator WebSocket stream on this address (e.g. :8080)"`
}

func (cmd *PlayCmd) Run(globals *Globals) error {
	logger := globals.Logger()
	cfg, roster, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	cmd.applyConfig(cfg.Session)

	var snap *game.Snapshot
	if cmd.Resume {
		loaded, err := storage.Load(cmd.Snapshot)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn("No saved session, starting fresh", "file", cmd.Snapshot)
		case err != nil:
			return err
		default:
			snap = &loaded
		}
	}

	dealer, err := cmd.chooseDealer(roster, snap)
	if err != nil {
		return err
	}

	t, err := table.New(dealer,
		table.WithSeed(cmd.Seed),
		table.WithPenetration(cmd.Penetration),
		table.WithLogger(logger),
		table.WithGameOptions(
			game.WithBankroll(cmd.Bankroll),
			game.WithMinimumBet(cmd.MinimumBet),
		),
	)
	if err != nil {
		return err
	}
	if snap != nil {
		if err := t.Restore(*snap); err != nil {
			return fmt.Errorf("resume %s: %w", cmd.Snapshot, err)
		}
		logger.Info("Session resumed", "file", cmd.Snapshot, "state", snap.State, "bankroll", snap.Bankroll)
	}

	ctrl := t.Controller()
	if !cmd.NoHistory {
		journal, err := history.Open(history.Config{
			Dir:       cfg.Session.HistoryDir,
			SessionID: roundid.New(),
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Error("Failed to flush round journal", "error", err)
			}
		}()
		ctrl.Subscribe(journal)
		logger.Info("Recording rounds", "file", journal.Path())
	}

	if cmd.Broadcast != "" {
		stop, err := serveBroadcast(cmd.Broadcast, ctrl, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	styles := newStyles()
	fmt.Println(styles.Title.Render(" ♠ ♥ Blackjack ♦ ♣ "))
	fmt.Println()
	fmt.Printf("Dealer: %s. %s\n", dealer.Title, dealer.Description)
	fmt.Println(styles.Info.Render("Rules: " + t.Rules().Summary()))
	fmt.Println(styles.Info.Render("Type 'help' for commands."))
	fmt.Println()

	con := newConsole(t, os.Stdout, styles, cmd.Snapshot)
	con.render()
	return runPrompt(con, styles)
}

func (cmd *PlayCmd) applyConfig(s *config.SessionSettings) {
	if cmd.Dealer == "" {
		cmd.Dealer = s.Dealer
	}
	if cmd.Bankroll == 0 {
		cmd.Bankroll = s.Bankroll
	}
	if cmd.MinimumBet == 0 {
		cmd.MinimumBet = s.MinimumBet
	}
	if cmd.Penetration == 0 {
		cmd.Penetration = s.Penetration
	}
	if cmd.Seed == 0 {
		cmd.Seed = s.Seed
	}
	if cmd.Snapshot == "" {
		cmd.Snapshot = s.SnapshotFile
	}
}

// chooseDealer prefers the dealer a resumed session was saved with
func (cmd *PlayCmd) chooseDealer(roster *rules.Roster, snap *game.Snapshot) (rules.Dealer, error) {
	if snap != nil {
		for _, d := range roster.All() {
			if d.Title == snap.Dealer {
				return d, nil
			}
		}
	}
	return lookupDealer(roster, cmd.Dealer)
}

func serveBroadcast(addr string, ctrl *game.Controller, logger *log.Logger) (func(), error) {
	hub := broadcast.NewHub(broadcast.WithLogger(logger))
	ctrl.Subscribe(hub)

	srv := &http.Server{
		Addr:              addr,
		Handler:           hub,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return nil, fmt.Errorf("broadcast on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
	}
	logger.Info("Broadcasting to spectators", "addr", addr)

	return func() {
		_ = hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func runPrompt(con *console, styles Styles) error {
	completer := readline.NewPrefixCompleter()
	for _, name := range con.names() {
		completer.Children = append(completer.Children, readline.PcItem(name))
	}

	historyFile := ""
	if dir, err := os.UserCacheDir(); err == nil {
		historyFile = filepath.Join(dir, "blackjack_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          styles.Prompt.Render(con.Prompt()),
		HistoryFile:     historyFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		rl.SetPrompt(styles.Prompt.Render(con.Prompt()))

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Println(styles.Info.Render("Use 'quit' to exit"))
			continue
		} else if errors.Is(err, io.EOF) {
			_, err := con.Execute("quit")
			return err
		} else if err != nil {
			return err
		}

		keepGoing, err := con.Execute(line)
		if err != nil {
			fmt.Println(styles.Error.Render("Error: " + err.Error()))
			continue
		}
		if !keepGoing {
			return nil
		}
	}
}
