package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/history"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/storage"
	"github.com/lox/blackjack/internal/table"
)

func newTestConsole(t *testing.T, dealerID, cards string, opts ...game.Option) (*console, *bytes.Buffer, string) {
	t.Helper()
	d, ok := rules.LookupDealer(dealerID)
	require.True(t, ok)

	tbl, err := table.New(d, table.WithSeed(11), table.WithClock(quartz.NewMock(t)), table.WithGameOptions(opts...))
	require.NoError(t, err)
	if cards != "" {
		require.NoError(t, tbl.Shoe().Force(deck.MustParseCards(cards)...))
	}

	var out bytes.Buffer
	snapshot := filepath.Join(t.TempDir(), "session.toml")
	return newConsole(tbl, &out, newStyles(), snapshot), &out, snapshot
}

func run(t *testing.T, c *console, line string) {
	t.Helper()
	keepGoing, err := c.Execute(line)
	require.NoError(t, err, line)
	require.True(t, keepGoing, line)
}

func TestConsolePlaysARound(t *testing.T) {
	t.Parallel()

	c, out, _ := newTestConsole(t, "vegas", "Ts 9h 7d 7c 4s Td")
	ctrl := c.table.Controller()

	run(t, c, "bet 20")
	assert.Equal(t, game.PlayerTurn, ctrl.State())
	assert.Contains(t, out.String(), "Actions: hit, stand, double")

	out.Reset()
	run(t, c, "hint")
	assert.Contains(t, out.String(), "Basic strategy: STAND")

	run(t, c, "h")
	assert.Equal(t, game.Result, ctrl.State())
	assert.Contains(t, out.String(), "WIN")
	assert.Equal(t, 1020, ctrl.Bankroll())
}

func TestConsoleRejectsIllegalCommands(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestConsole(t, "vegas", "Ts 9h 7d 7c")

	_, err := c.Execute("split")
	assert.ErrorContains(t, err, "no hand in play")

	_, err = c.Execute("bet lots")
	assert.ErrorContains(t, err, "invalid amount")

	_, err = c.Execute("bet 5")
	assert.ErrorContains(t, err, "bet must be between $10 and $1000")

	run(t, c, "bet 10")
	_, err = c.Execute("split")
	assert.ErrorContains(t, err, "cannot split now")

	_, err = c.Execute("next")
	assert.Error(t, err)

	_, err = c.Execute("dance")
	assert.ErrorContains(t, err, "unknown command")
}

func TestConsoleBetStartsNextRound(t *testing.T) {
	t.Parallel()

	// Both rounds end at once on a player natural
	c, _, _ := newTestConsole(t, "vegas", "As 9h Kd 7c Ah 9c Qd 7s")
	ctrl := c.table.Controller()

	run(t, c, "bet 10")
	require.Equal(t, game.Result, ctrl.State())
	run(t, c, "bet")
	assert.Equal(t, game.Result, ctrl.State())
	assert.Equal(t, 1030, ctrl.Bankroll())
}

func TestConsoleResetAfterBankruptcy(t *testing.T) {
	t.Parallel()

	c, out, _ := newTestConsole(t, "vegas", "Ts 9h 7d Tc", game.WithBankroll(10))
	ctrl := c.table.Controller()

	run(t, c, "bet 10")
	run(t, c, "stand")
	assert.Equal(t, game.GameOver, ctrl.State())
	assert.Contains(t, out.String(), "Bankrupt")

	_, err := c.Execute("bet 10")
	assert.ErrorIs(t, err, game.ErrGameOver)

	_, err = c.Execute("reset 5")
	assert.ErrorContains(t, err, "at least $10")

	run(t, c, "reset 200")
	assert.Equal(t, game.Betting, ctrl.State())
	assert.Equal(t, 200, ctrl.Bankroll())
}

func TestConsoleResetOnShortShoe(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestConsole(t, "lucky", "", game.WithBankroll(10))
	ctrl := c.table.Controller()
	s := c.table.Shoe()

	for s.CardsRemaining() > 10 {
		_, ok := s.Deal()
		require.True(t, ok)
	}
	require.NoError(t, s.Force(deck.MustParseCards("Ts 9h 6d Tc")...))
	require.NoError(t, ctrl.PlaceBet(10))
	run(t, c, "stand")
	require.Equal(t, game.GameOver, ctrl.State())

	run(t, c, "reset 10")
	assert.Equal(t, 0, c.table.Shoe().CardsDealt())

	for range 30 {
		if ctrl.State() == game.GameOver {
			run(t, c, "reset 10")
		}
		run(t, c, "bet 10")
		for ctrl.State() == game.PlayerTurn {
			run(t, c, "stand")
		}
	}
}

func TestConsoleQuitSavesSnapshot(t *testing.T) {
	t.Parallel()

	c, _, snapshot := newTestConsole(t, "mentor", "Ts 9h 6d 7c")
	run(t, c, "bet 10")

	keepGoing, err := c.Execute("quit")
	require.NoError(t, err)
	assert.False(t, keepGoing)

	snap, err := storage.Load(snapshot)
	require.NoError(t, err)
	assert.Equal(t, game.PlayerTurn, snap.State)
	assert.Equal(t, "The Mentor", snap.Dealer)
	assert.Equal(t, 990, snap.Bankroll)
}

func TestConsoleHelpListsCommands(t *testing.T) {
	t.Parallel()

	c, out, _ := newTestConsole(t, "vegas", "")
	run(t, c, "help")
	for _, name := range []string{"bet", "hit", "stand", "double", "split", "surrender", "hint", "next", "reset", "save", "quit"} {
		assert.Contains(t, out.String(), name)
	}
	assert.Contains(t, c.names(), "surrender")
}

func TestPrintDealers(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	printDealers(&out, newStyles(), rules.Dealers())
	assert.Contains(t, out.String(), "Classic Vegas")
	assert.Contains(t, out.String(), "player advantage")
	assert.Contains(t, out.String(), "Rules change with every shoe")
}

func TestRenderRecords(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestConsole(t, "vegas", "Ts 9h 7d 7c 4s Td")
	dir := t.TempDir()
	journal, err := history.Open(history.Config{Dir: dir, SessionID: "test"})
	require.NoError(t, err)
	c.table.Controller().Subscribe(journal)

	run(t, c, "bet 20")
	run(t, c, "hit")
	require.NoError(t, journal.Close())

	records, err := history.Load(journal.Path())
	require.NoError(t, err)

	var out bytes.Buffer
	renderRecords(&out, newStyles(), records)
	assert.Contains(t, out.String(), "Round 1")
	assert.Contains(t, out.String(), "1 rounds, net")

	_, err = os.Stat(filepath.Join(dir, "session-test.toml"))
	assert.NoError(t, err)
}
