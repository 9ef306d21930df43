package simulator

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/rules"
)

func dealer(t *testing.T, id string) rules.Dealer {
	t.Helper()
	d, ok := rules.LookupDealer(id)
	require.True(t, ok)
	return d
}

func TestNewDefaults(t *testing.T) {
	sim := New(Config{Dealer: dealer(t, "vegas"), Rounds: 10})
	assert.Equal(t, 1, sim.config.Sessions)
	assert.Equal(t, 10, sim.config.Bet)
	assert.Equal(t, 1000, sim.config.Bankroll)
	assert.NotNil(t, sim.config.Logger)
}

func TestRunMergesSessions(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel})
	sim := New(Config{
		Dealer:   dealer(t, "vegas"),
		Rounds:   300,
		Sessions: 4,
		Seed:     12345,
		Logger:   logger,
	})

	st, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1200, st.Rounds)
	assert.GreaterOrEqual(t, st.Hands, st.Rounds)
	assert.True(t, st.IsLedgerBalanced())
	require.NoError(t, st.Validate())
}

func TestRunIsReproducible(t *testing.T) {
	cfg := Config{Dealer: dealer(t, "mentor"), Rounds: 200, Sessions: 3, Seed: 42}

	a, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	b, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a.SumNet, b.SumNet)
	assert.Equal(t, a.Hands, b.Hands)
	assert.Equal(t, a.Surrenders, b.Surrenders)
}

func TestRunWildcardAndBankruptcy(t *testing.T) {
	// A tiny bankroll forces restakes
	sim := New(Config{Dealer: dealer(t, rules.WildcardID), Rounds: 400, Bankroll: 20, Bet: 10, Seed: 7})
	st, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 400, st.Rounds)
	assert.Positive(t, st.Bankruptcies)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{Dealer: dealer(t, "vegas"), Rounds: 10, Seed: 1}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintSummary(t *testing.T) {
	sim := New(Config{Dealer: dealer(t, "lucky"), Rounds: 50, Seed: 3})
	st, err := sim.Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	d := dealer(t, "lucky")
	PrintSummary(&buf, st, d, d.Rules)
	out := buf.String()
	assert.Contains(t, out, "RESULTS vs Lucky Lucy")
	assert.Contains(t, out, "Rounds played: 50")
	assert.Contains(t, out, "heuristic edge")
}

func TestRunRestakesOnShortShoe(t *testing.T) {
	// Every loss bankrupts the session, so rounds start straight after a reset
	sim := New(Config{
		Dealer:   dealer(t, "lucky"),
		Rounds:   2000,
		Sessions: 2,
		Bet:      10,
		Bankroll: 10,
		Seed:     7,
	})

	st, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4000, st.Rounds)
	assert.Positive(t, st.Bankruptcies)
	require.NoError(t, st.Validate())
}
