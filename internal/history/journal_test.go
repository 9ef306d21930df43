package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/shoe"
)

func summary(id string, start, end int) game.RoundSummary {
	return game.RoundSummary{
		RoundID:          id,
		Dealer:           "Classic Vegas",
		Rules:            "6D S17 DAS 3:2",
		StartedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:         1500 * time.Millisecond,
		StartingBankroll: start,
		EndingBankroll:   end,
		Settlements: []game.Settlement{{
			RoundID:     id,
			Outcome:     game.OutcomeWin,
			Bet:         10,
			Net:         end - start,
			Cards:       deck.MustParseCards("Th 9s"),
			DealerCards: deck.MustParseCards("7d Tc"),
			PlayerTotal: 19,
			DealerTotal: 17,
		}},
	}
}

func completed(s game.RoundSummary) game.Event {
	return game.RoundCompletedEvent{Summary: s}
}

func TestOpenRequiresConfig(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Dir: t.TempDir()})
	assert.Error(t, err)
	_, err = Open(Config{SessionID: "abc"})
	assert.Error(t, err)
}

func TestJournalFlushesAtThreshold(t *testing.T) {
	t.Parallel()

	j, err := Open(Config{Dir: t.TempDir(), SessionID: "abc", FlushRounds: 2})
	require.NoError(t, err)

	j.OnEvent(completed(summary("r1", 100, 110)))
	assert.Equal(t, 1, j.Pending())
	_, err = os.Stat(j.Path())
	assert.True(t, os.IsNotExist(err), "nothing written before the threshold")

	j.OnEvent(completed(summary("r2", 110, 120)))
	assert.Equal(t, 0, j.Pending())

	records, err := Load(j.Path())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Round)
	assert.Equal(t, "r2", records[1].RoundID)
	assert.Equal(t, 10, records[1].Net())
	assert.Equal(t, 1500*time.Millisecond, records[0].Duration())
	assert.Equal(t, deck.MustParseCards("7d Tc"), records[0].DealerCards)
	require.Len(t, records[0].Hands, 1)
	assert.Equal(t, game.OutcomeWin, records[0].Hands[0].Outcome)
	assert.Equal(t, 19, records[0].Hands[0].Total)
}

func TestJournalIgnoresOtherEvents(t *testing.T) {
	t.Parallel()

	j, err := Open(Config{Dir: t.TempDir(), SessionID: "abc"})
	require.NoError(t, err)

	j.OnEvent(game.BankruptEvent{Bankroll: 5, MinimumBet: 10})
	assert.Equal(t, 0, j.Pending())
	require.NoError(t, j.Close())
	_, err = os.Stat(j.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestJournalResumesNumbering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Open(Config{Dir: dir, SessionID: "abc"})
	require.NoError(t, err)
	first.OnEvent(completed(summary("r1", 100, 90)))
	first.OnEvent(completed(summary("r2", 90, 80)))
	require.NoError(t, first.Close())

	second, err := Open(Config{Dir: dir, SessionID: "abc"})
	require.NoError(t, err)
	second.OnEvent(completed(summary("r3", 80, 100)))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(second.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[round-000003]")
	assert.Contains(t, string(data), "[[round-000001.hands]]")

	records, err := Load(second.Path())
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i+1, rec.Round)
	}
	assert.Equal(t, "r3", records[2].RoundID)
}

func TestJournalDisablesAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := Open(Config{Dir: dir, SessionID: "abc", FlushRounds: 1})
	require.NoError(t, err)

	// A directory in place of the file makes every append fail
	require.NoError(t, os.Mkdir(j.Path(), 0o755))

	for i := 0; i < maxFailures; i++ {
		j.OnEvent(completed(summary("r", 100, 100)))
	}
	assert.True(t, j.Disabled())
	assert.Equal(t, 0, j.Pending())

	j.OnEvent(completed(summary("late", 100, 100)))
	assert.Equal(t, 0, j.Pending())
}

func TestJournalRecordsLiveRounds(t *testing.T) {
	t.Parallel()

	s := shoe.MustNew(2, shoe.WithRand(randutil.New(9)))
	// Player 20 stands against dealer 18, then a player natural
	require.NoError(t, s.Force(deck.MustParseCards("Ts 9h Qd 9c As 8h Kh 7d")...))
	vegas, ok := rules.LookupDealer("vegas")
	require.True(t, ok)

	c, err := game.New(vegas.Rules, s, game.WithClock(quartz.NewMock(t)), game.WithDealerName(vegas.Title))
	require.NoError(t, err)

	j, err := Open(Config{Dir: t.TempDir(), SessionID: "live"})
	require.NoError(t, err)
	c.Subscribe(j)

	require.NoError(t, c.PlaceBet(10))
	c.Stand()
	c.NextHand()
	require.NoError(t, c.PlaceBet(20))
	require.NoError(t, j.Close())

	records, err := Load(j.Path())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 10, records[0].Net())
	assert.Equal(t, game.OutcomeBlackjack, records[1].Hands[0].Outcome)
	assert.Equal(t, 30, records[1].Net())
	assert.Equal(t, "Classic Vegas", records[1].Dealer)
}

func TestDecodeRejectsForeignSections(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("[hand-1]\nround = 1\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
