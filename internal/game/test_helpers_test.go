package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/shoe"
)

// stackedShoe returns a two-deck shoe whose next cards are the given ones.
// Opening deal order is player, dealer up, player, dealer hole.
func stackedShoe(t *testing.T, cards string) *shoe.Shoe {
	t.Helper()
	s := shoe.MustNew(2, shoe.WithRand(randutil.New(7)))
	require.NoError(t, s.Force(deck.MustParseCards(cards)...))
	return s
}

type fixture struct {
	c     *Controller
	shoe  *shoe.Shoe
	rec   *Recorder
	clock *quartz.Mock
}

func newFixture(t *testing.T, rs rules.RuleSet, cards string, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		shoe:  stackedShoe(t, cards),
		rec:   &Recorder{},
		clock: quartz.NewMock(t),
	}
	ids := 0
	opts = append([]Option{
		WithClock(f.clock),
		WithObserver(f.rec),
		WithRoundIDs(func() string {
			ids++
			return fmt.Sprintf("round-%d", ids)
		}),
	}, opts...)
	c, err := New(rs, f.shoe, opts...)
	require.NoError(t, err)
	f.c = c
	return f
}

func dealerRules(t *testing.T, id string) rules.RuleSet {
	t.Helper()
	d, ok := rules.LookupDealer(id)
	require.True(t, ok, "dealer %s", id)
	return d.Rules
}

// requireIllegal asserts fn panics with an error wrapping ErrIllegalAction
func requireIllegal(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.True(t, errors.Is(err, ErrIllegalAction), "unexpected panic: %v", err)
	}()
	fn()
}

func settlements(t *testing.T, c *Controller) []Settlement {
	t.Helper()
	summary, ok := c.LastRound()
	require.True(t, ok, "no settled round")
	return summary.Settlements
}
