package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/table"
)

var (
	opening       = []game.Action{game.Hit, game.Stand, game.Double}
	openingPair   = []game.Action{game.Hit, game.Stand, game.Double, game.Split}
	withSurrender = []game.Action{game.Hit, game.Stand, game.Double, game.Surrender}
	hitOrStand    = []game.Action{game.Hit, game.Stand}
)

func TestAdvise(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		hand   string
		upcard string
		legal  []game.Action
		want   game.Action
	}{
		{"hard 16 vs ten surrenders", "Ts6h", "Kd", withSurrender, game.Surrender},
		{"hard 16 vs ten hits without surrender", "Ts6h", "Kd", opening, game.Hit},
		{"hard 16 vs six stands", "Ts6h", "6d", opening, game.Stand},
		{"hard 15 vs ten surrenders", "Ts5h", "Qd", withSurrender, game.Surrender},
		{"hard 15 vs ace hits", "Ts5h", "Ad", withSurrender, game.Hit},
		{"hard 12 vs four stands", "Ts2h", "4d", opening, game.Stand},
		{"hard 12 vs two hits", "Ts2h", "2d", opening, game.Hit},
		{"hard 11 vs six doubles", "6s5h", "6d", opening, game.Double},
		{"hard 11 vs six hits when double is gone", "6s5h", "6d", hitOrStand, game.Hit},
		{"hard 11 vs ace hits", "6s5h", "Ad", opening, game.Hit},
		{"hard 10 vs nine doubles", "6s4h", "9d", opening, game.Double},
		{"hard 9 vs two hits", "5s4h", "2d", opening, game.Hit},
		{"hard 8 hits", "5s3h", "6d", opening, game.Hit},
		{"hard 17 stands", "Ts7h", "Ad", opening, game.Stand},
		{"soft 18 vs three doubles", "As7h", "3d", opening, game.Double},
		{"soft 18 vs three stands when double is gone", "As7h", "3d", hitOrStand, game.Stand},
		{"soft 18 vs nine hits", "As7h", "9d", opening, game.Hit},
		{"soft 18 vs seven stands", "As7h", "7d", opening, game.Stand},
		{"soft 17 vs two hits", "As6h", "2d", opening, game.Hit},
		{"soft 13 vs five doubles", "As2h", "5d", opening, game.Double},
		{"soft 19 stands", "As8h", "6d", opening, game.Stand},
		{"eights split vs ace", "8s8h", "Ad", openingPair, game.Split},
		{"aces split", "AsAh", "Td", openingPair, game.Split},
		{"aces hit when split is gone", "AsAh", "Td", opening, game.Hit},
		{"tens stand", "TsKh", "6d", openingPair, game.Stand},
		{"fives double as ten", "5s5h", "6d", openingPair, game.Double},
		{"nines stand vs seven", "9s9h", "7d", openingPair, game.Stand},
		{"nines split vs eight", "9s9h", "8d", openingPair, game.Split},
		{"fours split vs five", "4s4h", "5d", openingPair, game.Split},
		{"fours hit vs two", "4s4h", "2d", openingPair, game.Hit},
		{"locked split aces stand", "As", "6d", []game.Action{game.Stand}, game.Stand},
		{"three-card soft 18 vs three stands", "As4h3d", "3d", hitOrStand, game.Stand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := game.NewHand(deck.MustParseCards(tt.hand)...)
			up := deck.MustParseCards(tt.upcard)[0]
			d := Advise(h, up, tt.legal)
			assert.Equal(t, tt.want, d.Action, d.Reasoning)
			assert.NotEmpty(t, d.Reasoning)
		})
	}
}

func seat(t *testing.T, id string, opts ...table.Option) *table.Table {
	t.Helper()
	d, ok := rules.LookupDealer(id)
	require.True(t, ok)
	tbl, err := table.New(d, opts...)
	require.NoError(t, err)
	return tbl
}

func TestPlayerPlaysToSettlement(t *testing.T) {
	t.Parallel()

	tbl := seat(t, "vegas", table.WithSeed(99), table.WithGameOptions(game.WithBankroll(500)))
	c := tbl.Controller()

	p := NewPlayer(10, nil)
	rounds := 0
	for rounds < 200 {
		summary, err := p.PlayRound(tbl)
		if errors.Is(err, game.ErrGameOver) {
			break
		}
		require.NoError(t, err)
		require.NotEmpty(t, summary.Settlements)
		assert.Contains(t, []game.GameState{game.Result, game.GameOver}, c.State())
		assert.Equal(t, c.Bankroll(), summary.EndingBankroll)
		rounds++
	}
	assert.Positive(t, rounds)
}

func TestPlayerRaisesBetToMinimum(t *testing.T) {
	t.Parallel()

	tbl := seat(t, "highroller", table.WithSeed(4))

	summary, err := NewPlayer(10, nil).PlayRound(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1000, summary.StartingBankroll)
	first := summary.Settlements[0]
	assert.GreaterOrEqual(t, first.Bet, 50)
}
