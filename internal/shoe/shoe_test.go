package shoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
)

func TestTotalCardsPerDeckCount(t *testing.T) {
	for decks := MinDecks; decks <= MaxDecks; decks++ {
		s, err := New(decks, WithRand(randutil.New(int64(decks))))
		require.NoError(t, err)
		assert.Equal(t, 52*decks, s.TotalCards(), "decks=%d", decks)
		assert.Equal(t, 0, s.CardsDealt())
		assert.Equal(t, s.TotalCards(), s.CardsRemaining())
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
	_, err = New(9)
	assert.Error(t, err)
	_, err = New(6, WithPenetration(0))
	assert.Error(t, err)
	_, err = New(6, WithPenetration(1.2))
	assert.Error(t, err)
}

func TestDealAdvancesCursorAndKeepsInvariant(t *testing.T) {
	s := MustNew(2, WithRand(randutil.New(1)))
	for i := 1; i <= s.TotalCards(); i++ {
		_, ok := s.Deal()
		require.True(t, ok, "card %d", i)
		assert.Equal(t, i, s.CardsDealt())
		assert.Equal(t, s.TotalCards(), s.CardsDealt()+s.CardsRemaining())
	}

	_, ok := s.Deal()
	assert.False(t, ok, "exhausted shoe must report exhaustion")
	assert.Equal(t, s.TotalCards(), s.CardsDealt())
}

func TestShuffleComposition(t *testing.T) {
	s := MustNew(3, WithRand(randutil.New(9)))
	counts := make(map[deck.Card]int)
	for {
		c, ok := s.Deal()
		if !ok {
			break
		}
		counts[c]++
	}
	require.Len(t, counts, 52)
	for c, n := range counts {
		assert.Equal(t, 3, n, "card %v", c)
	}

	s.Shuffle()
	assert.Equal(t, 0, s.CardsDealt())
	assert.Equal(t, 156, s.CardsRemaining())
}

func TestShuffleIsDeterministicForSeed(t *testing.T) {
	a := MustNew(6, WithRand(randutil.New(77)))
	b := MustNew(6, WithRand(randutil.New(77)))
	for range 312 {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		require.Equal(t, ca, cb)
	}
}

func TestNeedsReshuffleBoundary(t *testing.T) {
	s := MustNew(6, WithRand(randutil.New(3)))
	require.Equal(t, 312, s.TotalCards())

	for range 233 {
		s.Deal()
	}
	assert.False(t, s.NeedsReshuffle(), "233 of 312 dealt")

	s.Deal()
	assert.True(t, s.NeedsReshuffle(), "234 of 312 dealt")
	assert.InDelta(t, 0.75, s.Penetration(), 1e-12)

	s.Shuffle()
	assert.False(t, s.NeedsReshuffle())
}

func TestCustomPenetration(t *testing.T) {
	s := MustNew(1, WithPenetration(0.5), WithRand(randutil.New(3)))
	for range 25 {
		s.Deal()
	}
	assert.False(t, s.NeedsReshuffle())
	s.Deal()
	assert.True(t, s.NeedsReshuffle())
	assert.Equal(t, 0.5, s.Threshold())
}

func TestForceAndPeek(t *testing.T) {
	s := MustNew(1, WithRand(randutil.New(5)))
	forced := deck.MustParseCards("AsAhAdAc")
	require.NoError(t, s.Force(forced...))

	next, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, forced[0], next)
	assert.Equal(t, 0, s.CardsDealt(), "peek must not advance")

	for _, want := range forced {
		got, ok := s.Deal()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	// Swapping keeps a single deck free of duplicates
	seen := map[deck.Card]bool{}
	for _, c := range forced {
		seen[c] = true
	}
	for {
		c, ok := s.Deal()
		if !ok {
			break
		}
		assert.False(t, seen[c], "duplicate %v after force", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestForceOverwritesWhenCardAlreadyDealt(t *testing.T) {
	s := MustNew(1, WithRand(randutil.New(5)))
	first, _ := s.Deal()

	require.NoError(t, s.Force(first))
	got, _ := s.Deal()
	assert.Equal(t, first, got)
	assert.Equal(t, 52, s.CardsDealt()+s.CardsRemaining())
}

func TestForceRejectsOverflow(t *testing.T) {
	s := MustNew(1, WithRand(randutil.New(5)))
	for range 51 {
		s.Deal()
	}
	assert.Error(t, s.Force(deck.MustParseCards("AsKs")...))
}
