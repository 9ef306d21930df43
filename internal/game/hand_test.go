package game

import (
	"testing"

	"github.com/lox/blackjack/internal/deck"
)

func TestHandTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards     string
		total     int
		soft      bool
		bust      bool
		blackjack bool
	}{
		{"As6h", 17, true, false, false},
		{"As6hTd", 17, false, false, false},
		{"AsAh", 12, true, false, false},
		{"AsAh9d", 21, true, false, false}, // one ace demoted, the other still 11
		{"AsAhAd8c", 21, true, false, false},
		{"AsAhAd9c", 12, false, false, false},
		{"KsQh5d", 25, false, true, false},
		{"AsKh", 21, true, false, true},
		{"7s7h7d", 21, false, false, false},
		{"AsAhAdAc", 14, true, false, false},
		{"AsAhAdAcTs", 14, false, false, false},
		{"9s", 9, false, false, false},
		{"", 0, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			h := NewHand(deck.MustParseCards(tt.cards)...)
			if got := h.Total(); got != tt.total {
				t.Errorf("Total() = %d, want %d", got, tt.total)
			}
			if got := h.IsSoft(); got != tt.soft {
				t.Errorf("IsSoft() = %v, want %v", got, tt.soft)
			}
			if got := h.IsBust(); got != tt.bust {
				t.Errorf("IsBust() = %v, want %v", got, tt.bust)
			}
			if got := h.IsBlackjack(); got != tt.blackjack {
				t.Errorf("IsBlackjack() = %v, want %v", got, tt.blackjack)
			}
		})
	}
}

func TestHandCanSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards string
		want  bool
	}{
		{"8s8h", true},
		{"AsAd", true},
		{"KsQh", false},
		{"TsTh", true},
		{"8s8h8d", false},
		{"8s", false},
	}
	for _, tt := range tests {
		h := NewHand(deck.MustParseCards(tt.cards)...)
		if got := h.CanSplit(); got != tt.want {
			t.Errorf("%s CanSplit() = %v, want %v", tt.cards, got, tt.want)
		}
	}
}

func TestHandDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards string
		want  string
	}{
		{"AsKh", "blackjack"},
		{"As6h", "soft 17"},
		{"TsTh5d", "25 bust"},
		{"Ts7h", "17"},
	}
	for _, tt := range tests {
		h := NewHand(deck.MustParseCards(tt.cards)...)
		if got := h.Describe(); got != tt.want {
			t.Errorf("%s Describe() = %q, want %q", tt.cards, got, tt.want)
		}
	}
}

func TestHandCardsAreCopies(t *testing.T) {
	t.Parallel()

	h := NewHand(deck.MustParseCards("AsKh")...)
	cards := h.Cards()
	cards[0] = deck.NewCard(deck.Clubs, deck.Two)
	if h.Total() != 21 {
		t.Errorf("mutating Cards() changed the hand: %s", h)
	}

	clone := h.Clone()
	clone.Add(deck.NewCard(deck.Clubs, deck.Five))
	if h.Len() != 2 {
		t.Errorf("mutating a clone changed the original: %s", h)
	}
}

func TestSplitTwentyOneIsNotNatural(t *testing.T) {
	t.Parallel()

	h := PlayerHand{Hand: NewHand(deck.MustParseCards("AsKh")...), Bet: 10, FromSplit: true}
	if !h.IsBlackjack() {
		t.Fatal("two-card 21 should report IsBlackjack")
	}
	if h.IsNatural() {
		t.Error("split 21 must not count as a natural")
	}
}
