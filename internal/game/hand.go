package game

import (
	"slices"
	"strconv"
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

// Hand is an ordered collection of cards held by the player or the dealer.
// All scoring properties are derived from the cards on demand.
type Hand struct {
	cards []deck.Card
}

// NewHand creates a hand holding the given cards
func NewHand(cards ...deck.Card) Hand {
	return Hand{cards: slices.Clone(cards)}
}

// Add appends a card to the hand
func (h *Hand) Add(c deck.Card) {
	h.cards = append(h.cards, c)
}

// Cards returns a copy of the cards in deal order
func (h Hand) Cards() []deck.Card {
	return slices.Clone(h.cards)
}

// Len returns the number of cards in the hand
func (h Hand) Len() int {
	return len(h.cards)
}

// Clone returns an independent copy of the hand
func (h Hand) Clone() Hand {
	return NewHand(h.cards...)
}

// evaluate sums nominal values with every ace at 11, then demotes aces to 1
// one at a time while the total is over 21. The hand is soft when at least
// one ace is still counted as 11.
func (h Hand) evaluate() (total int, soft bool) {
	aces := 0
	for _, c := range h.cards {
		total += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// Total returns the best blackjack total of the hand
func (h Hand) Total() int {
	total, _ := h.evaluate()
	return total
}

// IsSoft reports whether an ace is counted as 11 without busting. Only as
// many aces are demoted as needed, so A,A,9 is a soft 21: one ace counts 1,
// the other still counts 11.
func (h Hand) IsSoft() bool {
	_, soft := h.evaluate()
	return soft
}

// IsBust reports whether the total exceeds 21
func (h Hand) IsBust() bool {
	return h.Total() > 21
}

// IsBlackjack reports a two-card 21
func (h Hand) IsBlackjack() bool {
	return len(h.cards) == 2 && h.Total() == 21
}

// CanSplit reports a two-card pair of identical rank. Ten-value cards of
// different ranks (K, Q) do not qualify.
func (h Hand) CanSplit() bool {
	return len(h.cards) == 2 && h.cards[0].Rank == h.cards[1].Rank
}

// CanDouble reports whether the hand holds exactly two cards
func (h Hand) CanDouble() bool {
	return len(h.cards) == 2
}

// IsPairOfAces reports a two-card hand of aces
func (h Hand) IsPairOfAces() bool {
	return h.CanSplit() && h.cards[0].IsAce()
}

// String returns the cards and total (e.g., "A♠ 6♥ (soft 17)")
func (h Hand) String() string {
	if len(h.cards) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ") + " (" + h.Describe() + ")"
}

// Describe returns the total with soft/bust/blackjack qualifiers
func (h Hand) Describe() string {
	total, soft := h.evaluate()
	switch {
	case h.IsBlackjack():
		return "blackjack"
	case total > 21:
		return strconv.Itoa(total) + " bust"
	case soft:
		return "soft " + strconv.Itoa(total)
	default:
		return strconv.Itoa(total)
	}
}

// PlayerHand is a hand in play for the player together with its wager.
// FreeBet is the house-funded portion from free doubles and free splits.
type PlayerHand struct {
	Hand
	Bet         int
	FreeBet     int
	Doubled     bool
	FromSplit   bool
	SplitAces   bool
	Surrendered bool
	Resolved    bool
}

// Stake returns the total amount riding on the hand
func (p PlayerHand) Stake() int {
	return p.Bet + p.FreeBet
}

// IsNatural reports a blackjack dealt as the opening hand. Two-card 21s
// made after a split are not naturals.
func (p PlayerHand) IsNatural() bool {
	return !p.FromSplit && p.IsBlackjack()
}

// Clone returns an independent copy of the player hand
func (p PlayerHand) Clone() PlayerHand {
	p.Hand = p.Hand.Clone()
	return p
}
