// Package shoe models a multi-deck blackjack shoe dealt from a cursor.
//
// A Shoe holds 52*N cards. Dealing advances a cursor instead of removing
// cards, so CardsDealt()+CardsRemaining() == TotalCards() holds at all times.
// Penetration is the dealt fraction; once it reaches the configured threshold
// NeedsReshuffle reports true and the owner is expected to Shuffle before the
// next round.
//
// A Shoe is not safe for concurrent use.
package shoe

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
)

const (
	// MinDecks and MaxDecks bound the number of decks in a shoe
	MinDecks = 1
	MaxDecks = 8

	// DefaultPenetration is the dealt fraction that triggers a reshuffle
	DefaultPenetration = 0.75
)

// Shoe is a sequence of cards from one or more standard decks
type Shoe struct {
	decks     int
	threshold float64
	cards     []deck.Card
	next      int
	rng       *rand.Rand
}

// Option configures a Shoe during creation
type Option func(*Shoe)

// WithPenetration sets the reshuffle threshold as a fraction of the shoe
func WithPenetration(threshold float64) Option {
	return func(s *Shoe) { s.threshold = threshold }
}

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(s *Shoe) { s.rng = rng }
}

// New creates a shuffled shoe of the given number of decks. Without WithRand
// the shoe shuffles from an entropy-seeded source.
func New(decks int, opts ...Option) (*Shoe, error) {
	if decks < MinDecks || decks > MaxDecks {
		return nil, fmt.Errorf("shoe: deck count %d outside %d..%d", decks, MinDecks, MaxDecks)
	}
	s := &Shoe{
		decks:     decks,
		threshold: DefaultPenetration,
		cards:     make([]deck.Card, 0, decks*52),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.threshold <= 0 || s.threshold > 1 {
		return nil, fmt.Errorf("shoe: penetration %.2f must be in (0, 1]", s.threshold)
	}
	if s.rng == nil {
		s.rng = randutil.NewSeeded(0)
	}
	s.Shuffle()
	return s, nil
}

// MustNew is like New but panics on invalid arguments
func MustNew(decks int, opts ...Option) *Shoe {
	s, err := New(decks, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Shuffle rebuilds all decks, applies a uniform permutation and resets the
// cursor.
func (s *Shoe) Shuffle() {
	s.cards = s.cards[:0]
	for range s.decks {
		s.cards = append(s.cards, deck.Standard()...)
	}
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
	s.next = 0
}

// Deal returns the next card and advances the cursor. The second result is
// false when the shoe is exhausted, in which case the cursor is unchanged.
func (s *Shoe) Deal() (deck.Card, bool) {
	if s.next >= len(s.cards) {
		return deck.Card{}, false
	}
	card := s.cards[s.next]
	s.next++
	return card, true
}

// Peek returns the next card without advancing the cursor
func (s *Shoe) Peek() (deck.Card, bool) {
	if s.next >= len(s.cards) {
		return deck.Card{}, false
	}
	return s.cards[s.next], true
}

// Force arranges for the given cards to be dealt next, in order. Each card
// is swapped in from the undealt remainder when one is available, keeping
// the shoe's composition intact; otherwise the slot is overwritten. It is a
// testing hook and returns an error if there is no room left.
func (s *Shoe) Force(cards ...deck.Card) error {
	if len(cards) > s.CardsRemaining() {
		return fmt.Errorf("shoe: cannot force %d cards with %d remaining", len(cards), s.CardsRemaining())
	}
	for i, want := range cards {
		slot := s.next + i
		if s.cards[slot] == want {
			continue
		}
		found := false
		for j := slot + 1; j < len(s.cards); j++ {
			if s.cards[j] == want {
				s.cards[slot], s.cards[j] = s.cards[j], s.cards[slot]
				found = true
				break
			}
		}
		if !found {
			s.cards[slot] = want
		}
	}
	return nil
}

// Decks returns the number of decks in the shoe
func (s *Shoe) Decks() int {
	return s.decks
}

// TotalCards returns the number of cards in a full shoe
func (s *Shoe) TotalCards() int {
	return len(s.cards)
}

// CardsDealt returns the number of cards dealt since the last shuffle
func (s *Shoe) CardsDealt() int {
	return s.next
}

// CardsRemaining returns the number of undealt cards
func (s *Shoe) CardsRemaining() int {
	return len(s.cards) - s.next
}

// Penetration returns the fraction of the shoe dealt since the last shuffle
func (s *Shoe) Penetration() float64 {
	if len(s.cards) == 0 {
		return 0
	}
	return float64(s.next) / float64(len(s.cards))
}

// Threshold returns the penetration at which a reshuffle is due
func (s *Shoe) Threshold() float64 {
	return s.threshold
}

// NeedsReshuffle reports whether penetration has reached the threshold
func (s *Shoe) NeedsReshuffle() bool {
	return s.Penetration() >= s.threshold
}

// String returns a short description of the shoe state
func (s *Shoe) String() string {
	return fmt.Sprintf("%d-deck shoe %d/%d dealt (%.1f%%)", s.decks, s.next, len(s.cards), s.Penetration()*100)
}
