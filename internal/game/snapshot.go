package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/rules"
)

// SnapshotVersion is the current snapshot format version
const SnapshotVersion = 1

// HandSnapshot is the persisted form of a player hand
type HandSnapshot struct {
	Cards       []deck.Card `json:"cards" toml:"cards"`
	Bet         int         `json:"bet" toml:"bet"`
	FreeBet     int         `json:"free_bet" toml:"free_bet"`
	Doubled     bool        `json:"doubled" toml:"doubled"`
	FromSplit   bool        `json:"from_split" toml:"from_split"`
	SplitAces   bool        `json:"split_aces" toml:"split_aces"`
	Surrendered bool        `json:"surrendered" toml:"surrendered"`
	Resolved    bool        `json:"resolved" toml:"resolved"`
}

// Snapshot captures everything needed to resume a session at a stable
// point: between rounds or while the player is deciding.
type Snapshot struct {
	Version        int            `json:"version" toml:"version"`
	SavedAt        time.Time      `json:"saved_at" toml:"saved_at"`
	Dealer         string         `json:"dealer" toml:"dealer"`
	State          GameState      `json:"state" toml:"state"`
	Bankroll       int            `json:"bankroll" toml:"bankroll"`
	CurrentBet     int            `json:"current_bet" toml:"current_bet"`
	MinimumBet     int            `json:"minimum_bet" toml:"minimum_bet"`
	RoundID        string         `json:"round_id,omitempty" toml:"round_id,omitempty"`
	ActiveHand     int            `json:"active_hand" toml:"active_hand"`
	HoleCardHidden bool           `json:"hole_card_hidden" toml:"hole_card_hidden"`
	PlayerHands    []HandSnapshot `json:"player_hands,omitempty" toml:"player_hands,omitempty"`
	DealerHand     []deck.Card    `json:"dealer_hand,omitempty" toml:"dealer_hand,omitempty"`
	Rules          rules.RuleSet  `json:"rules" toml:"rules"`
}

// Snapshot returns the controller's current state. The dealer hole card is
// included so a restored round plays out identically.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Version:        SnapshotVersion,
		SavedAt:        c.clock.Now(),
		Dealer:         c.dealerName,
		State:          c.state,
		Bankroll:       c.bankroll,
		CurrentBet:     c.currentBet,
		MinimumBet:     c.baseMinimum,
		RoundID:        c.roundID,
		ActiveHand:     c.active,
		HoleCardHidden: c.holeHidden,
		DealerHand:     c.dealer.Cards(),
		Rules:          c.rules.Clone(),
	}
	for _, h := range c.hands {
		s.PlayerHands = append(s.PlayerHands, HandSnapshot{
			Cards:       h.Cards(),
			Bet:         h.Bet,
			FreeBet:     h.FreeBet,
			Doubled:     h.Doubled,
			FromSplit:   h.FromSplit,
			SplitAces:   h.SplitAces,
			Surrendered: h.Surrendered,
			Resolved:    h.Resolved,
		})
	}
	return s
}

// Restore replaces the controller's state with a snapshot. The snapshot is
// validated first; on error the controller is unchanged. Snapshots taken
// mid-transition (dealing, dealer turn) are rejected.
func (c *Controller) Restore(s Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}

	hands := make([]*PlayerHand, len(s.PlayerHands))
	for i, h := range s.PlayerHands {
		hands[i] = &PlayerHand{
			Hand:        NewHand(h.Cards...),
			Bet:         h.Bet,
			FreeBet:     h.FreeBet,
			Doubled:     h.Doubled,
			FromSplit:   h.FromSplit,
			SplitAces:   h.SplitAces,
			Surrendered: h.Surrendered,
			Resolved:    h.Resolved,
		}
	}

	c.rules = s.Rules.Clone()
	c.dealerName = s.Dealer
	c.baseMinimum = s.MinimumBet
	c.state = s.State
	c.bankroll = s.Bankroll
	c.currentBet = s.CurrentBet
	c.roundID = s.RoundID
	c.hands = hands
	c.active = s.ActiveHand
	c.dealer = NewHand(s.DealerHand...)
	c.holeHidden = s.HoleCardHidden
	c.startedAt = c.clock.Now()
	c.startingBankroll = s.Bankroll + s.CurrentBet
	c.last = nil
	c.pending = nil

	c.logger.Info("Session restored", "state", s.State, "bankroll", s.Bankroll, "dealer", s.Dealer)
	return nil
}

// Validate checks that the snapshot describes a state the controller can
// resume from
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot: unsupported version %d", s.Version)
	}
	if err := s.Rules.Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	var errs []error
	if s.MinimumBet <= 0 {
		errs = append(errs, fmt.Errorf("minimum bet %d must be positive", s.MinimumBet))
	}
	if s.Bankroll < 0 {
		errs = append(errs, fmt.Errorf("bankroll %d must not be negative", s.Bankroll))
	}
	for i, h := range s.PlayerHands {
		if h.Bet < 0 || h.FreeBet < 0 {
			errs = append(errs, fmt.Errorf("hand %d has a negative stake", i))
		}
		for _, card := range h.Cards {
			if !card.Valid() {
				errs = append(errs, fmt.Errorf("hand %d holds an invalid card", i))
			}
		}
	}

	switch s.State {
	case Betting, GameOver:
		if len(s.PlayerHands) > 0 || len(s.DealerHand) > 0 {
			errs = append(errs, fmt.Errorf("%s snapshot must not hold cards", s.State))
		}
	case Result:
		if len(s.PlayerHands) == 0 || len(s.DealerHand) < 2 {
			errs = append(errs, errors.New("result snapshot needs settled hands"))
		}
		if s.HoleCardHidden {
			errs = append(errs, errors.New("result snapshot has a hidden hole card"))
		}
	case PlayerTurn:
		if len(s.PlayerHands) == 0 {
			errs = append(errs, errors.New("player turn snapshot has no hands"))
		} else if s.ActiveHand < 0 || s.ActiveHand >= len(s.PlayerHands) || s.PlayerHands[s.ActiveHand].Resolved {
			errs = append(errs, fmt.Errorf("active hand %d is not playable", s.ActiveHand))
		}
		if len(s.DealerHand) != 2 || !s.HoleCardHidden {
			errs = append(errs, errors.New("player turn snapshot needs a dealer upcard and hidden hole card"))
		}
		if s.RoundID == "" {
			errs = append(errs, errors.New("player turn snapshot has no round id"))
		}
	default:
		errs = append(errs, fmt.Errorf("cannot resume from %s", s.State))
	}

	if len(errs) > 0 {
		return fmt.Errorf("snapshot: %w", errors.Join(errs...))
	}
	return nil
}
