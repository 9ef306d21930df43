// Package rules defines blackjack rule variants and the dealers that use them.
package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// StandardPayout is the 3:2 blackjack bonus ratio
	StandardPayout = 1.5
	// SixToFivePayout is the 6:5 blackjack bonus ratio
	SixToFivePayout = 1.2
)

// RuleSet is an immutable record of the table rules a dealer plays by.
// Treat values as read-only; use Clone before handing one to code that may
// keep it.
type RuleSet struct {
	Name                 string  `toml:"name" json:"name"`
	Decks                int     `toml:"decks" json:"decks"`
	DealerHitsSoft17     bool    `toml:"dealer_hits_soft_17" json:"dealer_hits_soft_17"`
	DoubleOn             []int   `toml:"double_on,omitempty" json:"double_on,omitempty"` // Empty allows any two-card total
	DoubleAfterSplit     bool    `toml:"double_after_split" json:"double_after_split"`
	MaxSplitHands        int     `toml:"max_split_hands" json:"max_split_hands"`
	ResplitAces          bool    `toml:"resplit_aces" json:"resplit_aces"`
	SplitAcesOneCardOnly bool    `toml:"split_aces_one_card_only" json:"split_aces_one_card_only"`
	SurrenderAllowed     bool    `toml:"surrender_allowed" json:"surrender_allowed"`
	EarlySurrender       bool    `toml:"early_surrender" json:"early_surrender"`
	BlackjackPayout      float64 `toml:"blackjack_payout" json:"blackjack_payout"`
	MinimumBetMultiplier int     `toml:"minimum_bet_multiplier" json:"minimum_bet_multiplier"`
	FreeDoubles          bool    `toml:"free_doubles" json:"free_doubles"`
	FreeSplits           bool    `toml:"free_splits" json:"free_splits"`
}

// Standard returns the 6-deck, stand-on-soft-17, 3:2 baseline
func Standard() RuleSet {
	return RuleSet{
		Name:                 "Standard",
		Decks:                6,
		DoubleAfterSplit:     true,
		MaxSplitHands:        4,
		SplitAcesOneCardOnly: true,
		BlackjackPayout:      StandardPayout,
		MinimumBetMultiplier: 1,
	}
}

// Clone returns a deep copy of the rule set
func (r RuleSet) Clone() RuleSet {
	r.DoubleOn = slices.Clone(r.DoubleOn)
	return r
}

// CanDoubleOn reports whether the rules allow doubling on the given total
func (r RuleSet) CanDoubleOn(total int) bool {
	return len(r.DoubleOn) == 0 || slices.Contains(r.DoubleOn, total)
}

// Validate checks that the rule parameters are playable
func (r RuleSet) Validate() error {
	var errs []error
	if r.Decks < 1 || r.Decks > 8 {
		errs = append(errs, fmt.Errorf("decks %d outside 1..8", r.Decks))
	}
	if r.BlackjackPayout <= 0 {
		errs = append(errs, fmt.Errorf("blackjack payout %.2f must be positive", r.BlackjackPayout))
	}
	if r.MaxSplitHands < 1 {
		errs = append(errs, fmt.Errorf("max split hands %d must be at least 1", r.MaxSplitHands))
	}
	if r.MinimumBetMultiplier < 1 {
		errs = append(errs, fmt.Errorf("minimum bet multiplier %d must be at least 1", r.MinimumBetMultiplier))
	}
	if r.EarlySurrender && !r.SurrenderAllowed {
		errs = append(errs, errors.New("early surrender requires surrender"))
	}
	for _, total := range r.DoubleOn {
		if total < 4 || total > 21 {
			errs = append(errs, fmt.Errorf("double total %d outside 4..21", total))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("rules %q: %w", r.Name, errors.Join(errs...))
	}
	return nil
}

// deckEdge is the edge adjustment in percentage points by deck count,
// relative to a six-deck shoe.
var deckEdge = [...]float64{0, -0.48, -0.19, -0.10, -0.06, -0.03, 0, 0.01, 0.02}

// ApproximateHouseEdge estimates the house advantage as a fraction (0.005 is
// half a percent). It is a display and validation heuristic built from
// additive rule adjustments on a 0.5% baseline, not an exact model.
func (r RuleSet) ApproximateHouseEdge() float64 {
	edge := 0.50

	if r.Decks >= 1 && r.Decks < len(deckEdge) {
		edge += deckEdge[r.Decks]
	}
	if r.DealerHitsSoft17 {
		edge += 0.20
	}
	if len(r.DoubleOn) > 0 {
		if r.CanDoubleOn(9) {
			edge += 0.09
		} else {
			edge += 0.18
		}
	}
	if !r.DoubleAfterSplit {
		edge += 0.14
	}
	switch {
	case r.MaxSplitHands <= 1:
		edge += 0.50
	case r.MaxSplitHands == 2:
		edge += 0.04
	case r.MaxSplitHands == 3:
		edge += 0.01
	}
	if r.ResplitAces {
		edge -= 0.08
	}
	if !r.SplitAcesOneCardOnly {
		edge -= 0.19
	}
	if r.SurrenderAllowed {
		if r.EarlySurrender {
			edge -= 0.24
		} else {
			edge -= 0.08
		}
	}
	edge += (StandardPayout - r.BlackjackPayout) * 4.6
	if r.FreeDoubles {
		edge -= 0.50
	}
	if r.FreeSplits {
		edge -= 0.30
	}
	return edge / 100
}

// PayoutLabel renders the blackjack payout as a ratio such as "3:2"
func (r RuleSet) PayoutLabel() string {
	switch r.BlackjackPayout {
	case StandardPayout:
		return "3:2"
	case SixToFivePayout:
		return "6:5"
	case 1:
		return "1:1"
	case 2:
		return "2:1"
	}
	return fmt.Sprintf("%.2f:1", r.BlackjackPayout)
}

// Summary returns a compact one-line description of the rules
func (r RuleSet) Summary() string {
	parts := []string{fmt.Sprintf("%d deck", r.Decks)}
	if r.Decks > 1 {
		parts[0] += "s"
	}
	if r.DealerHitsSoft17 {
		parts = append(parts, "H17")
	} else {
		parts = append(parts, "S17")
	}
	parts = append(parts, "BJ "+r.PayoutLabel())
	if len(r.DoubleOn) > 0 {
		totals := make([]string, len(r.DoubleOn))
		for i, t := range r.DoubleOn {
			totals[i] = fmt.Sprint(t)
		}
		parts = append(parts, "double "+strings.Join(totals, "/"))
	}
	if r.DoubleAfterSplit {
		parts = append(parts, "DAS")
	}
	parts = append(parts, fmt.Sprintf("split to %d", r.MaxSplitHands))
	if r.ResplitAces {
		parts = append(parts, "RSA")
	}
	if r.SurrenderAllowed {
		if r.EarlySurrender {
			parts = append(parts, "early surrender")
		} else {
			parts = append(parts, "surrender")
		}
	}
	if r.FreeDoubles {
		parts = append(parts, "free doubles")
	}
	if r.FreeSplits {
		parts = append(parts, "free splits")
	}
	if r.MinimumBetMultiplier > 1 {
		parts = append(parts, fmt.Sprintf("%dx min bet", r.MinimumBetMultiplier))
	}
	return strings.Join(parts, ", ")
}
