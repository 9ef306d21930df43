package rules

import (
	"fmt"
	"slices"
	"strings"
)

// WildcardID is the identifier of the dealer whose rules rotate per shoe
const WildcardID = "wildcard"

// Dealer is a named personality with a fixed rule set, or the wildcard
// dealer whose rules come from a VariantGenerator.
type Dealer struct {
	ID          string
	Title       string
	Description string
	Rules       RuleSet
	Wildcard    bool
}

// Dealers returns the built-in roster in display order
func Dealers() []Dealer {
	return []Dealer{
		{
			ID:          "vegas",
			Title:       "Classic Vegas",
			Description: "Six decks, dealer stands on soft 17, blackjack pays 3:2",
			Rules:       withName(Standard(), "Classic Vegas"),
		},
		{
			ID:          "lucky",
			Title:       "Lucky Lucy",
			Description: "Single deck with free doubles and free splits",
			Rules: RuleSet{
				Name:                 "Lucky Lucy",
				Decks:                1,
				DoubleAfterSplit:     true,
				MaxSplitHands:        4,
				SplitAcesOneCardOnly: true,
				BlackjackPayout:      StandardPayout,
				MinimumBetMultiplier: 1,
				FreeDoubles:          true,
				FreeSplits:           true,
			},
		},
		{
			ID:          "highroller",
			Title:       "High Roller",
			Description: "Eight decks, hits soft 17, 6:5 blackjack, five times the minimum",
			Rules: RuleSet{
				Name:                 "High Roller",
				Decks:                8,
				DealerHitsSoft17:     true,
				DoubleOn:             []int{10, 11},
				MaxSplitHands:        4,
				SplitAcesOneCardOnly: true,
				BlackjackPayout:      SixToFivePayout,
				MinimumBetMultiplier: 5,
			},
		},
		{
			ID:          "mentor",
			Title:       "The Mentor",
			Description: "Two decks with early surrender, good for learning",
			Rules: RuleSet{
				Name:                 "The Mentor",
				Decks:                2,
				DoubleAfterSplit:     true,
				MaxSplitHands:        4,
				SplitAcesOneCardOnly: true,
				SurrenderAllowed:     true,
				EarlySurrender:       true,
				BlackjackPayout:      StandardPayout,
				MinimumBetMultiplier: 1,
			},
		},
		{
			ID:          WildcardID,
			Title:       "Wildcard",
			Description: "New house rules every shoe",
			Wildcard:    true,
		},
	}
}

// Roster is the set of dealers available to a session
type Roster struct {
	dealers []Dealer
}

// NewRoster builds a roster from the built-in dealers plus custom ones.
// Custom dealers must have unique IDs and valid rules.
func NewRoster(custom ...Dealer) (*Roster, error) {
	r := &Roster{dealers: Dealers()}
	for _, d := range custom {
		if d.ID == "" {
			return nil, fmt.Errorf("rules: custom dealer needs an id")
		}
		if _, ok := r.Lookup(d.ID); ok {
			return nil, fmt.Errorf("rules: dealer %q already exists", d.ID)
		}
		if d.Wildcard {
			return nil, fmt.Errorf("rules: custom dealer %q cannot be a wildcard", d.ID)
		}
		if err := d.Rules.Validate(); err != nil {
			return nil, fmt.Errorf("rules: dealer %q: %w", d.ID, err)
		}
		if d.Title == "" {
			d.Title = d.ID
		}
		if d.Rules.Name == "" {
			d.Rules.Name = d.Title
		}
		r.dealers = append(r.dealers, d)
	}
	return r, nil
}

// All returns the dealers in display order
func (r *Roster) All() []Dealer {
	return slices.Clone(r.dealers)
}

// Lookup finds a dealer by ID (case insensitive)
func (r *Roster) Lookup(id string) (Dealer, bool) {
	for _, d := range r.dealers {
		if strings.EqualFold(d.ID, id) {
			return d, true
		}
	}
	return Dealer{}, false
}

// IDs returns the dealer identifiers in display order
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.dealers))
	for i, d := range r.dealers {
		ids[i] = d.ID
	}
	return ids
}

// LookupDealer finds a built-in dealer by ID
func LookupDealer(id string) (Dealer, bool) {
	r := &Roster{dealers: Dealers()}
	return r.Lookup(id)
}

func withName(r RuleSet, name string) RuleSet {
	r.Name = name
	return r
}
