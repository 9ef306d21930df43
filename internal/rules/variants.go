package rules

import (
	rand "math/rand/v2"
)

// WildcardPool returns the curated rule variants the wildcard dealer draws
// from. Every entry pays 3:2, has no promotional doubles or splits, and sits
// in the 0.4%-0.8% house edge band.
func WildcardPool() []RuleSet {
	return []RuleSet{
		{
			Name:                 "Atlantic City",
			Decks:                8,
			DoubleAfterSplit:     true,
			MaxSplitHands:        4,
			SplitAcesOneCardOnly: true,
			SurrenderAllowed:     true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Downtown Double Deck",
			Decks:                2,
			DealerHitsSoft17:     true,
			DoubleAfterSplit:     true,
			MaxSplitHands:        4,
			SplitAcesOneCardOnly: true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Strip Shoe",
			Decks:                6,
			DealerHitsSoft17:     true,
			DoubleAfterSplit:     true,
			MaxSplitHands:        4,
			SplitAcesOneCardOnly: true,
			SurrenderAllowed:     true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Reno Rules",
			Decks:                6,
			DoubleOn:             []int{10, 11},
			DoubleAfterSplit:     true,
			MaxSplitHands:        4,
			SplitAcesOneCardOnly: true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Euro Style",
			Decks:                6,
			MaxSplitHands:        2,
			SplitAcesOneCardOnly: true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Single Deck Squeeze",
			Decks:                1,
			DealerHitsSoft17:     true,
			DoubleOn:             []int{10, 11},
			MaxSplitHands:        2,
			SplitAcesOneCardOnly: true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Resplit Riviera",
			Decks:                4,
			DealerHitsSoft17:     true,
			DoubleAfterSplit:     true,
			MaxSplitHands:        4,
			ResplitAces:          true,
			SplitAcesOneCardOnly: true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
		{
			Name:                 "Macau Mix",
			Decks:                8,
			MaxSplitHands:        4,
			SplitAcesOneCardOnly: true,
			SurrenderAllowed:     true,
			EarlySurrender:       true,
			BlackjackPayout:      StandardPayout,
			MinimumBetMultiplier: 1,
		},
	}
}

// VariantGenerator picks rule sets for the wildcard dealer. It never returns
// the same variant twice in a row while the pool has more than one entry.
type VariantGenerator struct {
	pool []RuleSet
	last string
	rng  *rand.Rand
}

// NewVariantGenerator creates a generator over the given pool, or over
// WildcardPool when none is given.
func NewVariantGenerator(rng *rand.Rand, pool ...RuleSet) *VariantGenerator {
	if rng == nil {
		panic("rng is required for variant generation")
	}
	if len(pool) == 0 {
		pool = WildcardPool()
	}
	return &VariantGenerator{pool: pool, rng: rng}
}

// Generate returns a random variant other than the previous one
func (g *VariantGenerator) Generate() RuleSet {
	candidates := make([]int, 0, len(g.pool))
	for i, r := range g.pool {
		if r.Name != g.last {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		for i := range g.pool {
			candidates = append(candidates, i)
		}
	}

	chosen := g.pool[candidates[g.rng.IntN(len(candidates))]]
	g.last = chosen.Name
	return chosen.Clone()
}

// Last returns the name of the most recently generated variant
func (g *VariantGenerator) Last() string {
	return g.last
}

// SetLast records a variant as the previous choice, used when resuming a
// session whose wildcard rules were restored from a snapshot.
func (g *VariantGenerator) SetLast(name string) {
	g.last = name
}

// Pool returns a copy of the variants the generator draws from
func (g *VariantGenerator) Pool() []RuleSet {
	out := make([]RuleSet, len(g.pool))
	for i, r := range g.pool {
		out[i] = r.Clone()
	}
	return out
}
