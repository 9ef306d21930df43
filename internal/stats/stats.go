// Package stats accumulates session results: net chips per round, outcome
// counts and the confidence of the observed return.
package stats

import (
	"fmt"
	"math"
	"slices"

	"github.com/lox/blackjack/internal/game"
)

// Statistics tracks results across rounds. The zero value is ready to use.
type Statistics struct {
	Rounds  int
	Hands   int
	SumNet  float64   // Net chips summed per round
	SumNet2 float64   // Sum of squares for variance calculation
	Values  []float64 // Per-round nets for median/percentile calculation
	Wagered int       // Player-funded stake across all hands

	// Outcome counters, one per settled hand
	Wins       int
	Losses     int
	Pushes     int
	Blackjacks int
	Surrenders int
	Busts      int

	Doubles      int
	SplitRounds  int
	FreeBets     int // House-funded stake across all hands
	Bankruptcies int

	HandNet int // Settlement nets summed per hand, for the ledger check
}

// Add incorporates a settled round
func (s *Statistics) Add(summary game.RoundSummary) {
	net := float64(summary.Net())
	s.Rounds++
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)

	split := false
	for _, h := range summary.Settlements {
		s.Hands++
		s.HandNet += h.Net
		s.Wagered += h.Bet
		s.FreeBets += h.FreeBet
		if h.Doubled {
			s.Doubles++
		}
		if h.Split {
			split = true
		}

		switch h.Outcome {
		case game.OutcomeWin:
			s.Wins++
		case game.OutcomeBlackjack:
			s.Blackjacks++
		case game.OutcomeLoss:
			s.Losses++
		case game.OutcomeBust:
			s.Busts++
		case game.OutcomePush:
			s.Pushes++
		case game.OutcomeSurrender:
			s.Surrenders++
		}
	}
	if split {
		s.SplitRounds++
	}
	if summary.Bankrupt {
		s.Bankruptcies++
	}
}

// Merge folds another session's statistics into s
func (s *Statistics) Merge(o *Statistics) {
	s.Rounds += o.Rounds
	s.Hands += o.Hands
	s.SumNet += o.SumNet
	s.SumNet2 += o.SumNet2
	s.Values = append(s.Values, o.Values...)
	s.Wagered += o.Wagered
	s.Wins += o.Wins
	s.Losses += o.Losses
	s.Pushes += o.Pushes
	s.Blackjacks += o.Blackjacks
	s.Surrenders += o.Surrenders
	s.Busts += o.Busts
	s.Doubles += o.Doubles
	s.SplitRounds += o.SplitRounds
	s.FreeBets += o.FreeBets
	s.Bankruptcies += o.Bankruptcies
	s.HandNet += o.HandNet
}

// Mean returns the average net chips per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance of per-round nets
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of per-round nets
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median per-round net
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the per-round net at p (0.0 to 1.0), interpolating
// between neighbours
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// ReturnOnWager returns the net result as a fraction of the player's
// stake. Its negation estimates the house edge.
func (s *Statistics) ReturnOnWager() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return s.SumNet / float64(s.Wagered)
}

// WinRate returns the fraction of hands that paid the player
func (s *Statistics) WinRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.Wins+s.Blackjacks) / float64(s.Hands)
}

// IsLedgerBalanced checks that per-hand settlements explain per-round nets
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(float64(s.HandNet)-s.SumNet) <= 1e-6
}

// Validate performs consistency checks over the collected data
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: hand nets %d, round nets %.0f", s.HandNet, s.SumNet)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)", len(s.Values), s.Rounds)
	}
	if s.Hands < s.Rounds {
		return fmt.Errorf("hands (%d) fewer than rounds (%d)", s.Hands, s.Rounds)
	}
	outcomes := s.Wins + s.Losses + s.Pushes + s.Blackjacks + s.Surrenders + s.Busts
	if outcomes != s.Hands {
		return fmt.Errorf("outcome total (%d) does not match hands count (%d)", outcomes, s.Hands)
	}
	return nil
}
