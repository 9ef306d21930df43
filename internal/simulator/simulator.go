// Package simulator plays automated blackjack sessions with basic strategy
// and flat bets, to measure a dealer's rules empirically.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/stats"
	"github.com/lox/blackjack/internal/strategy"
	"github.com/lox/blackjack/internal/table"
)

// Config holds configuration for running simulations
type Config struct {
	Dealer      rules.Dealer
	Rounds      int // Rounds per session
	Sessions    int // Independent sessions run in parallel
	Bet         int
	Bankroll    int
	Penetration float64
	Seed        int64
	Logger      *log.Logger
}

// Simulator runs blackjack sessions
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration, filling in
// defaults for unset fields
func New(config Config) *Simulator {
	if config.Sessions <= 0 {
		config.Sessions = 1
	}
	if config.Bet <= 0 {
		config.Bet = game.DefaultMinimumBet
	}
	if config.Bankroll <= 0 {
		config.Bankroll = game.DefaultBankroll
	}
	if config.Logger == nil {
		config.Logger = log.New(io.Discard)
	}
	return &Simulator{config: config}
}

// Run plays every session and returns their merged statistics. Sessions
// are seeded from Config.Seed so a run is reproducible whatever the
// scheduling.
func (s *Simulator) Run(ctx context.Context) (*stats.Statistics, error) {
	results := make([]*stats.Statistics, s.config.Sessions)

	g, ctx := errgroup.WithContext(ctx)
	for i := range s.config.Sessions {
		seed := s.config.Seed
		if seed != 0 {
			seed = randutil.Derive(seed, i)
		}
		g.Go(func() error {
			st, err := s.runSession(ctx, i, seed)
			if err != nil {
				return fmt.Errorf("session %d: %w", i+1, err)
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &stats.Statistics{}
	for _, st := range results {
		merged.Merge(st)
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return merged, nil
}

// runSession plays one table to the configured round count. A bankrupt
// session is restaked with the starting bankroll and carries on.
func (s *Simulator) runSession(ctx context.Context, index int, seed int64) (*stats.Statistics, error) {
	logger := s.config.Logger.With("session", index+1)
	opts := []table.Option{
		table.WithSeed(seed),
		table.WithLogger(logger),
		table.WithGameOptions(game.WithBankroll(s.config.Bankroll)),
	}
	if s.config.Penetration > 0 {
		opts = append(opts, table.WithPenetration(s.config.Penetration))
	}
	tbl, err := table.New(s.config.Dealer, opts...)
	if err != nil {
		return nil, err
	}

	c := tbl.Controller()
	player := strategy.NewPlayer(s.config.Bet, logger)
	st := &stats.Statistics{}

	for range s.config.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		summary, err := player.PlayRound(tbl)
		if errors.Is(err, game.ErrGameOver) {
			logger.Debug("Bankrupt, restaking", "bankroll", c.Bankroll())
			if err := tbl.ResetBankroll(s.config.Bankroll); err != nil {
				return nil, err
			}
			summary, err = player.PlayRound(tbl)
		}
		if err != nil {
			return nil, err
		}
		st.Add(summary)
	}

	logger.Debug("Session complete", "rounds", st.Rounds, "net", st.SumNet)
	return st, nil
}

// PrintSummary prints a report of simulation results
func PrintSummary(w io.Writer, st *stats.Statistics, dealer rules.Dealer, rs rules.RuleSet) {
	low, high := st.ConfidenceInterval95()
	pct := func(n int) float64 {
		if st.Hands == 0 {
			return 0
		}
		return float64(n) / float64(st.Hands) * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== RESULTS vs %s ===\n", dealer.Title)
	fmt.Fprintf(&b, "Rules: %s\n", rs.Summary())
	fmt.Fprintf(&b, "Rounds played: %d (%d hands)\n", st.Rounds, st.Hands)

	fmt.Fprintf(&b, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(&b, "Mean: %.4f chips/round\n", st.Mean())
	fmt.Fprintf(&b, "Median: %.4f chips/round\n", st.Median())
	fmt.Fprintf(&b, "Std Dev: %.4f chips\n", st.StdDev())
	fmt.Fprintf(&b, "Std Error: %.4f chips\n", st.StdError())
	fmt.Fprintf(&b, "95%% CI: [%.4f, %.4f] chips/round\n", low, high)
	fmt.Fprintf(&b, "Return on wager: %+.3f%%", st.ReturnOnWager()*100)
	if !dealer.Wildcard {
		fmt.Fprintf(&b, " (heuristic edge %.3f%%)", rs.ApproximateHouseEdge()*100)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "\n=== OUTCOMES ===\n")
	fmt.Fprintf(&b, "Wins: %d (%.1f%%)  Blackjacks: %d (%.1f%%)\n", st.Wins, pct(st.Wins), st.Blackjacks, pct(st.Blackjacks))
	fmt.Fprintf(&b, "Losses: %d (%.1f%%)  Busts: %d (%.1f%%)\n", st.Losses, pct(st.Losses), st.Busts, pct(st.Busts))
	fmt.Fprintf(&b, "Pushes: %d (%.1f%%)  Surrenders: %d (%.1f%%)\n", st.Pushes, pct(st.Pushes), st.Surrenders, pct(st.Surrenders))
	fmt.Fprintf(&b, "Doubles: %d  Split rounds: %d  Bankruptcies: %d\n", st.Doubles, st.SplitRounds, st.Bankruptcies)

	_, _ = io.WriteString(w, b.String())
}
