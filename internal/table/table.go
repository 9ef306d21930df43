// Package table seats a player at a dealer's table. It owns the shoe, the
// round controller and, for the wildcard dealer, the rule rotation.
package table

import (
	"fmt"
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/rules"
	"github.com/lox/blackjack/internal/shoe"
)

const (
	// minReserve is the fewest undealt cards a round may start with
	minReserve = 15

	// cardsPerHand bounds what one hand draws, with the dealer counted as a hand
	cardsPerHand = 6
)

// reserve is how many undealt cards a round under rs may need. Every
// round starts with at least this many, so a high penetration setting or a
// single-deck shoe cannot run dry mid-round.
func reserve(rs rules.RuleSet) int {
	return max(minReserve, cardsPerHand*(rs.MaxSplitHands+1))
}

// Table wires a dealer's rules, a shoe and a controller together
type Table struct {
	dealer      rules.Dealer
	shoe        *shoe.Shoe
	ctrl        *game.Controller
	generator   *rules.VariantGenerator
	rng         *rand.Rand
	penetration float64
	clock       quartz.Clock
	logger      *log.Logger
	shuffles    int
}

// Option configures a Table during creation
type Option func(*config)

type config struct {
	rng         *rand.Rand
	penetration float64
	pool        []rules.RuleSet
	clock       quartz.Clock
	logger      *log.Logger
	gameOpts    []game.Option
}

// WithRand sets the source used for shuffles and wildcard draws
func WithRand(rng *rand.Rand) Option {
	return func(c *config) { c.rng = rng }
}

// WithSeed is WithRand over a deterministic source. Zero means random.
func WithSeed(seed int64) Option {
	return func(c *config) { c.rng = randutil.NewSeeded(seed) }
}

// WithPenetration sets the shoe reshuffle threshold
func WithPenetration(p float64) Option {
	return func(c *config) { c.penetration = p }
}

// WithVariantPool replaces the wildcard pool
func WithVariantPool(pool ...rules.RuleSet) Option {
	return func(c *config) { c.pool = pool }
}

// WithClock sets the clock for the table and its controller
func WithClock(clock quartz.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithLogger sets the logger for the table and its controller
func WithLogger(logger *log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithGameOptions passes options through to the controller
func WithGameOptions(opts ...game.Option) Option {
	return func(c *config) { c.gameOpts = append(c.gameOpts, opts...) }
}

// New seats a player at the dealer's table with a freshly shuffled shoe
func New(d rules.Dealer, opts ...Option) (*Table, error) {
	cfg := &config{
		penetration: shoe.DefaultPenetration,
		clock:       quartz.NewReal(),
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.rng == nil {
		cfg.rng = randutil.NewSeeded(0)
	}

	t := &Table{
		dealer:      d,
		rng:         cfg.rng,
		penetration: cfg.penetration,
		clock:       cfg.clock,
		logger:      cfg.logger.WithPrefix("table"),
	}

	rs := d.Rules
	if d.Wildcard {
		t.generator = rules.NewVariantGenerator(cfg.rng, cfg.pool...)
		rs = t.generator.Generate()
	}

	s, err := t.newShoe(rs.Decks)
	if err != nil {
		return nil, err
	}
	t.shoe = s

	gameOpts := append([]game.Option{
		game.WithClock(cfg.clock),
		game.WithLogger(cfg.logger.WithPrefix("game")),
		game.WithDealerName(d.Title),
	}, cfg.gameOpts...)

	ctrl, err := game.New(rs, s, gameOpts...)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	t.ctrl = ctrl

	t.logger.Debug("Table opened", "dealer", d.ID, "rules", rs.Name, "decks", rs.Decks)
	return t, nil
}

// Controller returns the round controller
func (t *Table) Controller() *game.Controller { return t.ctrl }

// Dealer returns the dealer this table was opened with
func (t *Table) Dealer() rules.Dealer { return t.dealer }

// Rules returns the rules currently in force
func (t *Table) Rules() rules.RuleSet { return t.ctrl.Rules() }

// Shoe returns the shoe currently in use
func (t *Table) Shoe() *shoe.Shoe { return t.shoe }

// Shuffles returns how many times the shoe has been reshuffled
func (t *Table) Shuffles() int { return t.shuffles }

// NextHand finishes a settled round and returns to betting. When the shoe
// has passed its reshuffle point it is shuffled, or for the wildcard dealer
// replaced along with a new draw from the variant pool.
func (t *Table) NextHand() error {
	switch t.ctrl.State() {
	case game.GameOver:
		return game.ErrGameOver
	case game.Betting:
	default:
		t.ctrl.NextHand()
	}
	return t.ready()
}

// PlaceBet clears a settled round if there is one, makes sure the shoe can
// cover a full round and stakes the bet. Callers that deal through the
// table never see game.ErrShoeExhausted.
func (t *Table) PlaceBet(amount int) error {
	if t.ctrl.State() == game.Result {
		t.ctrl.NextHand()
	}
	if t.ctrl.State() == game.Betting {
		if err := t.ready(); err != nil {
			return err
		}
	}
	return t.ctrl.PlaceBet(amount)
}

// ResetBankroll replaces the bankroll between rounds and returns to
// betting with a shoe ready for the next round
func (t *Table) ResetBankroll(amount int) error {
	if err := t.ctrl.ResetBankroll(amount); err != nil {
		return err
	}
	return t.ready()
}

// ready reshuffles when the shoe is past its threshold or too short for
// another round under the current rules
func (t *Table) ready() error {
	if !t.shoe.NeedsReshuffle() && t.shoe.CardsRemaining() >= reserve(t.ctrl.Rules()) {
		return nil
	}
	return t.reshuffle()
}

func (t *Table) reshuffle() error {
	t.shuffles++
	if t.generator == nil {
		t.logger.Debug("Reshuffling", "dealt", t.shoe.CardsDealt(), "total", t.shoe.TotalCards())
		t.shoe.Shuffle()
		t.ctrl.Publish(game.NewShoeShuffledEvent(t.shoe.Decks(), t.shoe.Threshold(), t.clock.Now()))
		return nil
	}

	rs := t.generator.Generate()
	s, err := t.newShoe(rs.Decks)
	if err != nil {
		return err
	}
	if err := t.ctrl.SetRules(rs, s); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	t.shoe = s

	now := t.clock.Now()
	t.logger.Info("Wildcard rules", "rules", rs.Name, "edge", fmt.Sprintf("%.2f%%", rs.ApproximateHouseEdge()*100))
	t.ctrl.Publish(game.NewRulesChangedEvent(rs, now))
	t.ctrl.Publish(game.NewShoeShuffledEvent(s.Decks(), s.Threshold(), now))
	return nil
}

// Restore resumes a saved session. It must be called between rounds. The
// shoe is rebuilt when the saved rules use a different deck count.
func (t *Table) Restore(snap game.Snapshot) error {
	switch t.ctrl.State() {
	case game.Betting, game.Result, game.GameOver:
	default:
		return fmt.Errorf("table: cannot restore during %s", t.ctrl.State())
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	if snap.Rules.Decks != t.shoe.Decks() {
		s, err := t.newShoe(snap.Rules.Decks)
		if err != nil {
			return err
		}
		t.ctrl.SetCardSource(s)
		t.shoe = s
	}
	if t.generator != nil {
		t.generator.SetLast(snap.Rules.Name)
	}
	return t.ctrl.Restore(snap)
}

func (t *Table) newShoe(decks int) (*shoe.Shoe, error) {
	s, err := shoe.New(decks, shoe.WithPenetration(t.penetration), shoe.WithRand(t.rng))
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return s, nil
}
