package game

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/roundid"
)

const (
	// DefaultBankroll is the starting bankroll when none is configured
	DefaultBankroll = 1000
	// DefaultMinimumBet is the table minimum before the rule multiplier
	DefaultMinimumBet = 10
)

// Option configures a Controller during creation
type Option func(*controllerConfig)

type controllerConfig struct {
	bankroll   int
	minimumBet int
	dealerName string
	bus        EventBus
	observers  []Observer
	clock      quartz.Clock
	logger     *log.Logger
	newID      func() string
}

func defaultConfig() *controllerConfig {
	return &controllerConfig{
		bankroll:   DefaultBankroll,
		minimumBet: DefaultMinimumBet,
		clock:      quartz.NewReal(),
		logger:     log.New(io.Discard),
		newID:      roundid.New,
	}
}

// WithBankroll sets the starting bankroll. Default is 1000.
func WithBankroll(amount int) Option {
	return func(c *controllerConfig) { c.bankroll = amount }
}

// WithMinimumBet sets the base table minimum. The effective minimum is this
// value times the rule set's minimum bet multiplier. Default is 10.
func WithMinimumBet(amount int) Option {
	return func(c *controllerConfig) { c.minimumBet = amount }
}

// WithDealerName sets the dealer name recorded on settlements
func WithDealerName(name string) Option {
	return func(c *controllerConfig) { c.dealerName = name }
}

// WithEventBus publishes events on a shared bus instead of a private one
func WithEventBus(bus EventBus) Option {
	return func(c *controllerConfig) { c.bus = bus }
}

// WithObserver subscribes an observer to the controller's events
func WithObserver(o Observer) Option {
	return func(c *controllerConfig) { c.observers = append(c.observers, o) }
}

// WithClock sets the clock used for round timing and event timestamps
func WithClock(clock quartz.Clock) Option {
	return func(c *controllerConfig) { c.clock = clock }
}

// WithLogger sets the logger. By default the controller logs nowhere.
func WithLogger(logger *log.Logger) Option {
	return func(c *controllerConfig) { c.logger = logger }
}

// WithRoundIDs sets the function that names new rounds
func WithRoundIDs(newID func() string) Option {
	return func(c *controllerConfig) { c.newID = newID }
}
