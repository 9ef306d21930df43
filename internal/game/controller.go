package game

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/rules"
)

var (
	// ErrInvalidBet is returned by PlaceBet for amounts outside the table
	// minimum and the bankroll. State and bankroll are left untouched.
	ErrInvalidBet = errors.New("invalid bet")

	// ErrGameOver is returned by PlaceBet once the bankroll has fallen below
	// the minimum bet. ResetBankroll is the only way back.
	ErrGameOver = errors.New("game over")

	// ErrInvalidBankroll is returned by ResetBankroll for amounts that could
	// not cover a single minimum bet
	ErrInvalidBankroll = errors.New("invalid bankroll")

	// ErrIllegalAction is wrapped in the panic raised when an action is
	// invoked while its capability predicate is false
	ErrIllegalAction = errors.New("illegal action")

	// ErrShoeExhausted is wrapped in the panic raised when the card source
	// runs dry mid-round, which means the reshuffle policy is broken
	ErrShoeExhausted = errors.New("shoe exhausted")
)

// CardSource deals cards to the controller. *shoe.Shoe satisfies it.
type CardSource interface {
	Deal() (deck.Card, bool)
}

// Controller is the round state machine. It owns the bankroll, the current
// wager, the player hands and the dealer hand, and moves through
// betting → dealing → player turn → dealer turn → result.
//
// Every method completes its transition synchronously before returning;
// events are published afterwards. A Controller is not safe for concurrent
// use.
type Controller struct {
	rules       rules.RuleSet
	source      CardSource
	dealerName  string
	baseMinimum int

	state      GameState
	bankroll   int
	currentBet int
	hands      []*PlayerHand
	active     int
	dealer     Hand
	holeHidden bool

	roundID          string
	startedAt        time.Time
	startingBankroll int
	last             *RoundSummary

	bus     EventBus
	pending []Event
	clock   quartz.Clock
	logger  *log.Logger
	newID   func() string
}

// New creates a controller in the betting state
func New(rs rules.RuleSet, source CardSource, opts ...Option) (*Controller, error) {
	if source == nil {
		return nil, errors.New("game: card source is required")
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("game: %w", err)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.minimumBet <= 0 {
		return nil, fmt.Errorf("game: minimum bet %d must be positive", cfg.minimumBet)
	}
	if cfg.bankroll < 0 {
		return nil, fmt.Errorf("game: bankroll %d must not be negative", cfg.bankroll)
	}
	if cfg.bus == nil {
		cfg.bus = NewEventBus()
	}
	for _, o := range cfg.observers {
		cfg.bus.Subscribe(o)
	}
	if cfg.dealerName == "" {
		cfg.dealerName = rs.Name
	}

	c := &Controller{
		rules:       rs.Clone(),
		source:      source,
		dealerName:  cfg.dealerName,
		baseMinimum: cfg.minimumBet,
		state:       Betting,
		bankroll:    cfg.bankroll,
		bus:         cfg.bus,
		clock:       cfg.clock,
		logger:      cfg.logger,
		newID:       cfg.newID,
	}
	if c.bankroll < c.MinimumBet() {
		c.state = GameOver
	}
	return c, nil
}

// State returns the current lifecycle phase
func (c *Controller) State() GameState { return c.state }

// Bankroll returns the chips not currently at risk
func (c *Controller) Bankroll() int { return c.bankroll }

// CurrentBet returns the player-funded stake across all hands this round
func (c *Controller) CurrentBet() int { return c.currentBet }

// Rules returns the rule set in force
func (c *Controller) Rules() rules.RuleSet { return c.rules.Clone() }

// DealerName returns the dealer recorded on settlements
func (c *Controller) DealerName() string { return c.dealerName }

// RoundID returns the identifier of the round in progress or just settled
func (c *Controller) RoundID() string { return c.roundID }

// Bus returns the event bus the controller publishes on
func (c *Controller) Bus() EventBus { return c.bus }

// Subscribe registers an observer for future events
func (c *Controller) Subscribe(o Observer) { c.bus.Subscribe(o) }

// Now returns the controller's clock reading
func (c *Controller) Now() time.Time { return c.clock.Now() }

// MinimumBet returns the table minimum after the rule multiplier
func (c *Controller) MinimumBet() int {
	return c.baseMinimum * c.rules.MinimumBetMultiplier
}

// MaximumBet returns the largest acceptable opening bet
func (c *Controller) MaximumBet() int { return c.bankroll }

// Hands returns copies of the player hands in play order
func (c *Controller) Hands() []PlayerHand {
	out := make([]PlayerHand, len(c.hands))
	for i, h := range c.hands {
		out[i] = h.Clone()
	}
	return out
}

// ActiveHandIndex returns the index of the hand being played
func (c *Controller) ActiveHandIndex() int { return c.active }

// ActiveHand returns the hand awaiting a decision, if any
func (c *Controller) ActiveHand() (PlayerHand, bool) {
	h := c.activeHand()
	if h == nil {
		return PlayerHand{}, false
	}
	return h.Clone(), true
}

// DealerHand returns the dealer cards visible to the player. While the hole
// card is face down only the upcard is included.
func (c *Controller) DealerHand() Hand {
	if c.holeHidden && c.dealer.Len() > 0 {
		return NewHand(c.dealer.cards[0])
	}
	return c.dealer.Clone()
}

// DealerUpcard returns the dealer's face-up card
func (c *Controller) DealerUpcard() (deck.Card, bool) {
	if c.dealer.Len() == 0 {
		return deck.Card{}, false
	}
	return c.dealer.cards[0], true
}

// HoleCardHidden reports whether the dealer's second card is face down
func (c *Controller) HoleCardHidden() bool { return c.holeHidden }

// LastRound returns the summary of the most recently settled round
func (c *Controller) LastRound() (RoundSummary, bool) {
	if c.last == nil {
		return RoundSummary{}, false
	}
	return *c.last, true
}

// CanPlaceBet reports whether PlaceBet(amount) would be accepted
func (c *Controller) CanPlaceBet(amount int) bool {
	return c.state == Betting && amount >= c.MinimumBet() && amount <= c.bankroll
}

// PlaceBet stakes amount and deals the opening cards: player, dealer up,
// player, dealer hole. A natural on either side settles the round at once;
// otherwise the controller enters the player turn.
func (c *Controller) PlaceBet(amount int) error {
	switch c.state {
	case GameOver:
		return ErrGameOver
	case Betting:
	default:
		c.illegal("place bet during %s", c.state)
	}
	if amount < c.MinimumBet() || amount > c.bankroll {
		c.logger.Debug("Bet rejected", "bet", amount, "min", c.MinimumBet(), "bankroll", c.bankroll)
		return fmt.Errorf("%w: %d outside %d..%d", ErrInvalidBet, amount, c.MinimumBet(), c.bankroll)
	}

	c.startingBankroll = c.bankroll
	c.bankroll -= amount
	c.currentBet = amount
	c.roundID = c.newID()
	c.startedAt = c.clock.Now()
	c.last = nil
	c.hands = []*PlayerHand{{Bet: amount}}
	c.active = 0
	c.dealer = Hand{}
	c.holeHidden = false
	c.state = Dealing

	c.logger.Debug("Bet placed", "round", c.roundID, "bet", amount, "bankroll", c.bankroll)
	c.emit(RoundStartedEvent{RoundID: c.roundID, Dealer: c.dealerName, Bet: amount, Bankroll: c.bankroll, at: c.startedAt})

	c.dealPlayer(0)
	c.dealDealer(false)
	c.dealPlayer(0)
	c.dealDealer(true)

	if c.hands[0].IsNatural() || c.dealer.IsBlackjack() {
		c.hands[0].Resolved = true
		c.revealHole()
		c.finishRound()
	} else {
		c.state = PlayerTurn
	}
	c.flush()
	return nil
}

// activeHand returns the hand awaiting a decision or nil
func (c *Controller) activeHand() *PlayerHand {
	if c.state != PlayerTurn || c.active < 0 || c.active >= len(c.hands) {
		return nil
	}
	h := c.hands[c.active]
	if h.Resolved {
		return nil
	}
	return h
}

// lockedAces reports a split-ace hand that may not take further cards
func (c *Controller) lockedAces(h *PlayerHand) bool {
	return h.SplitAces && c.rules.SplitAcesOneCardOnly
}

// CanHit reports whether the active hand may draw
func (c *Controller) CanHit() bool {
	h := c.activeHand()
	return h != nil && !c.lockedAces(h)
}

// CanStand reports whether there is an active hand to stand on
func (c *Controller) CanStand() bool {
	return c.activeHand() != nil
}

// CanDouble reports whether the active hand may double down
func (c *Controller) CanDouble() bool {
	h := c.activeHand()
	if h == nil || c.lockedAces(h) || !h.CanDouble() {
		return false
	}
	if !c.rules.CanDoubleOn(h.Total()) {
		return false
	}
	if h.FromSplit && !c.rules.DoubleAfterSplit {
		return false
	}
	return c.rules.FreeDoubles || c.bankroll >= h.Stake()
}

// CanSplit reports whether the active hand may be split
func (c *Controller) CanSplit() bool {
	h := c.activeHand()
	if h == nil || !h.Hand.CanSplit() {
		return false
	}
	if len(c.hands) >= c.rules.MaxSplitHands {
		return false
	}
	if h.SplitAces && !c.rules.ResplitAces {
		return false
	}
	return c.rules.FreeSplits || c.bankroll >= h.Stake()
}

// CanSurrender reports whether the opening hand may be surrendered
func (c *Controller) CanSurrender() bool {
	h := c.activeHand()
	return h != nil && c.rules.SurrenderAllowed && len(c.hands) == 1 && !h.FromSplit && h.Len() == 2
}

// AvailableActions lists the actions legal right now
func (c *Controller) AvailableActions() []Action {
	var actions []Action
	if c.CanHit() {
		actions = append(actions, Hit)
	}
	if c.CanStand() {
		actions = append(actions, Stand)
	}
	if c.CanDouble() {
		actions = append(actions, Double)
	}
	if c.CanSplit() {
		actions = append(actions, Split)
	}
	if c.CanSurrender() {
		actions = append(actions, Surrender)
	}
	return actions
}

// Apply dispatches an action to the matching method
func (c *Controller) Apply(a Action) {
	switch a {
	case Hit:
		c.Hit()
	case Stand:
		c.Stand()
	case Double:
		c.DoubleDown()
	case Split:
		c.Split()
	case Surrender:
		c.Surrender()
	default:
		c.illegal("unknown action %d", a)
	}
}

// Hit draws a card to the active hand. A bust or a total of 21 ends the
// hand.
func (c *Controller) Hit() {
	if !c.CanHit() {
		c.illegal("hit")
	}
	h := c.hands[c.active]
	c.dealPlayer(c.active)
	c.acted(Hit, h)
	if h.Total() >= 21 {
		h.Resolved = true
		c.advance()
	}
	c.flush()
}

// Stand ends the active hand
func (c *Controller) Stand() {
	if !c.CanStand() {
		c.illegal("stand")
	}
	h := c.hands[c.active]
	h.Resolved = true
	c.acted(Stand, h)
	c.advance()
	c.flush()
}

// DoubleDown matches the hand's stake, draws exactly one card and ends the
// hand whatever the new total.
func (c *Controller) DoubleDown() {
	if !c.CanDouble() {
		c.illegal("double down")
	}
	h := c.hands[c.active]
	stake := h.Stake()
	if c.rules.FreeDoubles {
		h.FreeBet += stake
	} else {
		h.Bet += stake
		c.bankroll -= stake
		c.currentBet += stake
	}
	h.Doubled = true
	c.dealPlayer(c.active)
	h.Resolved = true
	c.acted(Double, h)
	c.advance()
	c.flush()
}

// Split turns the active pair into two hands and deals a second card to
// each. With one-card split aces both ace hands end at once unless a new
// pair of aces may be resplit.
func (c *Controller) Split() {
	if !c.CanSplit() {
		c.illegal("split")
	}
	h := c.hands[c.active]
	stake := h.Stake()
	aces := h.IsPairOfAces()
	cards := h.Cards()

	h.Hand = NewHand(cards[0])
	h.FromSplit = true
	h.SplitAces = aces

	second := &PlayerHand{Hand: NewHand(cards[1]), FromSplit: true, SplitAces: aces}
	if c.rules.FreeSplits {
		second.FreeBet = stake
	} else {
		second.Bet = stake
		c.bankroll -= stake
		c.currentBet += stake
	}
	c.hands = slices.Insert(c.hands, c.active+1, second)

	c.dealPlayer(c.active)
	c.dealPlayer(c.active + 1)
	c.resolveAfterSplit(h)
	c.resolveAfterSplit(second)
	c.acted(Split, h)

	if h.Resolved {
		c.advance()
	}
	c.flush()
}

func (c *Controller) resolveAfterSplit(h *PlayerHand) {
	if c.lockedAces(h) {
		resplittable := h.IsPairOfAces() && c.rules.ResplitAces && len(c.hands) < c.rules.MaxSplitHands
		if !resplittable {
			h.Resolved = true
		}
		return
	}
	if h.Total() == 21 {
		h.Resolved = true
	}
}

// Surrender gives up the opening hand for half the stake back
func (c *Controller) Surrender() {
	if !c.CanSurrender() {
		c.illegal("surrender")
	}
	h := c.hands[c.active]
	c.bankroll += surrenderRefund(h.Bet)
	h.Surrendered = true
	h.Resolved = true
	c.acted(Surrender, h)
	c.advance()
	c.flush()
}

// advance moves to the first unresolved hand, or to the dealer turn when
// every hand is resolved
func (c *Controller) advance() {
	for i, h := range c.hands {
		if !h.Resolved {
			c.active = i
			return
		}
	}
	c.playDealer()
}

// playDealer reveals the hole card and draws to 17, hitting soft 17 when
// the rules say so. With no live player hand the dealer does not draw.
func (c *Controller) playDealer() {
	c.state = DealerTurn
	c.revealHole()

	live := slices.ContainsFunc(c.hands, func(h *PlayerHand) bool {
		return !h.Surrendered && !h.IsBust()
	})
	if live {
		for {
			total, soft := c.dealer.evaluate()
			if total > 17 || (total == 17 && !(soft && c.rules.DealerHitsSoft17)) {
				break
			}
			c.dealDealer(false)
		}
	}
	c.logger.Debug("Dealer stands", "round", c.roundID, "dealer", c.dealer.String())
	c.finishRound()
}

// finishRound settles every hand, records the round summary and moves to
// result, or to game over when the bankroll can no longer cover a bet.
func (c *Controller) finishRound() {
	now := c.clock.Now()
	dealerCards := c.dealer.Cards()
	settlements := make([]Settlement, 0, len(c.hands))

	for i, h := range c.hands {
		outcome, credit, net := settleHand(*h, c.dealer, c.rules.BlackjackPayout)
		c.bankroll += credit
		s := Settlement{
			RoundID:     c.roundID,
			HandIndex:   i,
			Outcome:     outcome,
			Bet:         h.Bet,
			FreeBet:     h.FreeBet,
			Net:         net,
			Bankroll:    c.bankroll,
			Dealer:      c.dealerName,
			Split:       h.FromSplit,
			Doubled:     h.Doubled,
			Surrendered: h.Surrendered,
			Cards:       h.Cards(),
			DealerCards: slices.Clone(dealerCards),
			PlayerTotal: h.Total(),
			DealerTotal: c.dealer.Total(),
		}
		settlements = append(settlements, s)
		c.emit(HandSettledEvent{Settlement: s, at: now})
	}

	bankrupt := c.bankroll < c.MinimumBet()
	summary := RoundSummary{
		RoundID:          c.roundID,
		Dealer:           c.dealerName,
		Rules:            c.rules.Name,
		StartedAt:        c.startedAt,
		EndedAt:          now,
		Duration:         now.Sub(c.startedAt),
		StartingBankroll: c.startingBankroll,
		EndingBankroll:   c.bankroll,
		Bankrupt:         bankrupt,
		Settlements:      settlements,
	}
	c.last = &summary
	c.state = Result
	c.emit(RoundCompletedEvent{Summary: summary, at: now})

	if bankrupt {
		c.state = GameOver
		c.emit(BankruptEvent{Bankroll: c.bankroll, MinimumBet: c.MinimumBet(), at: now})
		c.logger.Info("Bankroll exhausted", "bankroll", c.bankroll, "min", c.MinimumBet())
	}
	c.logger.Debug("Round settled", "round", c.roundID, "net", summary.Net(), "bankroll", c.bankroll)
}

// NextHand clears the settled round and returns to betting
func (c *Controller) NextHand() {
	if c.state != Result {
		c.illegal("next hand during %s", c.state)
	}
	c.clearRound()
	c.state = Betting
}

// ResetBankroll replaces the bankroll between rounds and returns to betting.
// It is the only way out of game over.
func (c *Controller) ResetBankroll(amount int) error {
	switch c.state {
	case Betting, Result, GameOver:
	default:
		c.illegal("reset bankroll during %s", c.state)
	}
	if amount < c.MinimumBet() {
		return fmt.Errorf("%w: %d below minimum bet %d", ErrInvalidBankroll, amount, c.MinimumBet())
	}
	previous := c.bankroll
	c.clearRound()
	c.bankroll = amount
	c.state = Betting
	c.emit(BankrollResetEvent{Previous: previous, Bankroll: amount, at: c.clock.Now()})
	c.logger.Info("Bankroll reset", "previous", previous, "bankroll", amount)
	c.flush()
	return nil
}

// SetRules swaps the rule set between rounds. A non-nil source replaces
// the card source as well. Raising the minimum above the bankroll ends the
// game.
func (c *Controller) SetRules(rs rules.RuleSet, source CardSource) error {
	if c.state != Betting && c.state != Result && c.state != GameOver {
		c.illegal("change rules during %s", c.state)
	}
	if err := rs.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	c.rules = rs.Clone()
	if source != nil {
		c.source = source
	}
	if c.state == Betting && c.bankroll < c.MinimumBet() {
		c.state = GameOver
		c.emit(BankruptEvent{Bankroll: c.bankroll, MinimumBet: c.MinimumBet(), at: c.clock.Now()})
	}
	c.flush()
	return nil
}

// SetCardSource replaces the card source between rounds
func (c *Controller) SetCardSource(source CardSource) {
	if source == nil {
		panic("game: card source is required")
	}
	if c.state != Betting && c.state != Result && c.state != GameOver {
		c.illegal("replace card source during %s", c.state)
	}
	c.source = source
}

// Publish sends an event on the controller's bus. It lets the composition
// root report table-level events through the same observers.
func (c *Controller) Publish(e Event) {
	c.bus.Publish(e)
}

func (c *Controller) clearRound() {
	c.hands = nil
	c.active = 0
	c.dealer = Hand{}
	c.holeHidden = false
	c.currentBet = 0
}

func (c *Controller) draw() deck.Card {
	card, ok := c.source.Deal()
	if !ok {
		panic(fmt.Errorf("%w: round %s", ErrShoeExhausted, c.roundID))
	}
	return card
}

func (c *Controller) dealPlayer(i int) {
	card := c.draw()
	c.hands[i].Add(card)
	c.emit(CardDealtEvent{RoundID: c.roundID, Recipient: RecipientPlayer, HandIndex: i, Card: &card, at: c.clock.Now()})
}

func (c *Controller) dealDealer(faceDown bool) {
	card := c.draw()
	c.dealer.Add(card)
	ev := CardDealtEvent{RoundID: c.roundID, Recipient: RecipientDealer, FaceDown: faceDown, at: c.clock.Now()}
	if faceDown {
		c.holeHidden = true
	} else {
		ev.Card = &card
	}
	c.emit(ev)
}

func (c *Controller) revealHole() {
	if !c.holeHidden {
		return
	}
	c.holeHidden = false
	c.emit(DealerRevealedEvent{
		RoundID:  c.roundID,
		HoleCard: c.dealer.cards[1],
		Cards:    c.dealer.Cards(),
		Total:    c.dealer.Total(),
		at:       c.clock.Now(),
	})
}

func (c *Controller) acted(a Action, h *PlayerHand) {
	c.logger.Debug("Player action", "round", c.roundID, "hand", c.active, "action", a, "total", h.Total())
	c.emit(PlayerActedEvent{
		RoundID:   c.roundID,
		HandIndex: slices.Index(c.hands, h),
		Action:    a.String(),
		Total:     h.Total(),
		Bankroll:  c.bankroll,
		at:        c.clock.Now(),
	})
}

func (c *Controller) emit(e Event) {
	c.pending = append(c.pending, e)
}

// flush publishes queued events once the transition is complete
func (c *Controller) flush() {
	events := c.pending
	c.pending = nil
	for _, e := range events {
		c.bus.Publish(e)
	}
}

func (c *Controller) illegal(format string, args ...any) {
	panic(fmt.Errorf("%w: %s (state %s)", ErrIllegalAction, fmt.Sprintf(format, args...), c.state))
}
