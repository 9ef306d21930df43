package game

import (
	"slices"
	"time"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/rules"
)

// EventType represents a game event type with type safety
type EventType string

// EventType constants for game domain events
const (
	EventTypeRoundStarted   EventType = "round_started"
	EventTypeCardDealt      EventType = "card_dealt"
	EventTypePlayerActed    EventType = "player_acted"
	EventTypeDealerRevealed EventType = "dealer_revealed"
	EventTypeHandSettled    EventType = "hand_settled"
	EventTypeRoundCompleted EventType = "round_completed"
	EventTypeBankrupt       EventType = "bankrupt"
	EventTypeBankrollReset  EventType = "bankroll_reset"
	EventTypeShoeShuffled   EventType = "shoe_shuffled"
	EventTypeRulesChanged   EventType = "rules_changed"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is anything the engine reports after a state transition
type Event interface {
	EventType() EventType
	Timestamp() time.Time
}

// Recipient identifies who a dealt card went to
type Recipient string

const (
	RecipientPlayer Recipient = "player"
	RecipientDealer Recipient = "dealer"
)

// RoundStartedEvent is published when a bet is accepted
type RoundStartedEvent struct {
	RoundID  string `json:"round_id"`
	Dealer   string `json:"dealer"`
	Bet      int    `json:"bet"`
	Bankroll int    `json:"bankroll"`
	at       time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.at }

// CardDealtEvent is published for every card leaving the shoe. Face-down
// cards carry no card value.
type CardDealtEvent struct {
	RoundID   string     `json:"round_id"`
	Recipient Recipient  `json:"recipient"`
	HandIndex int        `json:"hand_index"`
	Card      *deck.Card `json:"card,omitempty"`
	FaceDown  bool       `json:"face_down"`
	at        time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.at }

// PlayerActedEvent is published after a player action is applied
type PlayerActedEvent struct {
	RoundID   string `json:"round_id"`
	HandIndex int    `json:"hand_index"`
	Action    string `json:"action"`
	Total     int    `json:"total"`
	Bankroll  int    `json:"bankroll"`
	at        time.Time
}

func (e PlayerActedEvent) EventType() EventType { return EventTypePlayerActed }
func (e PlayerActedEvent) Timestamp() time.Time { return e.at }

// DealerRevealedEvent is published when the hole card is turned over
type DealerRevealedEvent struct {
	RoundID  string      `json:"round_id"`
	HoleCard deck.Card   `json:"hole_card"`
	Cards    []deck.Card `json:"cards"`
	Total    int         `json:"total"`
	at       time.Time
}

func (e DealerRevealedEvent) EventType() EventType { return EventTypeDealerRevealed }
func (e DealerRevealedEvent) Timestamp() time.Time { return e.at }

// HandSettledEvent carries the settlement of one player hand
type HandSettledEvent struct {
	Settlement Settlement `json:"settlement"`
	at         time.Time
}

func (e HandSettledEvent) EventType() EventType { return EventTypeHandSettled }
func (e HandSettledEvent) Timestamp() time.Time { return e.at }

// RoundCompletedEvent carries the summary of a finished round
type RoundCompletedEvent struct {
	Summary RoundSummary `json:"summary"`
	at      time.Time
}

func (e RoundCompletedEvent) EventType() EventType { return EventTypeRoundCompleted }
func (e RoundCompletedEvent) Timestamp() time.Time { return e.at }

// BankruptEvent is published when the bankroll can no longer cover the
// minimum bet
type BankruptEvent struct {
	Bankroll   int `json:"bankroll"`
	MinimumBet int `json:"minimum_bet"`
	at         time.Time
}

func (e BankruptEvent) EventType() EventType { return EventTypeBankrupt }
func (e BankruptEvent) Timestamp() time.Time { return e.at }

// BankrollResetEvent is published when the bankroll is replenished
type BankrollResetEvent struct {
	Previous int `json:"previous"`
	Bankroll int `json:"bankroll"`
	at       time.Time
}

func (e BankrollResetEvent) EventType() EventType { return EventTypeBankrollReset }
func (e BankrollResetEvent) Timestamp() time.Time { return e.at }

// ShoeShuffledEvent is published by the table when the shoe is reshuffled
type ShoeShuffledEvent struct {
	Decks       int     `json:"decks"`
	Penetration float64 `json:"penetration"`
	at          time.Time
}

func (e ShoeShuffledEvent) EventType() EventType { return EventTypeShoeShuffled }
func (e ShoeShuffledEvent) Timestamp() time.Time { return e.at }

// NewShoeShuffledEvent creates a shoe shuffled event
func NewShoeShuffledEvent(decks int, penetration float64, at time.Time) ShoeShuffledEvent {
	return ShoeShuffledEvent{Decks: decks, Penetration: penetration, at: at}
}

// RulesChangedEvent is published by the table when new rules take effect
type RulesChangedEvent struct {
	Rules rules.RuleSet `json:"rules"`
	Edge  float64       `json:"house_edge"`
	at    time.Time
}

func (e RulesChangedEvent) EventType() EventType { return EventTypeRulesChanged }
func (e RulesChangedEvent) Timestamp() time.Time { return e.at }

// NewRulesChangedEvent creates a rules changed event
func NewRulesChangedEvent(r rules.RuleSet, at time.Time) RulesChangedEvent {
	return RulesChangedEvent{Rules: r.Clone(), Edge: r.ApproximateHouseEdge(), at: at}
}

// Observer receives game events
type Observer interface {
	OnEvent(event Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(Event)

// OnEvent calls f(event)
func (f ObserverFunc) OnEvent(event Event) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Publish(event Event)
}

// SimpleEventBus is a synchronous in-memory event bus. Observers run on the
// publishing goroutine in subscription order.
type SimpleEventBus struct {
	observers []Observer
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds an observer
func (bus *SimpleEventBus) Subscribe(observer Observer) {
	bus.observers = append(bus.observers, observer)
}

// Unsubscribe removes an observer. Function observers are not comparable
// and cannot be unsubscribed.
func (bus *SimpleEventBus) Unsubscribe(observer Observer) {
	if _, ok := observer.(ObserverFunc); ok {
		return
	}
	for i, o := range bus.observers {
		if _, ok := o.(ObserverFunc); ok {
			continue
		}
		if o == observer {
			bus.observers = slices.Delete(bus.observers, i, i+1)
			return
		}
	}
}

// Publish sends an event to all observers
func (bus *SimpleEventBus) Publish(event Event) {
	for _, o := range bus.observers {
		o.OnEvent(event)
	}
}

// Recorder is an Observer that keeps every event it sees
type Recorder struct {
	Events []Event
}

// OnEvent records the event
func (r *Recorder) OnEvent(event Event) {
	r.Events = append(r.Events, event)
}

// OfType returns the recorded events of the given type in order
func (r *Recorder) OfType(t EventType) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
