// Package game implements the blackjack round engine for a single player
// against the house.
//
// The main type is Controller, which owns the bankroll and the hands of one
// round and moves through betting, dealing, the player turn, the dealer turn
// and settlement.
//
// # Basic Usage
//
// Create a controller over a shoe and play a hand:
//
//	s := shoe.MustNew(6, shoe.WithRand(randutil.New(42)))
//	c, err := game.New(rules.Standard(), s, game.WithBankroll(500))
//	if err != nil {
//	    return err
//	}
//	if err := c.PlaceBet(25); err != nil {
//	    return err
//	}
//	for c.State() == game.PlayerTurn {
//	    c.Stand()
//	}
//	summary, _ := c.LastRound()
//
// Actions whose capability predicate (CanHit, CanDouble, ...) is false
// panic with an error wrapping ErrIllegalAction. Callers that take input
// from users check AvailableActions first.
//
// # Deterministic Testing
//
// Any CardSource can feed the controller. Tests usually stack a shoe:
//
//	s := shoe.MustNew(1, shoe.WithRand(randutil.New(1)))
//	s.Force(deck.MustParseCards("Th 6c 9s 7d")...)
//
// Cards are dealt player, dealer up, player, dealer hole, then in the order
// the round asks for them. A quartz mock clock passed through WithClock
// fixes event timestamps and round durations.
//
// # Events
//
// Every transition queues events which are published on the EventBus once
// the transition is complete, so observers always see a settled controller.
package game
