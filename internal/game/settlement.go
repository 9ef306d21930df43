package game

import (
	"math"
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// Settlement is the final accounting for one player hand
type Settlement struct {
	RoundID     string      `json:"round_id" toml:"round_id"`
	HandIndex   int         `json:"hand_index" toml:"hand_index"`
	Outcome     Outcome     `json:"outcome" toml:"outcome"`
	Bet         int         `json:"bet" toml:"bet"`
	FreeBet     int         `json:"free_bet,omitempty" toml:"free_bet,omitempty"`
	Net         int         `json:"net" toml:"net"`
	Bankroll    int         `json:"bankroll" toml:"bankroll"`
	Dealer      string      `json:"dealer" toml:"dealer"`
	Split       bool        `json:"split" toml:"split"`
	Doubled     bool        `json:"doubled" toml:"doubled"`
	Surrendered bool        `json:"surrendered" toml:"surrendered"`
	Cards       []deck.Card `json:"cards" toml:"cards"`
	DealerCards []deck.Card `json:"dealer_cards" toml:"dealer_cards"`
	PlayerTotal int         `json:"player_total" toml:"player_total"`
	DealerTotal int         `json:"dealer_total" toml:"dealer_total"`
}

// RoundSummary collects the facts of a finished round
type RoundSummary struct {
	RoundID          string        `json:"round_id" toml:"round_id"`
	Dealer           string        `json:"dealer" toml:"dealer"`
	Rules            string        `json:"rules" toml:"rules"`
	StartedAt        time.Time     `json:"started_at" toml:"started_at"`
	EndedAt          time.Time     `json:"ended_at" toml:"ended_at"`
	Duration         time.Duration `json:"duration" toml:"duration"`
	StartingBankroll int           `json:"starting_bankroll" toml:"starting_bankroll"`
	EndingBankroll   int           `json:"ending_bankroll" toml:"ending_bankroll"`
	Bankrupt         bool          `json:"bankrupt" toml:"bankrupt"`
	Settlements      []Settlement  `json:"settlements" toml:"settlements"`
}

// Net returns the bankroll change over the round
func (s RoundSummary) Net() int {
	return s.EndingBankroll - s.StartingBankroll
}

// blackjackBonus returns the winnings on a natural, rounded down to whole
// chips.
func blackjackBonus(bet int, payout float64) int {
	return int(math.Floor(float64(bet) * payout))
}

// surrenderRefund returns the half stake handed back on surrender, rounded
// down to whole chips.
func surrenderRefund(bet int) int {
	return bet / 2
}

// settleHand decides a single hand against the final dealer hand. It returns
// the outcome, the amount to credit to the bankroll now, and the net result
// relative to the player's own stake. Surrender refunds and all stakes were
// already moved when the actions happened.
func settleHand(h PlayerHand, dealer Hand, payout float64) (outcome Outcome, credit, net int) {
	dealerNatural := dealer.IsBlackjack()
	switch {
	case h.Surrendered:
		return OutcomeSurrender, 0, surrenderRefund(h.Bet) - h.Bet
	case h.IsNatural() && dealerNatural:
		return OutcomePush, h.Bet, 0
	case h.IsNatural():
		bonus := blackjackBonus(h.Bet, payout)
		return OutcomeBlackjack, h.Bet + bonus, bonus
	case dealerNatural:
		return OutcomeLoss, 0, -h.Bet
	case h.IsBust():
		return OutcomeBust, 0, -h.Bet
	}

	player, house := h.Total(), dealer.Total()
	switch {
	case house > 21 || player > house:
		// Free stakes pay winnings but are never returned
		return OutcomeWin, 2*h.Bet + h.FreeBet, h.Bet + h.FreeBet
	case player < house:
		return OutcomeLoss, 0, -h.Bet
	default:
		return OutcomePush, h.Bet, 0
	}
}
