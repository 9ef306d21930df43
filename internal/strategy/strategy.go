// Package strategy implements multi-deck basic strategy for blackjack and a
// player that plays a seat at a table with it.
package strategy

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// Chart codes, one per dealer upcard 2..A:
//
//	H hit, S stand
//	D double, else hit
//	d double, else stand
//	R surrender, else hit
//	P split
var (
	hardChart = [...]string{
		9:  "HDDDDHHHHH",
		10: "DDDDDDDDHH",
		11: "DDDDDDDDDH",
		12: "HHSSSHHHHH",
		13: "SSSSSHHHHH",
		14: "SSSSSHHHHH",
		15: "SSSSSHHHRH",
		16: "SSSSSHHRRR",
	}

	softChart = [...]string{
		12: "HHHHHHHHHH",
		13: "HHHDDHHHHH",
		14: "HHHDDHHHHH",
		15: "HHDDDHHHHH",
		16: "HHDDDHHHHH",
		17: "HDDDDHHHHH",
		18: "SddddSSHHH",
	}

	// Indexed by the pair card's blackjack value. Fives are played as hard
	// ten and tens are never split.
	pairChart = [...]string{
		2:  "PPPPPPHHHH",
		3:  "PPPPPPHHHH",
		4:  "HHHPPHHHHH",
		6:  "PPPPPHHHHH",
		7:  "PPPPPPHHHH",
		8:  "PPPPPPPPPP",
		9:  "PPPPPSPPSS",
		11: "PPPPPPPPPP",
	}
)

// Decision is an action with a short explanation
type Decision struct {
	Action    game.Action
	Reasoning string
}

// Advise returns the basic strategy play for a hand against the dealer
// upcard, limited to the legal actions. When the chart's preferred play is
// not allowed it falls back the way the chart intends (double to hit or
// stand, surrender to hit), then to stand.
func Advise(h game.Hand, upcard deck.Card, legal []game.Action) Decision {
	col := upcard.Value() - 2
	label := upcardLabel(upcard)

	if h.CanSplit() && slices.Contains(legal, game.Split) {
		v := h.Cards()[0].Value()
		if v < len(pairChart) && pairChart[v] != "" && pairChart[v][col] == 'P' {
			return Decision{Action: game.Split, Reasoning: fmt.Sprintf("split %ss vs %s", h.Cards()[0].Rank, label)}
		}
	}

	total, soft := h.Total(), h.IsSoft()
	var code byte
	var kind string
	switch {
	case total >= 19:
		code, kind = 'S', "hard"
		if soft {
			kind = "soft"
		}
	case soft && total >= 12:
		code, kind = softChart[total][col], "soft"
	case total >= 17:
		code, kind = 'S', "hard"
	case total <= 8:
		code, kind = 'H', "hard"
	default:
		code, kind = hardChart[total][col], "hard"
	}

	action := resolve(code, legal)
	return Decision{Action: action, Reasoning: fmt.Sprintf("%s %d vs %s: %s", kind, total, label, action)}
}

func resolve(code byte, legal []game.Action) game.Action {
	var prefs []game.Action
	switch code {
	case 'H':
		prefs = []game.Action{game.Hit}
	case 'S':
		prefs = []game.Action{game.Stand}
	case 'D':
		prefs = []game.Action{game.Double, game.Hit}
	case 'd':
		prefs = []game.Action{game.Double, game.Stand}
	case 'R':
		prefs = []game.Action{game.Surrender, game.Hit}
	}
	prefs = append(prefs, game.Stand)
	for _, a := range prefs {
		if slices.Contains(legal, a) {
			return a
		}
	}
	if len(legal) > 0 {
		return legal[0]
	}
	return game.Stand
}

func upcardLabel(c deck.Card) string {
	switch {
	case c.IsAce():
		return "A"
	case c.IsTenValue():
		return "T"
	default:
		return c.Rank.String()
	}
}

// Player plays flat bets with basic strategy
type Player struct {
	bet    int
	logger *log.Logger
}

// NewPlayer creates a player betting the given amount each round. A nil
// logger discards output.
func NewPlayer(bet int, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Player{bet: bet, logger: logger}
}

// Seat is where a Player bets. table.Table implements it, keeping the shoe
// ready between rounds.
type Seat interface {
	Controller() *game.Controller
	PlaceBet(amount int) error
}

// PlayRound bets and plays one round to settlement. The bet is raised to
// the table minimum and capped at the bankroll. It returns game.ErrGameOver
// once the bankroll is exhausted.
func (p *Player) PlayRound(seat Seat) (game.RoundSummary, error) {
	c := seat.Controller()
	bet := max(p.bet, c.MinimumBet())
	bet = min(bet, c.Bankroll())
	if err := seat.PlaceBet(bet); err != nil {
		return game.RoundSummary{}, err
	}

	for c.State() == game.PlayerTurn {
		h, _ := c.ActiveHand()
		up, _ := c.DealerUpcard()
		d := Advise(h.Hand, up, c.AvailableActions())
		p.logger.Debug("Decision", "round", c.RoundID(), "hand", c.ActiveHandIndex(), "action", d.Action, "reason", d.Reasoning)
		c.Apply(d.Action)
	}

	summary, _ := c.LastRound()
	return summary, nil
}
