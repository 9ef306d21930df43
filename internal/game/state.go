package game

import "fmt"

// GameState is a phase of the round lifecycle
type GameState int

const (
	Betting GameState = iota
	Dealing
	PlayerTurn
	DealerTurn
	Result
	GameOver
)

var stateNames = [...]string{
	Betting:    "betting",
	Dealing:    "dealing",
	PlayerTurn: "player_turn",
	DealerTurn: "dealer_turn",
	Result:     "result",
	GameOver:   "game_over",
}

// String returns the string representation of a state
func (s GameState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// MarshalText encodes the state by name
func (s GameState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(stateNames) {
		return nil, fmt.Errorf("game: unknown state %d", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *GameState) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = GameState(i)
			return nil
		}
	}
	return fmt.Errorf("game: unknown state %q", text)
}

// Action represents a player decision during the player turn
type Action int

const (
	Hit Action = iota
	Stand
	Double
	Split
	Surrender
)

// String returns the string representation of an action
func (a Action) String() string {
	switch a {
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	case Double:
		return "double"
	case Split:
		return "split"
	case Surrender:
		return "surrender"
	default:
		return "unknown"
	}
}

// ParseAction parses an action name or its one-letter shorthand
func ParseAction(s string) (Action, error) {
	switch s {
	case "hit", "h":
		return Hit, nil
	case "stand", "s":
		return Stand, nil
	case "double", "d":
		return Double, nil
	case "split", "p":
		return Split, nil
	case "surrender", "r":
		return Surrender, nil
	}
	return 0, fmt.Errorf("game: unknown action %q", s)
}

// Outcome is the settled result of one player hand
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomePush      Outcome = "push"
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeSurrender Outcome = "surrender"
	OutcomeBust      Outcome = "bust"
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	return string(o)
}

// IsWin returns true if the outcome paid the player
func (o Outcome) IsWin() bool {
	return o == OutcomeWin || o == OutcomeBlackjack
}
