package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// Styles contains styling for terminal output
type Styles struct {
	Title     lipgloss.Style
	Prompt    lipgloss.Style
	Info      lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style
	Hidden    lipgloss.Style
	Chips     lipgloss.Style
	Active    lipgloss.Style
}

func newStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFEAA7")).Bold(true),
		RedCard:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		BlackCard: lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Bold(true),
		Hidden:    lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Chips:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		Active:    lipgloss.NewStyle().Foreground(lipgloss.Color("#74B9FF")).Bold(true),
	}
}

func (s Styles) card(c deck.Card) string {
	if c.IsRed() {
		return s.RedCard.Render(c.String())
	}
	return s.BlackCard.Render(c.String())
}

func (s Styles) cards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = s.card(c)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// dealer renders the dealer hand, showing a placeholder for the hole card
// while it is face down
func (s Styles) dealer(h game.Hand, hidden bool) string {
	if h.Len() == 0 {
		return "[]"
	}
	cards := s.cards(h.Cards())
	if hidden {
		return strings.TrimSuffix(cards, "]") + " " + s.Hidden.Render("??") + "]"
	}
	return fmt.Sprintf("%s %s", cards, h.Describe())
}

func (s Styles) chips(n int) string {
	return s.Chips.Render(fmt.Sprintf("$%d", n))
}

func (s Styles) net(n int) string {
	switch {
	case n > 0:
		return s.Success.Render(fmt.Sprintf("+$%d", n))
	case n < 0:
		return s.Error.Render(fmt.Sprintf("-$%d", -n))
	}
	return s.Info.Render("$0")
}

func (s Styles) outcome(o game.Outcome) string {
	label := strings.ToUpper(o.String())
	switch {
	case o.IsWin():
		return s.Success.Render(label)
	case o == game.OutcomePush:
		return s.Warning.Render(label)
	}
	return s.Error.Render(label)
}
