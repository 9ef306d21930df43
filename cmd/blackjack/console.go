package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/storage"
	"github.com/lox/blackjack/internal/strategy"
	"github.com/lox/blackjack/internal/table"
)

// Command represents a console command
type Command struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
	Handler     func(args []string) (bool, error) // bool indicates if the session should continue
}

// console turns typed commands into table operations and prints the
// results. It is independent of the terminal so it can be driven in tests.
type console struct {
	table        *table.Table
	out          io.Writer
	styles       Styles
	snapshotFile string
	commands     map[string]*Command
	lastBet      int
}

func newConsole(t *table.Table, out io.Writer, styles Styles, snapshotFile string) *console {
	c := &console{
		table:        t,
		out:          out,
		styles:       styles,
		snapshotFile: snapshotFile,
	}
	c.initCommands()
	t.Controller().Subscribe(c)
	return c
}

func (c *console) initCommands() {
	commands := []*Command{
		{Name: "bet", Aliases: []string{"b"}, Usage: "bet [amount]", Description: "Place a bet and deal (repeats the last bet)", Handler: c.handleBet},
		{Name: "hit", Aliases: []string{"h"}, Description: "Take another card", Handler: c.action(game.Hit)},
		{Name: "stand", Aliases: []string{"s"}, Description: "Keep your total", Handler: c.action(game.Stand)},
		{Name: "double", Aliases: []string{"d"}, Description: "Double the bet and take one card", Handler: c.action(game.Double)},
		{Name: "split", Aliases: []string{"p"}, Description: "Split a pair into two hands", Handler: c.action(game.Split)},
		{Name: "surrender", Aliases: []string{"r"}, Description: "Give up half the bet", Handler: c.action(game.Surrender)},
		{Name: "hint", Description: "Ask for the basic strategy play", Handler: c.handleHint},
		{Name: "next", Aliases: []string{"n"}, Description: "Clear the table for the next round", Handler: c.handleNext},
		{Name: "reset", Usage: "reset <amount>", Description: "Replenish the bankroll between rounds", Handler: c.handleReset},
		{Name: "status", Aliases: []string{"st"}, Description: "Show the table", Handler: c.handleStatus},
		{Name: "save", Description: "Save the session", Handler: c.handleSave},
		{Name: "help", Aliases: []string{"?"}, Description: "Show available commands", Handler: c.handleHelp},
		{Name: "quit", Aliases: []string{"q", "exit"}, Description: "Save and leave the table", Handler: c.handleQuit},
	}

	c.commands = make(map[string]*Command, len(commands)*2)
	for _, cmd := range commands {
		c.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			c.commands[alias] = cmd
		}
	}
}

// names returns the primary command names for completion
func (c *console) names() []string {
	var names []string
	for key, cmd := range c.commands {
		if key == cmd.Name {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names
}

// Execute runs one line of input. It returns false when the session should
// end.
func (c *console) Execute(line string) (bool, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(line)))
	if len(parts) == 0 {
		return true, nil
	}

	cmd, ok := c.commands[parts[0]]
	if !ok {
		return true, fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}
	return cmd.Handler(parts[1:])
}

// Prompt returns the prompt text for the current state
func (c *console) Prompt() string {
	ctrl := c.table.Controller()
	return fmt.Sprintf("%s $%d %s> ", c.table.Dealer().Title, ctrl.Bankroll(), ctrl.State())
}

// OnEvent implements game.Observer for notices that happen outside a
// command's own output
func (c *console) OnEvent(event game.Event) {
	switch e := event.(type) {
	case game.ShoeShuffledEvent:
		c.println(c.styles.Info.Render(fmt.Sprintf("The dealer shuffles a fresh %d-deck shoe.", e.Decks)))
	case game.RulesChangedEvent:
		c.println(c.styles.Warning.Render(fmt.Sprintf("New rules: %s (edge %.2f%%)", e.Rules.Summary(), e.Edge*100)))
	case game.BankruptEvent:
		c.println(c.styles.Error.Render(fmt.Sprintf("Bankrupt: $%d cannot cover the $%d minimum. Use 'reset <amount>'.", e.Bankroll, e.MinimumBet)))
	}
}

func (c *console) handleBet(args []string) (bool, error) {
	ctrl := c.table.Controller()

	amount := c.lastBet
	if amount == 0 {
		amount = ctrl.MinimumBet()
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return true, fmt.Errorf("invalid amount %q", args[0])
		}
		amount = n
	}

	switch ctrl.State() {
	case game.Betting, game.Result, game.GameOver:
	default:
		return true, errors.New("finish the current round first")
	}

	if err := c.table.PlaceBet(amount); err != nil {
		if errors.Is(err, game.ErrInvalidBet) {
			return true, fmt.Errorf("bet must be between $%d and $%d", ctrl.MinimumBet(), ctrl.MaximumBet())
		}
		return true, err
	}
	c.lastBet = amount
	c.render()
	return true, nil
}

func (c *console) action(a game.Action) func([]string) (bool, error) {
	return func([]string) (bool, error) {
		ctrl := c.table.Controller()
		if !c.allowed(a) {
			if ctrl.State() != game.PlayerTurn {
				return true, fmt.Errorf("cannot %s: no hand in play", a)
			}
			return true, fmt.Errorf("cannot %s now (available: %s)", a, c.available())
		}
		ctrl.Apply(a)
		c.render()
		return true, nil
	}
}

func (c *console) allowed(a game.Action) bool {
	for _, legal := range c.table.Controller().AvailableActions() {
		if legal == a {
			return true
		}
	}
	return false
}

func (c *console) available() string {
	actions := c.table.Controller().AvailableActions()
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.String()
	}
	return strings.Join(names, ", ")
}

func (c *console) handleHint([]string) (bool, error) {
	ctrl := c.table.Controller()
	hand, ok := ctrl.ActiveHand()
	upcard, up := ctrl.DealerUpcard()
	if !ok || !up || ctrl.State() != game.PlayerTurn {
		return true, errors.New("no hand in play")
	}
	d := strategy.Advise(hand.Hand, upcard, ctrl.AvailableActions())
	c.println(c.styles.Info.Render(fmt.Sprintf("Basic strategy: %s (%s)", strings.ToUpper(d.Action.String()), d.Reasoning)))
	return true, nil
}

func (c *console) handleNext([]string) (bool, error) {
	ctrl := c.table.Controller()
	if ctrl.State() == game.PlayerTurn {
		return true, errors.New("finish the current round first")
	}
	if err := c.table.NextHand(); err != nil {
		if errors.Is(err, game.ErrGameOver) {
			return true, errors.New("bankrupt: use 'reset <amount>' to continue")
		}
		return true, err
	}
	c.println(c.styles.Info.Render(fmt.Sprintf("Place your bet ($%d minimum).", ctrl.MinimumBet())))
	return true, nil
}

func (c *console) handleReset(args []string) (bool, error) {
	if len(args) != 1 {
		return true, errors.New("usage: reset <amount>")
	}
	amount, err := strconv.Atoi(args[0])
	if err != nil {
		return true, fmt.Errorf("invalid amount %q", args[0])
	}

	ctrl := c.table.Controller()
	if ctrl.State() == game.PlayerTurn {
		return true, errors.New("finish the current round first")
	}
	if err := c.table.ResetBankroll(amount); err != nil {
		if errors.Is(err, game.ErrInvalidBankroll) {
			return true, fmt.Errorf("bankroll must be at least $%d", ctrl.MinimumBet())
		}
		return true, err
	}
	c.println(c.styles.Success.Render("Bankroll reset to ") + c.styles.chips(ctrl.Bankroll()))
	return true, nil
}

func (c *console) handleStatus([]string) (bool, error) {
	c.render()
	return true, nil
}

func (c *console) handleSave([]string) (bool, error) {
	if err := c.save(); err != nil {
		return true, err
	}
	c.println(c.styles.Info.Render("Session saved to " + c.snapshotFile))
	return true, nil
}

func (c *console) save() error {
	if c.snapshotFile == "" {
		return errors.New("no snapshot file configured")
	}
	return storage.Save(c.snapshotFile, c.table.Controller().Snapshot())
}

func (c *console) handleHelp([]string) (bool, error) {
	for _, name := range c.names() {
		cmd := c.commands[name]
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		if len(cmd.Aliases) > 0 {
			usage += " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		c.println(fmt.Sprintf("  %-28s %s", usage, c.styles.Info.Render(cmd.Description)))
	}
	return true, nil
}

func (c *console) handleQuit([]string) (bool, error) {
	if c.snapshotFile != "" {
		if err := c.save(); err != nil {
			c.println(c.styles.Error.Render("Could not save session: " + err.Error()))
		}
	}
	return false, nil
}

// render prints the table for the current state
func (c *console) render() {
	ctrl := c.table.Controller()
	s := c.styles

	if ctrl.State() == game.Betting {
		c.println(fmt.Sprintf("Bankroll %s. Place your bet ($%d minimum).", s.chips(ctrl.Bankroll()), ctrl.MinimumBet()))
		return
	}
	if ctrl.State() == game.GameOver {
		defer c.println(s.Error.Render("Game over.") + " Use 'reset <amount>' to continue.")
		if len(ctrl.Hands()) == 0 {
			return
		}
	}

	c.println(fmt.Sprintf("Dealer: %s", s.dealer(ctrl.DealerHand(), ctrl.HoleCardHidden())))
	hands := ctrl.Hands()
	for i, h := range hands {
		label := "You"
		if len(hands) > 1 {
			label = fmt.Sprintf("Hand %d", i+1)
		}
		line := fmt.Sprintf("%s: %s %s  bet %s", label, s.cards(h.Cards()), h.Describe(), s.chips(h.Stake()))
		if ctrl.State() == game.PlayerTurn && i == ctrl.ActiveHandIndex() {
			line = s.Active.Render("> ") + line
		} else {
			line = "  " + line
		}
		c.println(line)
	}

	if ctrl.State() == game.PlayerTurn {
		c.println(s.Info.Render("Actions: " + c.available()))
		return
	}

	if summary, ok := ctrl.LastRound(); ok {
		for _, st := range summary.Settlements {
			prefix := ""
			if len(summary.Settlements) > 1 {
				prefix = fmt.Sprintf("Hand %d ", st.HandIndex+1)
			}
			c.println(fmt.Sprintf("%s%s %s", prefix, s.outcome(st.Outcome), s.net(st.Net)))
		}
		c.println(fmt.Sprintf("Round %s. Bankroll %s.", s.net(summary.Net()), s.chips(summary.EndingBankroll)))
	}
}

func (c *console) println(line string) {
	_, _ = fmt.Fprintln(c.out, line)
}
