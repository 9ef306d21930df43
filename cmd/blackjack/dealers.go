package main

import (
	"fmt"
	"io"
	"os"

	"github.com/lox/blackjack/internal/rules"
)

// DealersCmd lists the roster
type DealersCmd struct{}

func (cmd *DealersCmd) Run(globals *Globals) error {
	_, roster, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	printDealers(os.Stdout, newStyles(), roster.All())
	return nil
}

func printDealers(w io.Writer, styles Styles, dealers []rules.Dealer) {
	for _, d := range dealers {
		fmt.Fprintf(w, "%s %s\n", styles.Active.Render(fmt.Sprintf("%-12s", d.ID)), styles.Prompt.Render(d.Title))
		if d.Description != "" {
			fmt.Fprintf(w, "  %s\n", d.Description)
		}
		if d.Wildcard {
			fmt.Fprintf(w, "  %s\n\n", styles.Info.Render("Rules change with every shoe"))
			continue
		}
		fmt.Fprintf(w, "  %s\n", styles.Info.Render(d.Rules.Summary()))
		edge := d.Rules.ApproximateHouseEdge() * 100
		label := fmt.Sprintf("House edge ~%.2f%%", edge)
		if edge < 0 {
			fmt.Fprintf(w, "  %s\n\n", styles.Success.Render(label+" (player advantage)"))
		} else {
			fmt.Fprintf(w, "  %s\n\n", styles.Warning.Render(label))
		}
	}
}
