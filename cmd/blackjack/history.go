package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lox/blackjack/internal/history"
)

// HistoryCmd is the root command for round journal utilities
type HistoryCmd struct {
	Render HistoryRenderCmd `cmd:"render" help:"Print the rounds in a journal file"`
}

// HistoryRenderCmd prints a journal round by round
type HistoryRenderCmd struct {
	File  string `arg:"" name:"file" help:"Path to a session journal" type:"existingfile"`
	Limit int    `help:"Maximum number of rounds to render (0 = all)"`
}

func (cmd HistoryRenderCmd) Run() error {
	if cmd.File == "" {
		return errors.New("history render requires a file path")
	}

	records, err := history.Load(cmd.File)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no rounds found in %s", cmd.File)
	}

	limit := cmd.Limit
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	renderRecords(os.Stdout, newStyles(), records[:limit])
	return nil
}

func renderRecords(w io.Writer, s Styles, records []history.Record) {
	net := 0
	for _, rec := range records {
		fmt.Fprintf(w, "%s %s %s\n",
			s.Active.Render(fmt.Sprintf("Round %d", rec.Round)),
			rec.Dealer,
			s.Info.Render(rec.StartedAt.Format("2006-01-02 15:04:05")))
		fmt.Fprintf(w, "  Dealer %s (%d)\n", s.cards(rec.DealerCards), rec.DealerTotal)
		for i, h := range rec.Hands {
			var flags []string
			if h.Doubled {
				flags = append(flags, "doubled")
			}
			if h.Split {
				flags = append(flags, "split")
			}
			if h.Surrendered {
				flags = append(flags, "surrendered")
			}
			extra := ""
			if len(flags) > 0 {
				extra = " " + s.Info.Render(strings.Join(flags, ", "))
			}
			fmt.Fprintf(w, "  Hand %d %s (%d) bet $%d %s %s%s\n",
				i+1, s.cards(h.Cards), h.Total, h.Bet, s.outcome(h.Outcome), s.net(h.Net), extra)
		}
		fmt.Fprintf(w, "  Bankroll $%d -> %s\n\n", rec.StartingBankroll, s.chips(rec.EndingBankroll))
		net += rec.Net()
	}
	fmt.Fprintf(w, "%d rounds, net %s\n", len(records), s.net(net))
}
