package history

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

// Record is one journal entry
type Record struct {
	Round            int          `toml:"round"`
	RoundID          string       `toml:"round_id"`
	Dealer           string       `toml:"dealer"`
	Rules            string       `toml:"rules"`
	StartedAt        time.Time    `toml:"started_at"`
	DurationMS       int64        `toml:"duration_ms"`
	StartingBankroll int          `toml:"starting_bankroll"`
	EndingBankroll   int          `toml:"ending_bankroll"`
	Bankrupt         bool         `toml:"bankrupt,omitempty"`
	DealerCards      []deck.Card  `toml:"dealer_cards"`
	DealerTotal      int          `toml:"dealer_total"`
	Hands            []HandRecord `toml:"hands"`
}

// HandRecord is the settled result of one player hand within a Record
type HandRecord struct {
	Outcome     game.Outcome `toml:"outcome"`
	Bet         int          `toml:"bet"`
	FreeBet     int          `toml:"free_bet,omitempty"`
	Net         int          `toml:"net"`
	Cards       []deck.Card  `toml:"cards"`
	Total       int          `toml:"total"`
	Split       bool         `toml:"split,omitempty"`
	Doubled     bool         `toml:"doubled,omitempty"`
	Surrendered bool         `toml:"surrendered,omitempty"`
}

// NewRecord converts a round summary into a journal record. The round number
// is assigned when the record is written.
func NewRecord(s game.RoundSummary) Record {
	rec := Record{
		RoundID:          s.RoundID,
		Dealer:           s.Dealer,
		Rules:            s.Rules,
		StartedAt:        s.StartedAt.UTC(),
		DurationMS:       s.Duration.Milliseconds(),
		StartingBankroll: s.StartingBankroll,
		EndingBankroll:   s.EndingBankroll,
		Bankrupt:         s.Bankrupt,
		Hands:            make([]HandRecord, 0, len(s.Settlements)),
	}
	for _, st := range s.Settlements {
		if rec.DealerCards == nil {
			rec.DealerCards = append([]deck.Card(nil), st.DealerCards...)
			rec.DealerTotal = st.DealerTotal
		}
		rec.Hands = append(rec.Hands, HandRecord{
			Outcome:     st.Outcome,
			Bet:         st.Bet,
			FreeBet:     st.FreeBet,
			Net:         st.Net,
			Cards:       append([]deck.Card(nil), st.Cards...),
			Total:       st.PlayerTotal,
			Split:       st.Split,
			Doubled:     st.Doubled,
			Surrendered: st.Surrendered,
		})
	}
	return rec
}

// Net returns the bankroll change over the round
func (r Record) Net() int {
	return r.EndingBankroll - r.StartingBankroll
}

// Duration returns how long the round took
func (r Record) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}

// Decode reads journal sections ordered by round number
func Decode(r io.Reader) ([]Record, error) {
	sections := make(map[string]Record)
	if _, err := toml.NewDecoder(r).Decode(&sections); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}

	keys := make([]string, 0, len(sections))
	for k := range sections {
		if _, ok := sectionNumber(k); !ok {
			return nil, fmt.Errorf("decode journal: unexpected section %q", k)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := sectionNumber(keys[i])
		b, _ := sectionNumber(keys[j])
		return a < b
	})

	records := make([]Record, 0, len(keys))
	for _, k := range keys {
		rec := sections[k]
		if rec.Round == 0 {
			rec.Round, _ = sectionNumber(k)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load reads a journal file
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load journal %s: %w", path, err)
	}
	return records, nil
}
