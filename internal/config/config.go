// Package config loads blackjack session settings and custom dealers from
// HCL files.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjack/internal/rules"
)

const (
	DefaultBankroll     = 1000
	DefaultMinimumBet   = 10
	DefaultPenetration  = 0.75
	DefaultDealer       = "vegas"
	DefaultHistoryDir   = "history"
	DefaultSnapshotFile = "blackjack.snapshot.toml"
)

// Config represents a complete configuration file
type Config struct {
	Session *SessionSettings `hcl:"session,block"`
	Dealers []DealerConfig   `hcl:"dealer,block"`
}

// SessionSettings controls a play session
type SessionSettings struct {
	Bankroll     int     `hcl:"bankroll,optional"`
	MinimumBet   int     `hcl:"minimum_bet,optional"`
	Penetration  float64 `hcl:"penetration,optional"`
	Seed         int64   `hcl:"seed,optional"`
	Dealer       string  `hcl:"dealer,optional"`
	HistoryDir   string  `hcl:"history_dir,optional"`
	SnapshotFile string  `hcl:"snapshot_file,optional"`
}

// DealerConfig defines a custom dealer
type DealerConfig struct {
	ID                   string  `hcl:"id,label"`
	Title                string  `hcl:"title,optional"`
	Description          string  `hcl:"description,optional"`
	Decks                int     `hcl:"decks,optional"`
	HitsSoft17           bool    `hcl:"hits_soft_17,optional"`
	DoubleOn             []int   `hcl:"double_on,optional"`
	DoubleAfterSplit     *bool   `hcl:"double_after_split,optional"`
	MaxSplitHands        int     `hcl:"max_split_hands,optional"`
	ResplitAces          bool    `hcl:"resplit_aces,optional"`
	SplitAcesOneCardOnly *bool   `hcl:"split_aces_one_card_only,optional"`
	Surrender            bool    `hcl:"surrender,optional"`
	EarlySurrender       bool    `hcl:"early_surrender,optional"`
	BlackjackPayout      float64 `hcl:"blackjack_payout,optional"`
	MinimumBetMultiplier int     `hcl:"minimum_bet_multiplier,optional"`
	FreeDoubles          bool    `hcl:"free_doubles,optional"`
	FreeSplits           bool    `hcl:"free_splits,optional"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from an HCL file. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}
	return decode(file.Body)
}

// Parse reads configuration from HCL source
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return decode(file.Body)
}

func decode(body hcl.Body) (*Config, error) {
	var config Config
	if diags := gohcl.DecodeBody(body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

// applyDefaults fills values the file left out
func (c *Config) applyDefaults() {
	if c.Session == nil {
		c.Session = &SessionSettings{}
	}
	s := c.Session
	if s.Bankroll == 0 {
		s.Bankroll = DefaultBankroll
	}
	if s.MinimumBet == 0 {
		s.MinimumBet = DefaultMinimumBet
	}
	if s.Penetration == 0 {
		s.Penetration = DefaultPenetration
	}
	if s.Dealer == "" {
		s.Dealer = DefaultDealer
	}
	if s.HistoryDir == "" {
		s.HistoryDir = DefaultHistoryDir
	}
	if s.SnapshotFile == "" {
		s.SnapshotFile = DefaultSnapshotFile
	}

	for i := range c.Dealers {
		d := &c.Dealers[i]
		if d.Title == "" {
			d.Title = d.ID
		}
		if d.Decks == 0 {
			d.Decks = 6
		}
		if d.MaxSplitHands == 0 {
			d.MaxSplitHands = 4
		}
		if d.BlackjackPayout == 0 {
			d.BlackjackPayout = rules.StandardPayout
		}
		if d.MinimumBetMultiplier == 0 {
			d.MinimumBetMultiplier = 1
		}
		if d.DoubleAfterSplit == nil {
			d.DoubleAfterSplit = boolPtr(true)
		}
		if d.SplitAcesOneCardOnly == nil {
			d.SplitAcesOneCardOnly = boolPtr(true)
		}
	}
}

// Validate checks the session settings and every custom dealer
func (c *Config) Validate() error {
	s := c.Session
	if s == nil {
		return fmt.Errorf("missing session settings")
	}
	if s.Bankroll < 0 {
		return fmt.Errorf("session: bankroll must not be negative")
	}
	if s.MinimumBet <= 0 {
		return fmt.Errorf("session: minimum bet must be positive")
	}
	if s.Penetration <= 0 || s.Penetration > 1 {
		return fmt.Errorf("session: penetration must be in (0, 1], got %g", s.Penetration)
	}

	roster, err := c.Roster()
	if err != nil {
		return err
	}
	if _, ok := roster.Lookup(s.Dealer); !ok {
		return fmt.Errorf("session: unknown dealer %q", s.Dealer)
	}
	return nil
}

// RuleSet converts the block into engine rules
func (d DealerConfig) RuleSet() rules.RuleSet {
	return rules.RuleSet{
		Name:                 d.Title,
		Decks:                d.Decks,
		DealerHitsSoft17:     d.HitsSoft17,
		DoubleOn:             append([]int(nil), d.DoubleOn...),
		DoubleAfterSplit:     d.DoubleAfterSplit != nil && *d.DoubleAfterSplit,
		MaxSplitHands:        d.MaxSplitHands,
		ResplitAces:          d.ResplitAces,
		SplitAcesOneCardOnly: d.SplitAcesOneCardOnly != nil && *d.SplitAcesOneCardOnly,
		SurrenderAllowed:     d.Surrender,
		EarlySurrender:       d.EarlySurrender,
		BlackjackPayout:      d.BlackjackPayout,
		MinimumBetMultiplier: d.MinimumBetMultiplier,
		FreeDoubles:          d.FreeDoubles,
		FreeSplits:           d.FreeSplits,
	}
}

// Dealer converts the block into a roster entry
func (d DealerConfig) Dealer() rules.Dealer {
	return rules.Dealer{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Rules:       d.RuleSet(),
	}
}

// Roster returns the built-in dealers plus the configured ones
func (c *Config) Roster() (*rules.Roster, error) {
	custom := make([]rules.Dealer, len(c.Dealers))
	for i, d := range c.Dealers {
		custom[i] = d.Dealer()
	}
	return rules.NewRoster(custom...)
}

func boolPtr(b bool) *bool { return &b }
