// Package storage persists session snapshots as TOML files.
package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/game"
)

const header = "# blackjack session snapshot\n\n"

// Encode writes a snapshot in TOML form
func Encode(w io.Writer, snap game.Snapshot) error {
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(snap)
}

// Decode reads and validates a TOML snapshot. Unknown keys are rejected so
// a file from a newer format is not silently half-read.
func Decode(r io.Reader) (game.Snapshot, error) {
	var snap game.Snapshot
	md, err := toml.NewDecoder(r).Decode(&snap)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return game.Snapshot{}, fmt.Errorf("decode snapshot: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := snap.Validate(); err != nil {
		return game.Snapshot{}, err
	}
	return snap, nil
}

// Save writes a snapshot to path atomically
func Save(path string, snap game.Snapshot) error {
	if err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, snap)
	}); err != nil {
		return fmt.Errorf("save snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot from path. A missing file yields an error wrapping
// fs.ErrNotExist.
func Load(path string) (game.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return game.Snapshot{}, fmt.Errorf("load snapshot %s: %w", path, err)
	}
	return snap, nil
}
