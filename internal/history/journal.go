// Package history keeps a journal of completed rounds.
//
// A Journal subscribes to a game controller, buffers one Record per finished
// round and appends them to a TOML file as numbered sections:
//
//	[round-000001]
//		round = 1
//		round_id = "..."
//		...
//		[[round-000001.hands]]
//			outcome = "win"
//
// Reopening a journal for the same session continues the numbering.
package history

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/game"
)

const (
	sectionPrefix      = "round-"
	defaultFlushRounds = 10
	maxFailures        = 3
)

// Config controls where and how often a Journal writes
type Config struct {
	Dir         string
	SessionID   string
	FlushRounds int // rounds buffered before an automatic flush; defaults to 10
	Logger      *log.Logger
}

// Journal records completed rounds with buffered appends
type Journal struct {
	cfg    Config
	path   string
	logger *log.Logger

	mu       sync.Mutex
	flushMu  sync.Mutex
	buffer   []Record
	section  int
	failures int
	disabled bool
}

// Open prepares a journal file for the session, creating the directory when
// needed and resuming the section counter from an existing file.
func Open(cfg Config) (*Journal, error) {
	if cfg.SessionID == "" {
		return nil, errors.New("history: SessionID is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("history: Dir is required")
	}
	if cfg.FlushRounds <= 0 {
		cfg.FlushRounds = defaultFlushRounds
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	path := filepath.Join(cfg.Dir, "session-"+cfg.SessionID+".toml")
	last, err := readLastSection(path)
	if err != nil {
		return nil, fmt.Errorf("history: read sections: %w", err)
	}

	return &Journal{
		cfg:     cfg,
		path:    path,
		logger:  cfg.Logger.WithPrefix("history"),
		buffer:  make([]Record, 0, cfg.FlushRounds),
		section: last,
	}, nil
}

// Path returns the journal file location
func (j *Journal) Path() string { return j.path }

// Pending returns the number of buffered rounds not yet on disk
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.buffer)
}

// Disabled reports whether repeated write failures switched the journal off
func (j *Journal) Disabled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.disabled
}

// OnEvent implements game.Observer
func (j *Journal) OnEvent(event game.Event) {
	completed, ok := event.(game.RoundCompletedEvent)
	if !ok {
		return
	}

	j.mu.Lock()
	if j.disabled {
		j.mu.Unlock()
		return
	}
	j.buffer = append(j.buffer, NewRecord(completed.Summary))
	full := len(j.buffer) >= j.cfg.FlushRounds
	j.mu.Unlock()

	if full {
		j.handleFlushResult(j.Flush())
	}
}

// Flush appends buffered rounds to the journal file
func (j *Journal) Flush() error {
	j.flushMu.Lock()
	defer j.flushMu.Unlock()

	j.mu.Lock()
	if j.disabled || len(j.buffer) == 0 {
		j.mu.Unlock()
		return nil
	}
	records := append([]Record(nil), j.buffer...)
	base := j.section
	j.mu.Unlock()

	var buf bytes.Buffer
	for i, rec := range records {
		rec.Round = base + i + 1
		if i > 0 {
			buf.WriteString("\n")
		}
		if err := encodeSection(&buf, rec); err != nil {
			return fmt.Errorf("history: encode round %d: %w", rec.Round, err)
		}
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history: open %s: %w", j.path, err)
	}
	defer file.Close()

	out := buf.Bytes()
	if info, err := file.Stat(); err == nil && info.Size() > 0 {
		out = append([]byte("\n"), out...)
	}
	if _, err := file.Write(out); err != nil {
		return fmt.Errorf("history: write %s: %w", j.path, err)
	}

	j.mu.Lock()
	j.buffer = j.buffer[len(records):]
	j.section = base + len(records)
	j.mu.Unlock()

	j.logger.Debug("flushed rounds", "count", len(records), "last", base+len(records), "path", j.path)
	return nil
}

// Close flushes remaining rounds
func (j *Journal) Close() error {
	return j.Flush()
}

func (j *Journal) handleFlushResult(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err == nil {
		j.failures = 0
		return
	}
	j.failures++
	j.logger.Warn("journal flush failed", "error", err, "failures", j.failures)
	if j.failures >= maxFailures {
		j.logger.Error("journal disabled after repeated failures", "dropped", len(j.buffer))
		j.buffer = nil
		j.disabled = true
	}
}

func sectionKey(n int) string {
	return fmt.Sprintf("%s%06d", sectionPrefix, n)
}

func encodeSection(w io.Writer, rec Record) error {
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(map[string]Record{sectionKey(rec.Round): rec})
}

func sectionNumber(key string) (int, bool) {
	digits, ok := strings.CutPrefix(key, sectionPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func readLastSection(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	last := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[[") || len(line) < 3 || line[0] != '[' || line[len(line)-1] != ']' {
			continue
		}
		if n, ok := sectionNumber(line[1 : len(line)-1]); ok && n > last {
			last = n
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return last, nil
}
