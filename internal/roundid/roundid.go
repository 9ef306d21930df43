// Package roundid generates time-ordered identifiers for rounds and sessions.
//
// IDs are UUIDv7 values encoded as 26-character lowercase Crockford base32,
// so they sort by creation time and stay short enough for file names.
package roundid

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator creates IDs from a configurable randomness source
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a generator reading randomness from r. A nil reader
// uses crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	return &Generator{rand: r}
}

// New returns a fresh ID using crypto/rand
func New() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a fresh ID
func (g *Generator) Generate() string {
	var (
		id  uuid.UUID
		err error
	)
	if g.rand != nil {
		id, err = uuid.NewV7FromReader(g.rand)
	} else {
		id, err = uuid.NewV7()
	}
	if err != nil {
		panic("roundid: generating uuid: " + err.Error())
	}
	return encode(id)
}

// encode packs the 128 UUID bits into 26 five-bit groups, high bits first,
// with two zero bits of padding at the end.
func encode(id uuid.UUID) string {
	var b strings.Builder
	b.Grow(26)
	for i := 0; i < 26; i++ {
		bit := i * 5
		var v uint16
		for j := 0; j < 5; j++ {
			pos := bit + j
			v <<= 1
			if pos < 128 && id[pos/8]&(0x80>>(pos%8)) != 0 {
				v |= 1
			}
		}
		b.WriteByte(alphabet[v])
	}
	return b.String()
}

// Validate checks that s looks like an ID produced by this package
func Validate(s string) error {
	if len(s) != 26 {
		return fmt.Errorf("roundid: want 26 characters, got %d", len(s))
	}
	for i, r := range s {
		if !strings.ContainsRune(alphabet, r) {
			return fmt.Errorf("roundid: invalid character %q at position %d", r, i)
		}
	}
	return nil
}
