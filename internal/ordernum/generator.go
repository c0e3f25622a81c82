// Package ordernum generates human-presentable order numbers.
package ordernum

import (
	"crypto/rand"
	"fmt"
)

const (
	// alphabet is uppercase letters plus digits, matching the externally
	// visible order-number format.
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// DefaultLength is the default order-number length.
	DefaultLength = 10
)

// Generator produces fixed-length alphanumeric order numbers. Generation
// is stateless and collisions are possible; callers must verify uniqueness
// against the store and regenerate on collision.
type Generator struct {
	length int
}

// New creates a generator producing numbers of the default length.
func New() *Generator {
	return NewWithLength(DefaultLength)
}

// NewWithLength creates a generator producing numbers of the given length.
// Lengths below one fall back to the default.
func NewWithLength(length int) *Generator {
	if length < 1 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a new candidate order number. Characters are drawn
// uniformly: random bytes at or above the largest multiple of the alphabet
// size are discarded rather than folded back in.
func (g *Generator) Generate() (string, error) {
	const limit = byte(256 - 256%len(alphabet))

	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length)
	for len(out) < g.length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}

	return string(out), nil
}
