// Package codegen produces the short public codes used to join a session.
package codegen

import (
	"errors"
	"math/rand/v2"
	"strings"
)

// DefaultLength is the code length used for new sessions.
const DefaultLength = 6

// Alphabet is the set of characters a code is drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var ErrInvalidLength = errors.New("code length must be positive")

// Generator draws codes from a pseudo-random source. Codes are meant to be
// short and typeable, not secret.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator backed by the given source. A nil source uses the
// runtime's global generator.
func New(src rand.Source) *Generator {
	if src == nil {
		return &Generator{}
	}
	return &Generator{rnd: rand.New(src)}
}

// Generate returns a code of length characters sampled uniformly from Alphabet.
func (g *Generator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(Alphabet[g.intN(len(Alphabet))])
	}
	return b.String(), nil
}

func (g *Generator) intN(n int) int {
	if g == nil || g.rnd == nil {
		return rand.IntN(n)
	}
	return g.rnd.IntN(n)
}

// Generate draws a code from the global source.
func Generate(length int) (string, error) {
	return (*Generator)(nil).Generate(length)
}
