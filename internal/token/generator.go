package token

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

// Alphabet is the URL-safe, case-sensitive character set tokens draw from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// MinLength is the shortest token length accepted.
const MinLength = 10

// Generator produces fixed-length random tokens. It keeps no state between
// calls and does not promise uniqueness; the store enforces that.
type Generator struct {
	length int
	source func(alphabet string, size int) (string, error)
}

// NewGenerator builds a generator for tokens of the given length.
func NewGenerator(length int) (*Generator, error) {
	if length < MinLength {
		return nil, fmt.Errorf("token length %d below minimum %d", length, MinLength)
	}
	return &Generator{length: length, source: gonanoid.Generate}, nil
}

// Length returns the fixed token length.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new token. A failing entropy source is fatal to the
// caller and surfaces as ENTROPY_UNAVAILABLE.
func (g *Generator) Generate() (string, error) {
	tok, err := g.source(Alphabet, g.length)
	if err != nil {
		return "", apperrors.NewEntropyUnavailable(err)
	}
	return tok, nil
}
