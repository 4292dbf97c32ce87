package token

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/admission-service/pkg/util"
)

func TestGenerateProducesFixedLengthAlphabetTokens(t *testing.T) {
	gen, err := NewGenerator(12)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 2000)
	for i := 0; i < 2000; i++ {
		tok, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, tok, 12)
		for _, r := range tok {
			require.True(t, strings.ContainsRune(Alphabet, r), "unexpected rune %q in %s", r, tok)
		}
		seen[tok] = struct{}{}
	}
	assert.Len(t, seen, 2000)
}

func TestNewGeneratorRejectsShortLength(t *testing.T) {
	_, err := NewGenerator(9)
	assert.Error(t, err)

	gen, err := NewGenerator(MinLength)
	require.NoError(t, err)
	assert.Equal(t, MinLength, gen.Length())
}

func TestGenerateReportsEntropyFailure(t *testing.T) {
	gen, err := NewGenerator(12)
	require.NoError(t, err)
	gen.source = func(string, int) (string, error) {
		return "", errors.New("rand: read failed")
	}

	tok, err := gen.Generate()
	assert.Empty(t, tok)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeEntropyUnavailable))
}
