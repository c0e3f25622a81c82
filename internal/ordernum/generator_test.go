package ordernum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Generate_Format(t *testing.T) {
	gen := New()

	for i := 0; i < 100; i++ {
		number, err := gen.Generate()

		require.NoError(t, err)
		assert.Len(t, number, DefaultLength)
		for _, c := range number {
			assert.True(t, strings.ContainsRune(alphabet, c),
				"unexpected character %q in %s", c, number)
		}
	}
}

func TestGenerator_Generate_CustomLength(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		wantLength int
	}{
		{name: "Short", length: 6, wantLength: 6},
		{name: "Long", length: 20, wantLength: 20},
		{name: "Zero falls back to default", length: 0, wantLength: DefaultLength},
		{name: "Negative falls back to default", length: -3, wantLength: DefaultLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewWithLength(tt.length)

			number, err := gen.Generate()

			require.NoError(t, err)
			assert.Len(t, number, tt.wantLength)
		})
	}
}

func TestGenerator_Generate_CoversAlphabet(t *testing.T) {
	gen := NewWithLength(50)

	seen := make(map[rune]bool)
	for i := 0; i < 100; i++ {
		number, err := gen.Generate()
		require.NoError(t, err)
		for _, c := range number {
			seen[c] = true
		}
	}

	// 5000 uniform draws make a missing character vanishingly unlikely.
	for _, c := range alphabet {
		assert.True(t, seen[c], "character %q never drawn", c)
	}
}

func TestGenerator_Generate_VariesAcrossCalls(t *testing.T) {
	gen := New()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		number, err := gen.Generate()
		require.NoError(t, err)
		seen[number] = true
	}

	// 1000 draws from a 36^10 space should essentially never collide.
	assert.Greater(t, len(seen), 990)
}
