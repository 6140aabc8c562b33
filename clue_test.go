package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateClueFullyMasked(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"inception", "_________"},
		{"pulp fiction", "____ _______"},
		{"the dark knight", "___ ____ ______"},
		{"12 angry men", "__ _____ ___"},
		{"", ""},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, generateClue(tc.answer, 0), "answer %q", tc.answer)
	}
}

func TestGenerateClueFullyRevealed(t *testing.T) {
	for _, answer := range []string{"inception", "pulp fiction", "the shawshank redemption"} {
		assert.Equal(t, answer, generateClue(answer, len(answer)))
	}
}

func TestGenerateCluePartialReveal(t *testing.T) {
	assert.Equal(t, "in_______", generateClue("inception", 2))
	assert.Equal(t, "pulp f______", generateClue("pulp fiction", 5))
	assert.Equal(t, "the d___ ______", generateClue("the dark knight", 4))
}

func TestGenerateClueSpacesDoNotConsumeBudget(t *testing.T) {
	// Three reveals span the space: "12 a" shown, space untouched.
	assert.Equal(t, "12 a________", generateClue("12 angry men", 3))
}

func TestGenerateClueMonotonic(t *testing.T) {
	answer := "the shawshank redemption"
	masked := len(answer) - strings.Count(answer, " ")

	prev := generateClue(answer, 0)
	for revealed := 1; revealed <= masked; revealed++ {
		next := generateClue(answer, revealed)

		diff := 0
		for i := range prev {
			if prev[i] != next[i] {
				// A change must be an unmasking, never the reverse.
				assert.Equal(t, byte('_'), prev[i])
				assert.Equal(t, answer[i], next[i])
				diff++
			}
		}
		assert.Equal(t, 1, diff, "reveal %d should unmask exactly one character", revealed)

		prev = next
	}
}

func TestGenerateClueRevealBeyondLength(t *testing.T) {
	assert.Equal(t, "goodfellas", generateClue("goodfellas", 100))
}
