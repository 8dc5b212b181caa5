package editdistance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinIdentical(t *testing.T) {
	assert.Equal(t, 0, Levenshtein("ACGT", "ACGT"))
}

func TestLevenshteinEmpty(t *testing.T) {
	assert.Equal(t, 4, Levenshtein("", "ACGT"))
	assert.Equal(t, 4, Levenshtein("ACGT", ""))
	assert.Equal(t, 0, Levenshtein("", ""))
}

func TestLevenshteinSubstitution(t *testing.T) {
	assert.Equal(t, 1, Levenshtein("AAACCCAAGATCCTGC", "AAACCCAAGATCCTGT"))
}

func TestLevenshteinDeletion(t *testing.T) {
	assert.Equal(t, 1, Levenshtein("ACGT", "ACT"))
}

func TestLevenshteinInsertion(t *testing.T) {
	assert.Equal(t, 1, Levenshtein("ACT", "ACGT"))
}

func TestLevenshteinUnrelated(t *testing.T) {
	assert.Equal(t, 4, Levenshtein("AAAA", "TTTT"))
}
