package knownlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndexParsesKnownList(t *testing.T) {
	idx, err := NewIndex([]byte("aaaa\nCCCC\n\nGGGG\n"), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAA", "CCCC", "GGGG"}, idx.Known())
}

func TestNewIndexRejectsEmpty(t *testing.T) {
	_, err := NewIndex([]byte("\n\n"), 1)
	assert.Error(t, err)
}

func TestNewIndexRejectsNegativeMaxDelete(t *testing.T) {
	_, err := NewIndex([]byte("AAAA"), -1)
	assert.Error(t, err)
}

func TestQueryExactMatch(t *testing.T) {
	idx, err := NewIndex([]byte("AAACCCAAGATCCTGC"), 1)
	require.NoError(t, err)
	res := idx.Query("AAACCCAAGATCCTGC", 1)
	assert.Equal(t, 0, res.Distance)
	assert.Equal(t, []string{"AAACCCAAGATCCTGC"}, res.Hits)
}

// spec S4: known list {"AAACCCAAGATCCTGC"}, d=1, query
// "AAACCCAAGATCCTGT" -> single hit at distance 1.
func TestQuerySingleSubstitution(t *testing.T) {
	idx, err := NewIndex([]byte("AAACCCAAGATCCTGC"), 1)
	require.NoError(t, err)
	res := idx.Query("AAACCCAAGATCCTGT", 1)
	assert.Equal(t, 1, res.Distance)
	assert.Equal(t, []string{"AAACCCAAGATCCTGC"}, res.Hits)
}

func TestQueryBeyondMaxDistanceMisses(t *testing.T) {
	idx, err := NewIndex([]byte("AAAAAAAA"), 1)
	require.NoError(t, err)
	res := idx.Query("TTTTTTTT", 1)
	assert.Equal(t, -1, res.Distance)
	assert.Nil(t, res.Hits)
}

func TestQueryCollisionEquidistant(t *testing.T) {
	idx, err := NewIndex([]byte("AAAA\nAAAT\n"), 1)
	require.NoError(t, err)
	res := idx.Query("AAAC", 1)
	assert.Equal(t, 1, res.Distance)
	assert.ElementsMatch(t, []string{"AAAA", "AAAT"}, res.Hits)
}

func TestDecideAcceptsSingleHit(t *testing.T) {
	idx, err := NewIndex([]byte("AAACCCAAGATCCTGC"), 1)
	require.NoError(t, err)
	d := idx.Decide("AAACCCAAGATCCTGT", 1)
	assert.True(t, d.Accepted)
	assert.Equal(t, "AAACCCAAGATCCTGC", d.Corrected)
	assert.Equal(t, 1, d.Distance)
}

func TestDecideDropsCollision(t *testing.T) {
	idx, err := NewIndex([]byte("AAAA\nAAAT\n"), 1)
	require.NoError(t, err)
	d := idx.Decide("AAAC", 1)
	assert.False(t, d.Accepted)
	assert.True(t, d.Collision)
}

func TestDecideDropsMiss(t *testing.T) {
	idx, err := NewIndex([]byte("AAAAAAAA"), 1)
	require.NoError(t, err)
	d := idx.Decide("TTTTTTTT", 1)
	assert.False(t, d.Accepted)
	assert.False(t, d.Collision)
}

func TestDeletionVariantsDeduplicates(t *testing.T) {
	variants := deletionVariants("AAA", 1)
	assert.Equal(t, 2, len(variants)) // "AAA" and "AA" (all single-deletions collapse)
	assert.True(t, variants["AAA"])
	assert.True(t, variants["AA"])
}
