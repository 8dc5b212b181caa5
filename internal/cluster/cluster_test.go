package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/scoring"
	"github.com/mckennalab/cabal/internal/sortkey"
)

func seq(t *testing.T, s string) fbase.Sequence {
	t.Helper()
	v, err := fbase.FromString(s)
	require.NoError(t, err)
	return v
}

func containerWithKeys(t *testing.T, keys ...sortkey.SortedKey) *sortkey.Container {
	return &sortkey.Container{SortedKeys: keys}
}

func TestDetectBinsGroupsEqualPrefixes(t *testing.T) {
	a := containerWithKeys(t, sortkey.SortedKey{Symbol: 'B', Value: seq(t, "AAAA")})
	b := containerWithKeys(t, sortkey.SortedKey{Symbol: 'B', Value: seq(t, "AAAA")})
	c := containerWithKeys(t, sortkey.SortedKey{Symbol: 'B', Value: seq(t, "CCCC")})

	bins := DetectBins([]*sortkey.Container{a, b, c})
	require.Len(t, bins, 2)
	assert.Len(t, bins[0].Containers, 2)
	assert.Len(t, bins[1].Containers, 1)
}

func TestDetectBinsEmpty(t *testing.T) {
	assert.Empty(t, DetectBins(nil))
}

func TestResolveClustersByEditDistance(t *testing.T) {
	containers := []*sortkey.Container{
		containerWithKeys(t, sortkey.SortedKey{Symbol: 'X', Value: seq(t, "ACGTACGT")}),
		containerWithKeys(t, sortkey.SortedKey{Symbol: 'X', Value: seq(t, "ACGTACGT")}),
		containerWithKeys(t, sortkey.SortedKey{Symbol: 'X', Value: seq(t, "ACGTATGT")}), // 1 substitution
		containerWithKeys(t, sortkey.SortedKey{Symbol: 'X', Value: seq(t, "TTTTTTTT")}), // unrelated
	}
	bin := Bin{Containers: containers}

	resolved, err := Resolve(bin, 'X', 1, 10000, scoring.DefaultPOAPenalties())
	require.NoError(t, err)
	require.Len(t, resolved, 4)

	// The first three collapse to one consensus; the fourth stays its own singleton.
	assert.Equal(t, resolved[0].String(), resolved[1].String())
	assert.Equal(t, resolved[0].String(), resolved[2].String())
	assert.NotEqual(t, resolved[0].String(), resolved[3].String())
	assert.Equal(t, "TTTTTTTT", resolved[3].String())
}

func TestResolveMissingTagErrors(t *testing.T) {
	containers := []*sortkey.Container{
		containerWithKeys(t, sortkey.SortedKey{Symbol: 'B', Value: seq(t, "AAAA")}),
	}
	_, err := Resolve(Bin{Containers: containers}, 'X', 1, 100, scoring.DefaultPOAPenalties())
	assert.Error(t, err)
}

func TestDisjointSetComponents(t *testing.T) {
	ds := newDisjointSet(5)
	ds.Union(0, 1)
	ds.Union(1, 2)
	ds.Union(3, 4)
	comps := ds.Components()
	require.Len(t, comps, 2)

	sizes := map[int]int{}
	for _, c := range comps {
		sizes[len(c)]++
	}
	assert.Equal(t, 1, sizes[3])
	assert.Equal(t, 1, sizes[2])
}
