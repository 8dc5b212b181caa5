package sortkey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mckennalab/cabal/internal/fbase"
)

func seq(s string) fbase.Sequence {
	v, err := fbase.FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestNewContainerPending(t *testing.T) {
	c := NewContainer(nil, []byte{'X', 'B'})
	assert.Len(t, c.PendingKeys, 2)
	assert.Empty(t, c.SortedKeys)
}

func TestPopPendingFIFO(t *testing.T) {
	c := NewContainer(nil, []byte{'X', 'B', 'Y'})
	sym, ok := c.PopPending()
	assert.True(t, ok)
	assert.Equal(t, byte('X'), sym)
	sym, ok = c.PopPending()
	assert.True(t, ok)
	assert.Equal(t, byte('B'), sym)
	assert.Len(t, c.PendingKeys, 1)
}

func TestPopPendingEmpty(t *testing.T) {
	c := NewContainer(nil, nil)
	_, ok := c.PopPending()
	assert.False(t, ok)
}

func TestResolveAppendsSortedKey(t *testing.T) {
	c := NewContainer(nil, []byte{'X'})
	c.Resolve('X', seq("ACGT"))
	assert.Len(t, c.SortedKeys, 1)
	assert.Equal(t, "ACGT", c.SortedKeys[0].Value.String())
}

func TestCompareLexicographic(t *testing.T) {
	a := &Container{SortedKeys: []SortedKey{{Symbol: 'X', Value: seq("AAAA")}}}
	b := &Container{SortedKeys: []SortedKey{{Symbol: 'X', Value: seq("AAAT")}}}
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
}

func TestCompareDifferingSymbolOrder(t *testing.T) {
	a := &Container{SortedKeys: []SortedKey{{Symbol: 'B', Value: seq("AAAA")}}}
	b := &Container{SortedKeys: []SortedKey{{Symbol: 'X', Value: seq("AAAA")}}}
	assert.Equal(t, -1, Compare(a, b))
}

func TestCompareFallsBackToPendingOrder(t *testing.T) {
	a := &Container{
		SortedKeys:  []SortedKey{{Symbol: 'X', Value: seq("AAAA")}},
		PendingKeys: []PendingKey{{Symbol: 'B'}},
	}
	b := &Container{
		SortedKeys:  []SortedKey{{Symbol: 'X', Value: seq("AAAA")}},
		PendingKeys: []PendingKey{{Symbol: 'Y'}},
	}
	assert.Equal(t, -1, Compare(a, b))
}

func TestCompareShorterSortedKeysSortsFirst(t *testing.T) {
	a := &Container{SortedKeys: []SortedKey{{Symbol: 'X', Value: seq("AAAA")}}}
	b := &Container{SortedKeys: []SortedKey{
		{Symbol: 'X', Value: seq("AAAA")},
		{Symbol: 'B', Value: seq("CCCC")},
	}}
	assert.Equal(t, -1, Compare(a, b))
}

func TestBucketPrefixDeterministic(t *testing.T) {
	c := &Container{SortedKeys: []SortedKey{{Symbol: 'X', Value: seq("ACGT")}}}
	p1 := BucketPrefix(c)
	p2 := BucketPrefix(c)
	assert.Equal(t, p1, p2)
}
