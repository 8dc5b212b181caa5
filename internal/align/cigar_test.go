package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/fbase"
)

func TestNormalizeMergesAdjacentSameKind(t *testing.T) {
	in := CIGAR{{OpMatch, 3}, {OpMatch, 4}, {OpDelete, 2}, {OpDelete, 1}, {OpMatch, 5}}
	out := Normalize(in)
	assert.Equal(t, CIGAR{{OpMatch, 7}, {OpDelete, 3}, {OpMatch, 5}}, out)
}

func TestNormalizeNeverMergesInversionMarkers(t *testing.T) {
	in := CIGAR{{OpInvOpen, 1}, {OpInvOpen, 1}, {OpMatch, 2}}
	out := Normalize(in)
	assert.Equal(t, CIGAR{{OpInvOpen, 1}, {OpInvOpen, 1}, {OpMatch, 2}}, out)
}

func TestCIGARString(t *testing.T) {
	c := CIGAR{{OpMatch, 14}, {OpDelete, 5}, {OpMatch, 11}}
	assert.Equal(t, "14M5D11M", c.String())
}

func TestReplayReconstructsAlignedPair(t *testing.T) {
	ref, _ := fbase.FromString("AAACGCTTCTGCACTTCGCGTGATATCATT")
	read, _ := fbase.FromString("AAACGCTTCTGCACGTGATATCATT")
	cigar := CIGAR{{OpMatch, 14}, {OpDelete, 5}, {OpMatch, 11}}

	alignedRef, alignedRead, err := Replay(cigar, ref, read)
	require.NoError(t, err)
	assert.Equal(t, len(alignedRef), len(alignedRead))
	assert.Equal(t, "AAACGCTTCTGCACTTCGCGTGATATCATT", alignedRef.String())
	assert.Equal(t, "AAACGCTTCTGCAC-----GTGATATCATT", alignedRead.String())
}

func TestFromAlignedPairRoundTripsWithReplay(t *testing.T) {
	ref, _ := fbase.FromString("AAACGCTTCTGCACTTCGCGTGATATCATT")
	read, _ := fbase.FromString("AAACGCTTCTGCACGTGATATCATT")
	cigar := CIGAR{{OpMatch, 14}, {OpDelete, 5}, {OpMatch, 11}}

	alignedRef, alignedRead, err := Replay(cigar, ref, read)
	require.NoError(t, err)

	derived, err := FromAlignedPair(alignedRef, alignedRead)
	require.NoError(t, err)
	assert.Equal(t, Normalize(cigar), Normalize(derived))
}

func TestReplayRejectsOutOfBoundsRun(t *testing.T) {
	ref, _ := fbase.FromString("AC")
	read, _ := fbase.FromString("AC")
	_, _, err := Replay(CIGAR{{OpMatch, 5}}, ref, read)
	assert.Error(t, err)
}
