package align

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/fbase"
)

func TestParseWFACigarCollapsesMismatchIntoMatch(t *testing.T) {
	// wfa's I/D are relative to its own (query, target) pair it was
	// handed; Align calls algn.Align(q=read, t=ref), so a query gap (I)
	// is a read gap (OpDelete) and a target gap (D) is a ref gap
	// (OpInsert) -- the reverse of wfa's own letters.
	c := parseWFACigar("10M2X3I4D")
	assert.Equal(t, CIGAR{
		{OpMatch, 10},
		{OpMatch, 2},
		{OpDelete, 3},
		{OpInsert, 4},
	}, c)
	assert.Equal(t, CIGAR{{OpMatch, 12}, {OpDelete, 3}, {OpInsert, 4}}, Normalize(c))
}

func TestNewWavefrontAlignerConstructs(t *testing.T) {
	a := NewWavefrontAligner()
	assert.NotNil(t, a)
}

// TestWavefrontAlignSelfAlignment is spec scenario S1: aligning a
// sequence against itself must reproduce it exactly, with a single match
// run spanning its full length.
func TestWavefrontAlignSelfAlignment(t *testing.T) {
	seq, err := fbase.FromString("AAACGCTTCTGCACTTCGCGTGATATCATTACGTT")
	require.NoError(t, err)

	a := NewWavefrontAligner()
	result, err := a.Align(seq, seq, SemiGlobal, nil)
	require.NoError(t, err)

	assert.Equal(t, seq.String(), result.AlignedRef.String())
	assert.Equal(t, seq.String(), result.AlignedRead.String())
	assert.Equal(t, "35M", result.CIGAR.String())
}

// TestWavefrontAlignDeletion is spec scenario S2: a read missing five
// reference bases must produce a CIGAR whose deletion run matches the
// gap AlignmentText already placed in AlignedRead, per spec §8 property 4
// (CIGAR replay must reconstruct the aligned pair).
func TestWavefrontAlignDeletion(t *testing.T) {
	ref, err := fbase.FromString("AAACGCTTCTGCACTTCGCGTGATATCATT")
	require.NoError(t, err)
	read, err := fbase.FromString("AAACGCTTCTGCACGTGATATCATT")
	require.NoError(t, err)

	a := NewWavefrontAligner()
	result, err := a.Align(ref, read, SemiGlobal, nil)
	require.NoError(t, err)

	assert.Equal(t, "14M5D11M", result.CIGAR.String())

	replayedRef, replayedRead, err := Replay(result.CIGAR, ref, read)
	require.NoError(t, err)
	assert.Equal(t, result.AlignedRef.String(), replayedRef.String())
	assert.Equal(t, result.AlignedRead.String(), replayedRead.String())
}
