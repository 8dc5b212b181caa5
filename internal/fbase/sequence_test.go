package fbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceRoundTrip(t *testing.T) {
	for _, s := range []string{"ACGT", "ACGTRYKMSWBDHVN", "AC-GT", ""} {
		seq, err := FromString(s)
		require.NoError(t, err)
		assert.Equal(t, s, seq.String())
	}
}

func TestSequenceRoundTripLowercase(t *testing.T) {
	seq, err := FromString("acgtn")
	require.NoError(t, err)
	assert.Equal(t, "ACGTN", seq.String())
}

func TestReverseComplementInvolution(t *testing.T) {
	for _, s := range []string{"ACGT", "ACGTRYKMSWBDHVN", "AAACGCTTCTGCACTTCGCGTGATATCATTACGTT"} {
		seq, err := FromString(s)
		require.NoError(t, err)
		rc := ReverseComplement(seq)
		rcrc := ReverseComplement(rc)
		assert.Equal(t, seq.String(), rcrc.String())
	}
}

func TestReverseComplementKnownValue(t *testing.T) {
	seq, err := FromString("ACGT")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", ReverseComplement(seq).String())

	seq, err = FromString("AAGG")
	require.NoError(t, err)
	assert.Equal(t, "CCTT", ReverseComplement(seq).String())
}

func TestStripGaps(t *testing.T) {
	seq, err := FromString("AC-G-T")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", StripGaps(seq).String())
}

func TestEditDistance(t *testing.T) {
	a, _ := FromString("ACGT")
	b, _ := FromString("ACGA")
	d, err := EditDistance(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, d)

	c, _ := FromString("ACG")
	_, err = EditDistance(a, c)
	assert.Error(t, err)
}

func TestEditDistanceDegenerate(t *testing.T) {
	a, _ := FromString("ACGN")
	b, _ := FromString("ACGT")
	d, err := EditDistance(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, d, "N should be identity-equal to T, contributing no distance")
}

func TestCompareLexicographic(t *testing.T) {
	a, _ := FromString("AAA")
	b, _ := FromString("AAC")
	assert.Equal(t, -1, Compare(a, b))
	assert.Equal(t, 1, Compare(b, a))
	assert.Equal(t, 0, Compare(a, a))
}
