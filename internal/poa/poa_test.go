package poa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/scoring"
)

func TestAlignAndThreadSingleSequence(t *testing.T) {
	out, err := AlignAndThread([][]byte{[]byte("ACGTACGT")}, scoring.DefaultPOAPenalties())
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGT", string(out))
}

func TestAlignAndThreadIdenticalSequencesMajority(t *testing.T) {
	seqs := [][]byte{
		[]byte("ACGTACGT"),
		[]byte("ACGTACGT"),
		[]byte("ACGTACGT"),
	}
	out, err := AlignAndThread(seqs, scoring.DefaultPOAPenalties())
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGT", string(out))
}

func TestAlignAndThreadSingleMismatchOutvoted(t *testing.T) {
	seqs := [][]byte{
		[]byte("ACGTACGT"),
		[]byte("ACGTACGT"),
		[]byte("ACGTATGT"), // single mismatch at position 5 (0-indexed)
	}
	out, err := AlignAndThread(seqs, scoring.DefaultPOAPenalties())
	require.NoError(t, err)
	assert.Equal(t, "ACGTACGT", string(out))
}

func TestAlignAndThreadEmptyInput(t *testing.T) {
	_, err := AlignAndThread(nil, scoring.DefaultPOAPenalties())
	assert.Error(t, err)
}

func TestAlignAndThreadSkipsEmptySequences(t *testing.T) {
	seqs := [][]byte{
		[]byte("ACGT"),
		{},
		[]byte("ACGT"),
	}
	out, err := AlignAndThread(seqs, scoring.DefaultPOAPenalties())
	require.NoError(t, err)
	assert.Equal(t, "ACGT", string(out))
}

func TestAlignAndThreadWithSentinel(t *testing.T) {
	seqs := [][]byte{
		append([]byte("ACGT"), 0x00),
		append([]byte("ACGT"), 0x00),
	}
	out, err := AlignAndThread(seqs, scoring.DefaultPOAPenalties())
	require.NoError(t, err)
	require.True(t, len(out) > 0)
	assert.Equal(t, byte(0x00), out[len(out)-1])
	assert.Equal(t, "ACGT", string(out[:len(out)-1]))
}
