package bamio

import (
	"bytes"
	"io"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/consensus"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/reference"
)

func testRefs(t *testing.T) *reference.Manager {
	t.Helper()
	ref, err := reference.New("amplicon", "ACGTACGTACGT", 8)
	require.NoError(t, err)
	refs := reference.NewManager()
	refs.Add(ref)
	return refs
}

func TestNewHeaderOneSQPerReference(t *testing.T) {
	refs := testRefs(t)
	header, byName, err := NewHeader(refs)
	require.NoError(t, err)
	require.Len(t, header.Refs(), 1)
	assert.Equal(t, "amplicon", header.Refs()[0].Name())
	require.Contains(t, byName, "amplicon")
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	refs := testRefs(t)
	header, byName, err := NewHeader(refs)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, header, byName)
	require.NoError(t, err)

	seq, err := fbase.FromString("ACGTACGT")
	require.NoError(t, err)
	rec := &consensus.BamRecord{
		Name:     "bin1",
		RefName:  "amplicon",
		Sequence: seq,
		CIGAR:    align.CIGAR{{Op: align.OpMatch, N: 8}},
		Score:    40,
		Aux: map[string]string{
			"rc": "3",
			"dc": "3",
			"X":  "AAAA",
		},
	}
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	br, err := bam.NewReader(&buf, 1)
	require.NoError(t, err)
	defer br.Close()

	r, err := br.Read()
	require.NoError(t, err)
	assert.Equal(t, "bin1", r.Name)
	assert.Equal(t, "ACGTACGT", string(r.Seq.Expand()))
	assert.Equal(t, "8M", r.Cigar.String())

	_, err = br.Read()
	assert.Equal(t, io.EOF, err)
}

func TestToSamCigarRejectsInversionMarkers(t *testing.T) {
	_, err := toSamCigar(align.CIGAR{{Op: align.OpInvOpen, N: 1}})
	assert.Error(t, err)
}

func TestImportRecordReplaysCIGAR(t *testing.T) {
	refBases, err := fbase.FromString("AAAACCCC")
	require.NoError(t, err)
	refs := testRefs(t)
	header, byName, err := NewHeader(refs)
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, header, byName)
	require.NoError(t, err)

	seq, err := fbase.FromString("AAAACCC")
	require.NoError(t, err)
	rec := &consensus.BamRecord{
		Name:     "r1",
		RefName:  "amplicon",
		Sequence: seq,
		CIGAR:    align.CIGAR{{Op: align.OpMatch, N: 4}, {Op: align.OpDelete, N: 1}, {Op: align.OpMatch, N: 3}},
	}
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	br, err := bam.NewReader(&buf, 1)
	require.NoError(t, err)
	defer br.Close()
	samRec, err := br.Read()
	require.NoError(t, err)

	result, err := ImportRecord(samRec, refBases)
	require.NoError(t, err)
	assert.Equal(t, "AAAACCCC", result.AlignedRef.String())
	assert.Equal(t, "AAAA-CCC", result.AlignedRead.String())
}
