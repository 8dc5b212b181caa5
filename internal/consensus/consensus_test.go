package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/reference"
	"github.com/mckennalab/cabal/internal/scoring"
	"github.com/mckennalab/cabal/internal/sortkey"
)

const consensusTestRefASCII = "ACGTACGTACGT"

func testBuilder(t *testing.T, cap int) (*Builder, *reference.Manager) {
	t.Helper()
	ref, err := reference.New("amplicon", consensusTestRefASCII, 8)
	require.NoError(t, err)
	refs := reference.NewManager()
	refs.Add(ref)

	newAligner := func() align.Aligner {
		return align.NewDPAligner(scoring.DefaultAffine(), len(consensusTestRefASCII)*2)
	}
	b := NewBuilder(Opts{DownsampleCap: cap}, refs, newAligner, 1)
	return b, refs
}

func testContainer(t *testing.T, name, seq string) *sortkey.Container {
	t.Helper()
	s, err := fbase.FromString(seq)
	require.NoError(t, err)
	c := &sortkey.Container{
		Alignment: &align.Result{
			RefName:     "amplicon",
			ReadName:    name,
			AlignedRef:  s,
			AlignedRead: s,
			Score:       10,
		},
	}
	c.Resolve('X', fbase.FromStringDefaultN("AAAA"))
	return c
}

func TestCollapseSingletonBypassesPOA(t *testing.T) {
	b, _ := testBuilder(t, 0)
	c := testContainer(t, "only", consensusTestRefASCII)

	rec, err := b.Collapse([]*sortkey.Container{c})
	require.NoError(t, err)
	assert.Equal(t, "only", rec.Name)
	assert.Equal(t, consensusTestRefASCII, rec.Sequence.String())
	assert.Equal(t, "1", rec.Aux["rc"])
	assert.Equal(t, "1", rec.Aux["dc"])
	assert.Equal(t, "AAAA", rec.Aux["X"])
}

func TestCollapseMajorityVoteConsensus(t *testing.T) {
	b, _ := testBuilder(t, 0)
	bin := []*sortkey.Container{
		testContainer(t, "r1", consensusTestRefASCII),
		testContainer(t, "r2", consensusTestRefASCII),
		testContainer(t, "r3", "ACGTATGTACGT"), // single mismatch, outvoted
	}

	rec, err := b.Collapse(bin)
	require.NoError(t, err)
	assert.Equal(t, consensusTestRefASCII, rec.Sequence.String())
	assert.Equal(t, "3", rec.Aux["rc"])
	assert.Equal(t, "3", rec.Aux["dc"])
	assert.Equal(t, "amplicon", rec.RefName)
}

func TestCollapseDownsamplesLargeBin(t *testing.T) {
	b, _ := testBuilder(t, 2)
	bin := []*sortkey.Container{
		testContainer(t, "r1", consensusTestRefASCII),
		testContainer(t, "r2", consensusTestRefASCII),
		testContainer(t, "r3", consensusTestRefASCII),
		testContainer(t, "r4", consensusTestRefASCII),
		testContainer(t, "r5", consensusTestRefASCII),
	}

	rec, err := b.Collapse(bin)
	require.NoError(t, err)
	assert.Equal(t, "5", rec.Aux["rc"])
	assert.Equal(t, "2", rec.Aux["dc"])
}

func TestMatchedFractionIgnoresGapPositions(t *testing.T) {
	ref, _ := fbase.FromString("ACGT--ACGT")
	read, _ := fbase.FromString("ACGTAAACGT")
	frac := matchedFraction(ref, read)
	assert.InDelta(t, 1.0, frac, 1e-9)
}
