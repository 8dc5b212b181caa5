package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mckennalab/cabal/internal/reference"
)

const sampleYAML = `
references:
  - reference: amplicon1
    umi_configurations:
      - symbol: "X"
        order: 0
        sort_type: DEGENERATE
        length: 10
        max_gaps: 0.2
      - symbol: "B"
        order: 1
        sort_type: KNOWN
        file: barcodes.txt
        max_distance: 1
        length: 8
`

func TestParseLayout(t *testing.T) {
	l, err := Parse(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	require.Contains(t, l.References, "amplicon1")

	rl := l.References["amplicon1"]
	require.Len(t, rl.Configs, 2)
	ordered := rl.Ordered()
	assert.Equal(t, "X", ordered[0].Symbol)
	assert.Equal(t, "B", ordered[1].Symbol)
	assert.Equal(t, KnownTag, ordered[1].SortType)
}

func TestParseLayoutRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not: [valid yaml"))
	assert.Error(t, err)
}

func TestReferenceLayoutValidate(t *testing.T) {
	rl := &ReferenceLayout{
		ReferenceName: "amplicon1",
		Configs: []UMIConfiguration{
			{Symbol: "X", Order: 0, SortType: DegenerateTag, Length: 4},
			{Symbol: "B", Order: 1, SortType: KnownTag, File: "barcodes.txt", Length: 4},
		},
	}
	assert.NoError(t, rl.Validate("AAXXXXBBBB"))
}

func TestReferenceLayoutValidateDuplicateSymbol(t *testing.T) {
	rl := &ReferenceLayout{
		ReferenceName: "amplicon1",
		Configs: []UMIConfiguration{
			{Symbol: "X", Order: 0, SortType: DegenerateTag, Length: 4},
			{Symbol: "X", Order: 1, SortType: DegenerateTag, Length: 4},
		},
	}
	assert.Error(t, rl.Validate("AAXXXXXXXX"))
}

func TestReferenceLayoutValidateDuplicateOrder(t *testing.T) {
	rl := &ReferenceLayout{
		ReferenceName: "amplicon1",
		Configs: []UMIConfiguration{
			{Symbol: "X", Order: 0, SortType: DegenerateTag, Length: 4},
			{Symbol: "B", Order: 0, SortType: DegenerateTag, Length: 4},
		},
	}
	assert.Error(t, rl.Validate("XXXXBBBB"))
}

func TestReferenceLayoutValidateSymbolMissingFromReference(t *testing.T) {
	rl := &ReferenceLayout{
		ReferenceName: "amplicon1",
		Configs: []UMIConfiguration{
			{Symbol: "X", Order: 0, SortType: DegenerateTag, Length: 4},
		},
	}
	assert.Error(t, rl.Validate("AAAA"))
}

func TestReferenceLayoutValidateMaxGapsOutOfRange(t *testing.T) {
	badGaps := 1.5
	rl := &ReferenceLayout{
		ReferenceName: "amplicon1",
		Configs: []UMIConfiguration{
			{Symbol: "X", Order: 0, SortType: DegenerateTag, Length: 4, MaxGaps: &badGaps},
		},
	}
	assert.Error(t, rl.Validate("XXXX"))
}

func TestReferenceLayoutValidateKnownTagNeedsFile(t *testing.T) {
	rl := &ReferenceLayout{
		ReferenceName: "amplicon1",
		Configs: []UMIConfiguration{
			{Symbol: "B", Order: 0, SortType: KnownTag, Length: 4},
		},
	}
	assert.Error(t, rl.Validate("BBBB"))
}

func TestAnnotateReference(t *testing.T) {
	ref, err := reference.New("amplicon1", "AACCGGGGTTAA", 4)
	require.NoError(t, err)

	cfgs := []UMIConfiguration{
		{Symbol: "X", Order: 0, Length: 2},
		{Symbol: "B", Order: 1, Length: 4, Pad: 0},
	}
	annotated, err := AnnotateReference(ref, cfgs)
	require.NoError(t, err)
	assert.Equal(t, "XXBBBBGGTTAA", string(annotated))
}

func TestAnnotateReferencePad(t *testing.T) {
	ref, err := reference.New("amplicon1", "AACCGGGGTTAA", 4)
	require.NoError(t, err)

	cfgs := []UMIConfiguration{
		{Symbol: "X", Order: 0, Length: 2, Pad: 2},
	}
	annotated, err := AnnotateReference(ref, cfgs)
	require.NoError(t, err)
	assert.Equal(t, "AAXXGGGGTTAA", string(annotated))
}

func TestAnnotateReferenceOverflow(t *testing.T) {
	ref, err := reference.New("amplicon1", "AACC", 4)
	require.NoError(t, err)

	cfgs := []UMIConfiguration{
		{Symbol: "X", Order: 0, Length: 40},
	}
	_, err = AnnotateReference(ref, cfgs)
	assert.Error(t, err)
}
