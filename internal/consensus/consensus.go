// Package consensus implements spec §4.8's terminal stage: given a bin of
// containers sharing every sorted tag key, draw a bounded sample, thread
// the sample through partial-order alignment, re-align the resulting
// consensus to the bin's majority reference, and emit a single annotated
// alignment record. Grounded on
// original_source/rust_cmd/src/consensus/consensus_builders.rs's
// bin->downsample->POA->realign->emit pipeline, with the downsample step's
// seeded-per-worker math/rand.Rand idiom grounded on
// grailbio-bio/markduplicates/optical.go's rand.New(rand.NewSource(...))
// pattern.
package consensus

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/poa"
	"github.com/mckennalab/cabal/internal/reference"
	"github.com/mckennalab/cabal/internal/scoring"
	"github.com/mckennalab/cabal/internal/sortkey"
)

// poaConsensus threads every member through internal/poa with spec
// §4.8's fixed penalties and trims the trailing sentinel byte every
// member carries, per poa.AlignAndThread's documented contract.
func poaConsensus(members [][]byte) ([]byte, error) {
	out, err := poa.AlignAndThread(members, scoring.DefaultPOAPenalties())
	if err != nil {
		return nil, err
	}
	if len(out) > 0 && out[len(out)-1] == 0x00 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// BamRecord is the single alignment record consensus.Builder emits per
// bin; internal/bamio translates it into a biogo/hts/sam record.
type BamRecord struct {
	Name     string
	RefName  string
	Sequence fbase.Sequence
	CIGAR    align.CIGAR
	Score    float64

	// Aux carries the fixed tags spec §4.8 names (rc, dc, ar, rm, as)
	// plus one entry per sort-level tag symbol, keyed by that symbol's
	// single-character string form.
	Aux map[string]string
}

// Opts configures a Builder.
type Opts struct {
	// DownsampleCap bounds the number of reads POA-threaded per bin; a
	// larger bin is sampled without replacement down to this size.
	// Zero disables downsampling.
	DownsampleCap int
}

// Builder collapses bins into consensus records. newAligner is called
// once per multi-member Collapse to produce a fresh Global-mode aligner
// for the re-alignment step, so no aligner workspace is shared between
// Collapse calls.
type Builder struct {
	Opts       Opts
	Refs       *reference.Manager
	newAligner func() align.Aligner
	rng        *rand.Rand
}

// NewBuilder builds a Builder. seed pins the downsample sampling so bin
// collapse is reproducible for a fixed input order and seed, per spec
// §9's "tests should pin a seed" and property 8 (bin stability).
func NewBuilder(opts Opts, refs *reference.Manager, newAligner func() align.Aligner, seed int64) *Builder {
	return &Builder{
		Opts:       opts,
		Refs:       refs,
		newAligner: newAligner,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Collapse implements spec §4.8's per-bin pipeline. bin must be
// non-empty; its containers are expected to share every resolved sorted
// key (the sort driver's terminal stage guarantees this via
// cluster.DetectBins).
func (b *Builder) Collapse(bin []*sortkey.Container) (*BamRecord, error) {
	if len(bin) == 0 {
		return nil, errors.New("consensus: empty bin")
	}

	raw := bin
	sampled := b.downsample(bin)

	if len(sampled) == 1 {
		return b.singleton(raw, sampled[0])
	}

	members := make([][]byte, len(sampled))
	names := make([]string, len(sampled))
	for i, c := range sampled {
		stripped := fbase.StripGaps(c.Alignment.AlignedRead)
		members[i] = append([]byte(stripped.String()), 0x00)
		names[i] = c.Alignment.ReadName
	}

	consensusBytes, err := poaConsensus(members)
	if err != nil {
		return nil, errors.Wrap(err, "consensus: POA threading")
	}
	consensusSeq := fbase.FromStringDefaultN(string(consensusBytes))

	ref, err := b.majorityReference(sampled)
	if err != nil {
		return nil, err
	}

	result, err := b.newAligner().Align(ref.Bases, consensusSeq, align.Global, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "consensus: re-aligning consensus to %q", ref.Name)
	}
	result.RefName = ref.Name

	rec := &BamRecord{
		Name:     strings.Join(names, ";"),
		RefName:  ref.Name,
		Sequence: consensusSeq,
		CIGAR:    result.CIGAR,
		Score:    result.Score,
		Aux:      auxTags(raw, sampled, names, matchedFraction(result.AlignedRef, result.AlignedRead), result.Score),
	}
	return rec, nil
}

// singleton bypasses POA and re-alignment per spec's "singleton bins
// bypass POA and re-alignment; the existing alignment is emitted
// directly" clause.
func (b *Builder) singleton(raw []*sortkey.Container, c *sortkey.Container) (*BamRecord, error) {
	a := c.Alignment
	rec := &BamRecord{
		Name:     a.ReadName,
		RefName:  a.RefName,
		Sequence: fbase.StripGaps(a.AlignedRead),
		CIGAR:    a.CIGAR,
		Score:    a.Score,
		Aux:      auxTags(raw, []*sortkey.Container{c}, []string{a.ReadName}, matchedFraction(a.AlignedRef, a.AlignedRead), a.Score),
	}
	return rec, nil
}

// downsample draws a uniform sample without replacement of Opts.DownsampleCap
// containers when the bin exceeds that size; otherwise it returns bin
// unchanged. Sampling is a Fisher-Yates partial shuffle over a copy of
// bin, so the input slice (and the caller's bin ordering) is left intact.
func (b *Builder) downsample(bin []*sortkey.Container) []*sortkey.Container {
	if b.Opts.DownsampleCap <= 0 || len(bin) <= b.Opts.DownsampleCap {
		return bin
	}
	pool := make([]*sortkey.Container, len(bin))
	copy(pool, bin)
	for i := 0; i < b.Opts.DownsampleCap; i++ {
		j := i + b.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:b.Opts.DownsampleCap]
}

// majorityReference picks the reference name most containers in sampled
// align against, breaking ties by lexicographically smallest name for
// determinism.
func (b *Builder) majorityReference(sampled []*sortkey.Container) (*reference.Reference, error) {
	counts := make(map[string]int)
	for _, c := range sampled {
		counts[c.Alignment.RefName]++
	}
	var names []string
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	ref, ok := b.Refs.GetByName(best)
	if !ok {
		return nil, errors.Errorf("consensus: majority reference %q not registered", best)
	}
	return ref, nil
}

// matchedFraction computes spec §4.8's rm tag: the matched-base fraction
// over overlapping non-gap positions of an aligned pair.
func matchedFraction(alignedRef, alignedRead fbase.Sequence) float64 {
	matched, total := 0, 0
	n := len(alignedRef)
	if len(alignedRead) < n {
		n = len(alignedRead)
	}
	for i := 0; i < n; i++ {
		if alignedRef[i] == fbase.Gap || alignedRead[i] == fbase.Gap {
			continue
		}
		total++
		if fbase.StrictIdentity(alignedRef[i], alignedRead[i]) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// auxTags builds the fixed rc/dc/ar/rm/as tags plus one tag per resolved
// sort key, read off the first sampled container (every container in the
// bin shares identical resolved SortedKeys by construction).
func auxTags(raw []*sortkey.Container, sampled []*sortkey.Container, names []string, rm float64, score float64) map[string]string {
	aux := map[string]string{
		"rc": strconv.Itoa(len(raw)),
		"dc": strconv.Itoa(len(sampled)),
		"ar": strings.Join(names, ","),
		"rm": strconv.FormatFloat(rm, 'f', 4, 64),
		"as": strconv.FormatFloat(score, 'f', 2, 64),
	}
	for _, k := range sampled[0].SortedKeys {
		aux[string(k.Symbol)] = k.Value.String()
	}
	return aux
}
