// Package bamio writes the run's terminal BAM output and, for the
// "pre-aligned BAM" input path, reads one back in. Grounded on
// grailbio-bio/encoding/bam's use of github.com/biogo/hts/sam and
// github.com/biogo/hts/bam: a header carries one @SQ per layout
// reference (spec §6's output contract), and every emitted record's aux
// fields are built the same sam.NewAux(sam.NewTag(...), value) way
// markduplicates' own test helpers construct them.
//
// Unlike encoding/bam/shardedbam.go's sharded bgzf writer -- built for
// concurrent multi-shard genome-scale BAM output -- cabal's output is a
// single ordered stream of consensus records, so this package wraps
// biogo/hts/bam.Writer directly rather than reimplementing shard
// coordination that has no consumer here.
package bamio

import (
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/consensus"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/reference"
)

// NewHeader builds a sam.Header with one @SQ line per reference in refs,
// and a lookup from reference name to the *sam.Reference the header now
// owns (Writer.Write needs this to link a record to its reference).
func NewHeader(refs *reference.Manager) (*sam.Header, map[string]*sam.Reference, error) {
	var samRefs []*sam.Reference
	byName := make(map[string]*sam.Reference, refs.Len())
	for _, ref := range refs.All() {
		sr, err := sam.NewReference(ref.Name, "", "", ref.Len(), nil, nil)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "bamio: building @SQ for %q", ref.Name)
		}
		samRefs = append(samRefs, sr)
		byName[ref.Name] = sr
	}
	header, err := sam.NewHeader(nil, samRefs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "bamio: building header")
	}
	return header, byName, nil
}

// Writer emits consensus.BamRecords as BAM records.
type Writer struct {
	bw   *bam.Writer
	refs map[string]*sam.Reference
}

// NewWriter opens a BAM writer over w using header (as built by
// NewHeader) and refs (the name lookup NewHeader returned alongside it).
func NewWriter(w io.Writer, header *sam.Header, refs map[string]*sam.Reference) (*Writer, error) {
	bw, err := bam.NewWriter(w, header, 1)
	if err != nil {
		return nil, errors.Wrap(err, "bamio: opening BAM writer")
	}
	return &Writer{bw: bw, refs: refs}, nil
}

// Write converts rec to a sam.Record and writes it.
func (w *Writer) Write(rec *consensus.BamRecord) error {
	ref, ok := w.refs[rec.RefName]
	if !ok {
		return errors.Errorf("bamio: record %q names unregistered reference %q", rec.Name, rec.RefName)
	}
	cigar, err := toSamCigar(rec.CIGAR)
	if err != nil {
		return errors.Wrapf(err, "bamio: record %q", rec.Name)
	}

	aux := make([]sam.Aux, 0, len(rec.Aux))
	for tag, value := range rec.Aux {
		a, err := sam.NewAux(auxTag(tag), value)
		if err != nil {
			return errors.Wrapf(err, "bamio: record %q aux tag %q", rec.Name, tag)
		}
		aux = append(aux, a)
	}

	seq := []byte(rec.Sequence.String())
	r, err := sam.NewRecord(rec.Name, ref, nil, 0, -1, 0, 0, []sam.CigarOp(cigar), seq, nil, aux)
	if err != nil {
		return errors.Wrapf(err, "bamio: building record %q", rec.Name)
	}
	return w.bw.Write(r)
}

// Close flushes and closes the underlying BAM writer.
func (w *Writer) Close() error {
	return w.bw.Close()
}

// auxTag makes a two-byte sam.Tag out of a single-character sort-symbol
// key, or passes fixed two-character tags (rc/dc/ar/rm/as) through
// as-is; sam.Tag is always exactly two bytes, so a single-character
// symbol is padded with 'X' the way an ad hoc per-run tag would be
// disambiguated if it ever collided with a fixed tag name.
func auxTag(key string) sam.Tag {
	if len(key) >= 2 {
		return sam.NewTag(key[:2])
	}
	return sam.NewTag(key + "X")
}

// toSamCigar converts an align.CIGAR into a sam.Cigar. Inversion markers
// have no SAM representation and are never emitted by either alignment
// back-end today (spec's open question on inversion support); encountering
// one here is an invariant violation, not a recoverable per-record error.
func toSamCigar(c align.CIGAR) (sam.Cigar, error) {
	out := make(sam.Cigar, 0, len(c))
	for _, run := range c {
		var op sam.CigarOpType
		switch run.Op {
		case align.OpMatch:
			op = sam.CigarMatch
		case align.OpInsert:
			op = sam.CigarInsertion
		case align.OpDelete:
			op = sam.CigarDeletion
		default:
			return nil, errors.Errorf("bamio: CIGAR op %q has no SAM representation", byte(run.Op))
		}
		out = append(out, sam.NewCigarOp(op, run.N))
	}
	return out, nil
}

// ImportRecord builds a sortkey.Container-ready align.Result from a
// pre-aligned BAM record by replaying its CIGAR against the
// layout-annotated reference and the record's own ungapped read, per
// spec §4.3/§6's pre-aligned-BAM import path. It performs no alignment of
// its own.
func ImportRecord(r *sam.Record, refBases fbase.Sequence) (*align.Result, error) {
	if r.Ref == nil {
		return nil, errors.Errorf("bamio: record %q has no reference", r.Name)
	}
	cigar, err := fromSamCigar(r.Cigar)
	if err != nil {
		return nil, errors.Wrapf(err, "bamio: record %q", r.Name)
	}
	read, err := fbase.FromString(string(r.Seq.Expand()))
	if err != nil {
		return nil, errors.Wrapf(err, "bamio: record %q sequence", r.Name)
	}
	return align.RecoverResultFromCIGAR(cigar, refBases, read, r.Ref.Name(), r.Name, r.Qual)
}

func fromSamCigar(c sam.Cigar) (align.CIGAR, error) {
	out := make(align.CIGAR, 0, len(c))
	for _, op := range c {
		var a align.Op
		switch op.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			a = align.OpMatch
		case sam.CigarInsertion:
			a = align.OpInsert
		case sam.CigarDeletion:
			a = align.OpDelete
		default:
			return nil, errors.Errorf("bamio: unsupported CIGAR op %q on import", op.Type())
		}
		out = append(out, align.Run{Op: a, N: op.Len()})
	}
	return out, nil
}
