package align

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/fbase"
)

// Op is a single CIGAR operation kind.
type Op byte

const (
	OpMatch    Op = 'M' // match or mismatch (aligner doesn't distinguish in the run-length encoding)
	OpInsert   Op = 'I' // gap in the reference (insertion relative to reference)
	OpDelete   Op = 'D' // gap in the read (deletion relative to reference)
	OpInvOpen  Op = 'O' // inversion-region open marker; carried for forward compatibility, never emitted by current back-ends
	OpInvClose Op = 'C' // inversion-region close marker; see OpInvOpen
)

// Run is one run-length-encoded CIGAR element.
type Run struct {
	Op Op
	N  int
}

// CIGAR is an ordered sequence of Runs.
type CIGAR []Run

// String renders the CIGAR in standard run-length notation, e.g. "14M5D11M".
func (c CIGAR) String() string {
	var b strings.Builder
	for _, r := range c {
		b.WriteString(strconv.Itoa(r.N))
		b.WriteByte(byte(r.Op))
	}
	return b.String()
}

// Normalize merges adjacent runs of the same kind. Inversion markers
// (OpInvOpen/OpInvClose) are deliberately excluded from merging: spec §4.2
// requires they remain distinct boundary markers even when adjacent to a
// run of their own kind.
func Normalize(c CIGAR) CIGAR {
	if len(c) == 0 {
		return c
	}
	out := make(CIGAR, 0, len(c))
	out = append(out, c[0])
	for _, r := range c[1:] {
		last := &out[len(out)-1]
		if r.Op == last.Op && r.Op != OpInvOpen && r.Op != OpInvClose {
			last.N += r.N
			continue
		}
		out = append(out, r)
	}
	return out
}

// Replay reconstructs the aligned reference and aligned read sequences
// from the ungapped reference, the ungapped read, and a CIGAR describing
// how they were aligned. It is the inverse of producing a CIGAR from an
// aligned pair, and is used both to verify alignment output (spec §8
// testable property 4) and to import pre-aligned BAM records (spec §4.3).
func Replay(cigar CIGAR, ref, read fbase.Sequence) (alignedRef, alignedRead fbase.Sequence, err error) {
	var ri, qi int
	for _, r := range cigar {
		switch r.Op {
		case OpMatch:
			if ri+r.N > len(ref) || qi+r.N > len(read) {
				return nil, nil, errors.Errorf("align: CIGAR match run of %d exceeds sequence bounds (ref %d/%d, read %d/%d)", r.N, ri, len(ref), qi, len(read))
			}
			alignedRef = append(alignedRef, ref[ri:ri+r.N]...)
			alignedRead = append(alignedRead, read[qi:qi+r.N]...)
			ri += r.N
			qi += r.N
		case OpDelete:
			if ri+r.N > len(ref) {
				return nil, nil, errors.Errorf("align: CIGAR delete run of %d exceeds reference bounds (%d/%d)", r.N, ri, len(ref))
			}
			alignedRef = append(alignedRef, ref[ri:ri+r.N]...)
			for i := 0; i < r.N; i++ {
				alignedRead = append(alignedRead, fbase.Gap)
			}
			ri += r.N
		case OpInsert:
			if qi+r.N > len(read) {
				return nil, nil, errors.Errorf("align: CIGAR insert run of %d exceeds read bounds (%d/%d)", r.N, qi, len(read))
			}
			for i := 0; i < r.N; i++ {
				alignedRef = append(alignedRef, fbase.Gap)
			}
			alignedRead = append(alignedRead, read[qi:qi+r.N]...)
			qi += r.N
		case OpInvOpen, OpInvClose:
			// Markers consume no sequence; preserved as boundaries only.
		default:
			return nil, nil, errors.Errorf("align: unknown CIGAR op %q", byte(r.Op))
		}
	}
	if len(alignedRef) != len(alignedRead) {
		return nil, nil, errors.Errorf("align: replay produced unequal aligned lengths (%d vs %d)", len(alignedRef), len(alignedRead))
	}
	return alignedRef, alignedRead, nil
}

// RecoverResultFromCIGAR builds a Result from a pre-aligned BAM record
// without running either back-end: it replays cigar against the ungapped
// reference and read to reconstruct the aligned pair, per spec §4.3's
// "Pre-aligned BAM" input path and §6's CIGAR-replay import contract.
// Score is left at zero since a pre-aligned record carries no back-end
// score to recover.
func RecoverResultFromCIGAR(cigar CIGAR, reference, read fbase.Sequence, refName, readName string, quality []byte) (*Result, error) {
	alignedRef, alignedRead, err := Replay(cigar, reference, read)
	if err != nil {
		return nil, errors.Wrapf(err, "recovering alignment for read %q against %q", readName, refName)
	}
	return &Result{
		AlignedRef:  alignedRef,
		AlignedRead: alignedRead,
		Qualities:   quality,
		CIGAR:       cigar,
		RefName:     refName,
		ReadName:    readName,
	}, nil
}

// FromAlignedPair derives the (unnormalized) CIGAR run sequence implied by
// an already-gapped aligned reference/read pair of equal length.
func FromAlignedPair(alignedRef, alignedRead fbase.Sequence) (CIGAR, error) {
	if len(alignedRef) != len(alignedRead) {
		return nil, errors.Errorf("align: aligned pair must have equal length, got %d and %d", len(alignedRef), len(alignedRead))
	}
	var cigar CIGAR
	for i := range alignedRef {
		var op Op
		switch {
		case alignedRef[i] == fbase.Gap:
			op = OpInsert
		case alignedRead[i] == fbase.Gap:
			op = OpDelete
		default:
			op = OpMatch
		}
		if n := len(cigar); n > 0 && cigar[n-1].Op == op {
			cigar[n-1].N++
		} else {
			cigar = append(cigar, Run{Op: op, N: 1})
		}
	}
	return cigar, nil
}
