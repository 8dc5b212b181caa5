package align

import (
	"sync"

	"github.com/shenwei356/wfa"

	"github.com/mckennalab/cabal/internal/fbase"
)

// WavefrontAligner is the semi-global wavefront back-end, wrapping
// github.com/shenwei356/wfa with the fixed penalty set spec §4.2 mandates
// (match 0, mismatch 4, gap-open 6, gap-extend 2). Per spec, this back-end
// is always semi-global; Mode is accepted for interface symmetry with
// DPAligner but otherwise ignored. Aligner objects are drawn from a
// sync.Pool and recycled per call, mirroring the library's own
// poolAligner/RecycleAligner idiom so repeated calls reuse its internal
// wavefront components instead of reallocating them.
type WavefrontAligner struct {
	pool *sync.Pool
}

var wavefrontOptions = &wfa.Options{GlobalAlignment: false}

// NewWavefrontAligner constructs a WavefrontAligner.
func NewWavefrontAligner() *WavefrontAligner {
	return &WavefrontAligner{
		pool: &sync.Pool{
			New: func() interface{} {
				return wfa.New(wfa.DefaultPenalties, wavefrontOptions)
			},
		},
	}
}

// Align implements Aligner.
func (a *WavefrontAligner) Align(reference, read fbase.Sequence, mode Mode, bounds *Bounds) (*Result, error) {
	if len(reference) == 0 || len(read) == 0 {
		return degenerateResult(reference, read, "", ""), nil
	}

	refSeq, readSeq := reference, read
	refOffset, readOffset := 0, 0
	if bounds != nil {
		refSeq = reference[bounds.RefStart:bounds.RefEnd]
		readSeq = read[bounds.ReadStart:bounds.ReadEnd]
		refOffset, readOffset = bounds.RefStart, bounds.ReadStart
	}

	algn := a.pool.Get().(*wfa.Aligner)
	defer a.pool.Put(algn)

	q := []byte(fbase.Sequence(readSeq).String())
	t := []byte(fbase.Sequence(refSeq).String())

	res, err := algn.Align(q, t)
	if err != nil {
		return nil, wrapErr(err, "", "")
	}
	defer wfa.RecycleAlignmentResult(res)

	qClip := q[res.QBegin-1:]
	tClip := t[res.TBegin-1:]
	qAligned, _, tAligned := res.AlignmentText(&qClip, &tClip)
	defer wfa.RecycleAlignmentText(qAligned, nil, tAligned)

	alignedRead, err1 := fbase.FromString(string(*qAligned))
	alignedRef, err2 := fbase.FromString(string(*tAligned))
	if err1 != nil {
		return nil, wrapErr(err1, "", "")
	}
	if err2 != nil {
		return nil, wrapErr(err2, "", "")
	}

	cigar := Normalize(parseWFACigar(res.CIGAR()))

	return &Result{
		AlignedRef:  alignedRef,
		AlignedRead: alignedRead,
		CIGAR:       cigar,
		Score:       float64(res.Score),
		RefStart:    refOffset + res.TBegin - 1,
		ReadStart:   readOffset + res.QBegin - 1,
	}, nil
}

// parseWFACigar converts wfa's run-length CIGAR string (runs of M/X/I/D)
// into cabal's CIGAR, collapsing M and X into a single OpMatch run per
// spec §4.2 ("a run-length CIGAR over bytes M, X, I, D, which is expanded
// ... to produce the aligned strings"). wfa's I/D are defined relative to
// its own (query, target) pair: I is a gap in the query, D is a gap in
// the target. Align calls algn.Align(q=read, t=ref), so a query gap is a
// gap in the read (cabal's OpDelete) and a target gap is a gap in the
// reference (cabal's OpInsert) -- the reverse of wfa's own letters.
func parseWFACigar(s string) CIGAR {
	var cigar CIGAR
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			continue
		}
		var op Op
		switch c {
		case 'M', 'X':
			op = OpMatch
		case 'I':
			op = OpDelete
		case 'D':
			op = OpInsert
		default:
			n = 0
			continue
		}
		cigar = append(cigar, Run{Op: op, N: n})
		n = 0
	}
	return cigar
}
