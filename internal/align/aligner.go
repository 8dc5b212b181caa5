// Package align exposes two interchangeable alignment back-ends -- an
// affine-gap dynamic-programming aligner and a wavefront aligner wrapping
// github.com/shenwei356/wfa -- behind a single Aligner contract that
// produces a normalized Result and CIGAR, grounded on the back-end-neutral
// shape of original_source's alignment_functions.rs.
package align

import (
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/fbase"
)

// Mode selects the alignment strategy.
type Mode int

const (
	// Global requires the alignment to span both sequences end to end.
	Global Mode = iota
	// Local finds the highest-scoring substring alignment.
	Local
	// SemiGlobal does not penalize terminal gaps in either sequence.
	SemiGlobal
)

// Bounds optionally restricts the alignment window, e.g. to a band around
// an anchor position; nil means unrestricted.
type Bounds struct {
	RefStart, RefEnd   int
	ReadStart, ReadEnd int
}

// Result is the normalized output of an alignment: two equal-length gapped
// sequences, the CIGAR relating them to their ungapped originals, a score,
// and bookkeeping for where each sequence begins within its full original
// (used when Bounds or semi-global clipping leaves flanking bases out of
// the alignment).
type Result struct {
	AlignedRef  fbase.Sequence
	AlignedRead fbase.Sequence
	Qualities   []byte // optional, parallel to AlignedRead with gaps omitted; nil if unavailable

	CIGAR CIGAR
	Score float64

	RefStart  int
	ReadStart int

	RefName  string
	ReadName string
}

// Aligner is the contract both back-ends satisfy.
type Aligner interface {
	// Align aligns read against reference under mode, optionally
	// restricted to bounds (nil for unrestricted), and returns a
	// normalized Result.
	Align(reference, read fbase.Sequence, mode Mode, bounds *Bounds) (*Result, error)
}

// degenerateResult builds the "all-gaps padding" result spec §4.2 mandates
// when either input sequence is empty: the non-empty sequence (if any) is
// aligned against a run of gaps the same length.
func degenerateResult(reference, read fbase.Sequence, refName, readName string) *Result {
	n := len(reference)
	if len(read) > n {
		n = len(read)
	}
	alignedRef := make(fbase.Sequence, n)
	alignedRead := make(fbase.Sequence, n)
	for i := 0; i < n; i++ {
		if i < len(reference) {
			alignedRef[i] = reference[i]
		} else {
			alignedRef[i] = fbase.Gap
		}
		if i < len(read) {
			alignedRead[i] = read[i]
		} else {
			alignedRead[i] = fbase.Gap
		}
	}
	var cigar CIGAR
	if n > 0 {
		op := OpMatch
		switch {
		case len(reference) == 0 && len(read) > 0:
			op = OpInsert
		case len(read) == 0 && len(reference) > 0:
			op = OpDelete
		}
		cigar = CIGAR{{Op: op, N: n}}
	}
	return &Result{
		AlignedRef:  alignedRef,
		AlignedRead: alignedRead,
		CIGAR:       cigar,
		RefName:     refName,
		ReadName:    readName,
	}
}

// wrapErr attaches the input names to an alignment back-end error, per
// spec §4.2's "caller surfaces it with the input names attached".
func wrapErr(err error, refName, readName string) error {
	return errors.Wrapf(err, "aligning read %q against reference %q", readName, refName)
}
