package fbase

import (
	"strings"

	"github.com/pkg/errors"
)

// Sequence is an ordered run of Bases. It round-trips with the ASCII
// alphabet {A,C,G,T,R,Y,K,M,S,W,B,D,H,V,N,-}, case-insensitive on input
// and always uppercase on output.
type Sequence []Base

// FromString encodes an ASCII string into a Sequence. It fails (rather
// than substituting N) on the first unrecognized character, so that
// malformed reference or layout input is caught early.
func FromString(s string) (Sequence, error) {
	seq := make(Sequence, len(s))
	for i := 0; i < len(s); i++ {
		b, err := Encode(s[i])
		if err != nil {
			return nil, errors.Wrapf(err, "position %d of %q", i, s)
		}
		seq[i] = b
	}
	return seq, nil
}

// FromStringDefaultN encodes an ASCII string into a Sequence, substituting
// N for any character outside the recognized alphabet. Used for raw read
// sequences, where a single sequencer artifact shouldn't abort ingest.
func FromStringDefaultN(s string) Sequence {
	seq := make(Sequence, len(s))
	for i := 0; i < len(s); i++ {
		seq[i] = EncodeOrN(s[i])
	}
	return seq
}

// String decodes a Sequence back to its uppercase ASCII representation.
func (s Sequence) String() string {
	var b strings.Builder
	b.Grow(len(s))
	for _, base := range s {
		b.WriteByte(Decode(base))
	}
	return b.String()
}

// StripGaps returns a copy of s with every Gap value removed.
func StripGaps(s Sequence) Sequence {
	out := make(Sequence, 0, len(s))
	for _, b := range s {
		if b != Gap {
			out = append(out, b)
		}
	}
	return out
}

// ReverseComplement applies the fixed complement table to each base, then
// reverses the result. It is an involution on canonical sequences:
// ReverseComplement(ReverseComplement(s)) == s.
func ReverseComplement(s Sequence) Sequence {
	out := make(Sequence, len(s))
	n := len(s)
	for i, b := range s {
		out[n-1-i] = Complement(b)
	}
	return out
}

// EditDistance counts the positions at which xs and ys fail Identity. It
// requires equal-length inputs, since it is a Hamming-style count over an
// already-aligned pair, not a general Levenshtein distance.
func EditDistance(xs, ys Sequence) (int, error) {
	if len(xs) != len(ys) {
		return 0, errors.Errorf("fbase: EditDistance requires equal length, got %d and %d", len(xs), len(ys))
	}
	d := 0
	for i := range xs {
		if !Identity(xs[i], ys[i]) {
			d++
		}
	}
	return d, nil
}

// Equal reports whether xs and ys have the same length and are
// Identity-equal at every position.
func Equal(xs, ys Sequence) bool {
	if len(xs) != len(ys) {
		return false
	}
	d, _ := EditDistance(xs, ys)
	return d == 0
}

// Compare performs a lexicographic, strict (non-degenerate) comparison of
// two sequences, used by sort keys that must be canonical. It returns -1,
// 0, or 1.
func Compare(xs, ys Sequence) int {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := 0; i < n; i++ {
		if xs[i] == ys[i] {
			continue
		}
		if Less(xs[i], ys[i]) {
			return -1
		}
		return 1
	}
	switch {
	case len(xs) < len(ys):
		return -1
	case len(xs) > len(ys):
		return 1
	default:
		return 0
	}
}
