// Package fbase implements the bit-packed nucleotide algebra that every
// other package in cabal uses as its comparison primitive: a Base is a
// 4-bit value over {A,C,G,T}, degenerate (IUPAC) codes are bitwise unions
// of those four bits, and equality between two bases is defined as a
// non-zero bitwise AND rather than raw numeric equality, so that N
// compares equal to anything and R (A|G) compares equal to K (G|T)
// through their shared G bit.
package fbase

import (
	"fmt"

	"github.com/pkg/errors"
)

// Base is a 4-bit-packed nucleotide code, with the gap/unset value stored
// in the fifth bit so it never collides with (and never equality-matches)
// a real base.
type Base uint8

// Canonical base values. Degenerate codes are bitwise unions of these.
const (
	A Base = 0x1
	C Base = 0x2
	G Base = 0x4
	T Base = 0x8

	// R, Y, K, M, S, W, B, D, H, V are the IUPAC two-/three-base
	// degeneracy codes, each the union of the bases it stands for.
	R = A | G
	Y = C | T
	K = G | T
	M = A | C
	S = C | G
	W = A | T
	B = C | G | T
	D = A | G | T
	H = A | C | T
	V = A | C | G

	// N is fully degenerate: it compares equal to every canonical base.
	N Base = 0xF

	// Gap is the "unset"/alignment-gap value. It lives outside the 4-bit
	// nibble used by real bases, so ANDing it against any base (including
	// N) is always zero: a gap matches nothing, not even itself under
	// Identity.
	Gap Base = 0x10
)

var encodeTable = map[byte]Base{
	'A': A, 'C': C, 'G': G, 'T': T,
	'R': R, 'Y': Y, 'K': K, 'M': M, 'S': S, 'W': W,
	'B': B, 'D': D, 'H': H, 'V': V,
	'N': N,
	'-': Gap,
}

var decodeTable = map[Base]byte{
	A: 'A', C: 'C', G: 'G', T: 'T',
	R: 'R', Y: 'Y', K: 'K', M: 'M', S: 'S', W: 'W',
	B: 'B', D: 'D', H: 'H', V: 'V',
	N: 'N',
	Gap: '-',
}

// complementTable is the fixed IUPAC complement: A<->T, C<->G, and each
// degenerate code maps to the degenerate code of its complemented bases
// (e.g. R=A|G complements to Y=T|C). N and Gap complement to themselves.
var complementTable = map[Base]Base{
	A: T, T: A, C: G, G: C,
	R: Y, Y: R, K: M, M: K, S: W, W: S,
	B: V, V: B, D: H, H: D,
	N:   N,
	Gap: Gap,
}

// ErrInvalidBase is returned by Encode when the input byte is not one of
// the recognized IUPAC codes or the gap character.
var ErrInvalidBase = errors.New("fbase: invalid base character")

// Encode converts an ASCII nucleotide character (case-insensitive) to its
// Base value. It fails on any byte outside the IUPAC alphabet plus '-'.
func Encode(ch byte) (Base, error) {
	b, ok := encodeTable[upper(ch)]
	if !ok {
		return 0, errors.Wrapf(ErrInvalidBase, "character %q (0x%02x)", ch, ch)
	}
	return b, nil
}

// EncodeOrN behaves like Encode but substitutes N for any unrecognized
// byte instead of failing. The explicit gap character is still preserved.
func EncodeOrN(ch byte) Base {
	if upper(ch) == '-' {
		return Gap
	}
	if b, ok := encodeTable[upper(ch)]; ok {
		return b
	}
	return N
}

// Decode returns the canonical uppercase ASCII character for a Base. It
// panics if b is not one of the canonical codes or the gap value, mirroring
// the original implementation's contract that Decode is total only on
// values that can legitimately occur.
func Decode(b Base) byte {
	ch, ok := decodeTable[b]
	if !ok {
		panic(fmt.Sprintf("fbase: Decode called on non-canonical value 0x%02x", uint8(b)))
	}
	return ch
}

// Identity reports whether a and b are degeneracy-equal: true iff their
// bitwise AND is non-zero. A gap never satisfies Identity with anything,
// including another gap, because Gap's bit pattern is disjoint from every
// base's nibble.
func Identity(a, b Base) bool {
	return a&b&N != 0
}

// StrictIdentity reports raw, non-degenerate equality: used where exact
// canonicalization matters, such as comparing sort keys that have already
// been corrected against a known list.
func StrictIdentity(a, b Base) bool {
	return a == b
}

// Complement returns the fixed-table complement of b.
func Complement(b Base) Base {
	c, ok := complementTable[b]
	if !ok {
		panic(fmt.Sprintf("fbase: Complement called on non-canonical value 0x%02x", uint8(b)))
	}
	return c
}

// Less orders bases by raw numeric value. The ordering is stable (useful
// for deterministic sort keys) but carries no biological meaning.
func Less(a, b Base) bool {
	return a < b
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - ('a' - 'A')
	}
	return ch
}
