// Package scoring holds the parameter objects used by internal/align's
// back-ends, grounded on the AffineScoring/InversionScoring structs of the
// source this pipeline was distilled from (rust_cmd/src/alignment/scoring_functions.rs):
// match/mismatch/N-bonus/gap-open/gap-extend/terminal-gap-multiplier for
// affine DP, plus an inversion-aware superset whose inversion-specific
// fields are carried for forward compatibility (spec's open question) but
// not consumed by any back-end yet.
package scoring

import "github.com/mckennalab/cabal/internal/fbase"

// Affine holds the parameters for gap-affine alignment, matching the
// EMBOSS-WATER-like defaults the original pipeline ships.
type Affine struct {
	Match                float64
	Mismatch             float64
	NBonus               float64
	GapOpen              float64
	GapExtend            float64
	TerminalGapMultiplier float64
}

// DefaultAffine mirrors AffineScoring::default() in the source pipeline.
func DefaultAffine() Affine {
	return Affine{
		Match:                 5.0,
		Mismatch:              -4.0,
		NBonus:                -2.0,
		GapOpen:               -10.0,
		GapExtend:             -0.5,
		TerminalGapMultiplier: 0.5,
	}
}

// Primitive is the single match/mismatch scoring function every DP back-end
// uses. It returns NBonus when the two bases compare equal under
// degeneracy AND either one is the fully-degenerate base N; otherwise the
// ordinary match/mismatch score applies.
func Primitive(a, b fbase.Base, s Affine) float64 {
	if !fbase.Identity(a, b) {
		return s.Mismatch
	}
	if a == fbase.N || b == fbase.N {
		return s.NBonus
	}
	return s.Match
}

// Inversion extends Affine with inversion-specific parameters. The source
// pipeline carries these for an inversion-aware DP variant it leaves
// commented out; cabal keeps the type (and its penalty fields) so a future
// back-end can opt into inversion scoring without a data-model change, but
// no current Aligner implementation reads InversionPenalty or
// MinInversionLength.
type Inversion struct {
	Affine
	InversionPenalty   float64
	MinInversionLength int
}

// DefaultInversion mirrors InversionScoring::default() in the source
// pipeline.
func DefaultInversion() Inversion {
	return Inversion{
		Affine: Affine{
			Match:     9.0,
			Mismatch:  -21.0,
			GapOpen:   -25.0,
			GapExtend: -1.0,
		},
		InversionPenalty:   -40.0,
		MinInversionLength: 20,
	}
}

// POAPenalties holds the fixed partial-order-alignment penalties spec
// §4.8 mandates. SecondAffineOpen/SecondAffineExtend are carried, matching
// the inversion-parameter precedent, for a second affine gap plane the
// current threading implementation doesn't exercise.
type POAPenalties struct {
	Match             int
	Mismatch          int
	GapOpen           int
	GapExtend         int
	SecondAffineOpen  int
	SecondAffineExtend int
}

// DefaultPOAPenalties matches spec §4.8: match 5, mismatch -4, gap-open -3,
// gap-extend -1, second-affine -3/-1.
func DefaultPOAPenalties() POAPenalties {
	return POAPenalties{
		Match:              5,
		Mismatch:           -4,
		GapOpen:            -3,
		GapExtend:          -1,
		SecondAffineOpen:   -3,
		SecondAffineExtend: -1,
	}
}
