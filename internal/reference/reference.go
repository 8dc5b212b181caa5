// Package reference holds the set of references an alignment run is
// configured against: each Reference carries both its ASCII form (for
// layout annotation and k-mer anchoring) and its bit-encoded form (for
// alignment), plus a k-mer index used to pick the best-matching reference
// when more than one is configured.
//
// Grounded on biogo-hts/fai's name-indexed Record map, generalized from
// byte-offset indexing (appropriate for seeking within a large genome
// file) to k-mer position indexing (appropriate for aligning short reads
// against a handful of short amplicon references).
package reference

import (
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/fbase"
)

// DefaultK is the default k-mer anchor length; spec allows 8-20.
const DefaultK = 12

// Reference is a single named sequence together with its k-mer anchor
// index.
type Reference struct {
	Name  string
	ASCII string
	Bases fbase.Sequence

	k       int
	anchors map[string][]int
}

// New builds a Reference from its name and ASCII sequence, constructing a
// k-mer anchor index with k-mer length k (0 selects DefaultK).
func New(name, ascii string, k int) (*Reference, error) {
	if ascii == "" {
		return nil, errors.Errorf("reference %q: empty sequence", name)
	}
	if k <= 0 {
		k = DefaultK
	}
	bases, err := fbase.FromString(ascii)
	if err != nil {
		return nil, errors.Wrapf(err, "reference %q", name)
	}
	r := &Reference{
		Name:  name,
		ASCII: ascii,
		Bases: bases,
		k:     k,
	}
	r.buildAnchors()
	return r, nil
}

func (r *Reference) buildAnchors() {
	r.anchors = make(map[string][]int)
	if len(r.ASCII) < r.k {
		return
	}
	for i := 0; i+r.k <= len(r.ASCII); i++ {
		kmer := r.ASCII[i : i+r.k]
		r.anchors[kmer] = append(r.anchors[kmer], i)
	}
}

// K returns the k-mer length this reference was indexed with.
func (r *Reference) K() int { return r.k }

// AnchorPositions returns every position at which kmer occurs in the
// reference's ASCII sequence.
func (r *Reference) AnchorPositions(kmer string) []int {
	return r.anchors[kmer]
}

// Len returns the length of the reference sequence.
func (r *Reference) Len() int { return len(r.Bases) }
