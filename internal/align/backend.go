package align

import (
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/scoring"
)

// Backend names the two interchangeable Aligner implementations spec §4.2
// requires.
type Backend string

const (
	BackendDP        Backend = "dp"
	BackendWavefront Backend = "wavefront"
)

// New constructs the requested back-end. maxRefLen sizes the DP back-end's
// preallocated workspace (spec §9); it is ignored by the wavefront
// back-end, which has no equivalent fixed-size buffer to preallocate.
func New(backend Backend, scores scoring.Affine, maxRefLen int) (Aligner, error) {
	switch backend {
	case BackendDP:
		return NewDPAligner(scores, maxRefLen), nil
	case BackendWavefront:
		return NewWavefrontAligner(), nil
	default:
		return nil, errors.Errorf("align: unknown backend %q", backend)
	}
}
