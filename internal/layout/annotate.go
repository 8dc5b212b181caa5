package layout

import (
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/reference"
)

// AnnotateReference replaces each capture region's ASCII characters with
// its tag's symbol, producing the annotated reference internal/capture
// consumes. Each UMIConfiguration's Length (plus Pad on either side, when
// set) carves a contiguous run out of ref's ASCII sequence starting
// immediately after the previous configuration's region, in Order.
//
// This assumes a layout where capture regions appear in the reference in
// the same order as their declared Order -- the only ordering the layout
// file can express, and the one every reference in spec's examples uses.
func AnnotateReference(ref *reference.Reference, cfgs []UMIConfiguration) ([]byte, error) {
	out := []byte(ref.ASCII)
	cursor := 0
	for _, cfg := range cfgs {
		sym := cfg.SymbolByte()
		if sym == 0 {
			return nil, errors.Errorf("layout: configuration at order %d has no symbol", cfg.Order)
		}
		start := cursor + cfg.Pad
		end := start + cfg.Length
		if end > len(out) {
			return nil, errors.Errorf("layout: tag %q region [%d,%d) exceeds reference length %d", string(sym), start, end, len(out))
		}
		for i := start; i < end; i++ {
			out[i] = sym
		}
		cursor = end + cfg.Pad
	}
	return out, nil
}
