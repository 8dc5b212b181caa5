package layout

import (
	"strings"

	"github.com/pkg/errors"
)

// Validate enforces the invariants spec §6/§7 require of a layout:
// unique tag symbols per reference, unique sort orders per reference,
// every MaxGaps (when present) in [0,1], and -- given the reference's
// annotated ASCII sequence -- that every declared symbol actually occurs
// in it. A violation here is a fatal "layout/reference validation
// failure" per spec §6's exit-code contract.
func (r *ReferenceLayout) Validate(annotatedRefASCII string) error {
	seenSymbols := make(map[byte]bool)
	seenOrders := make(map[int]bool)
	for _, cfg := range r.Configs {
		sym := cfg.SymbolByte()
		if sym == 0 {
			return errors.Errorf("layout: reference %q has a UMI configuration with no symbol", r.ReferenceName)
		}
		if seenSymbols[sym] {
			return errors.Errorf("layout: reference %q declares duplicate tag symbol %q", r.ReferenceName, string(sym))
		}
		seenSymbols[sym] = true

		if seenOrders[cfg.Order] {
			return errors.Errorf("layout: reference %q declares duplicate sort order %d", r.ReferenceName, cfg.Order)
		}
		seenOrders[cfg.Order] = true

		if cfg.MaxGaps != nil && (*cfg.MaxGaps < 0 || *cfg.MaxGaps > 1) {
			return errors.Errorf("layout: reference %q tag %q has max_gaps %v outside [0,1]", r.ReferenceName, string(sym), *cfg.MaxGaps)
		}

		if cfg.SortType == KnownTag && cfg.File == "" {
			return errors.Errorf("layout: reference %q tag %q is a known-list tag with no file", r.ReferenceName, string(sym))
		}

		if !strings.ContainsRune(annotatedRefASCII, rune(sym)) {
			return errors.Errorf("layout: reference %q declares capture region %q that does not appear in the reference", r.ReferenceName, string(sym))
		}
	}
	return nil
}
