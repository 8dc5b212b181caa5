package align

import "github.com/mckennalab/cabal/internal/fbase"

// RecoverFromCIGAR reconstructs the aligned reference and aligned read
// sequences from a read, its reference start offset, a CIGAR, and the
// full reference -- without re-running either aligner back-end. Used when
// importing pre-aligned BAM records (spec §4.3/§6).
func RecoverFromCIGAR(read fbase.Sequence, refStart int, cigar CIGAR, reference fbase.Sequence) (alignedRef, alignedRead fbase.Sequence, err error) {
	refEnd := refStart
	for _, r := range cigar {
		if r.Op == OpMatch || r.Op == OpDelete {
			refEnd += r.N
		}
	}
	if refEnd > len(reference) {
		refEnd = len(reference)
	}
	return Replay(cigar, reference[refStart:refEnd], read)
}
