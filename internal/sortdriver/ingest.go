package sortdriver

import (
	"sync"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/capture"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/sortkey"
	"github.com/mckennalab/cabal/internal/store"
)

// IngestStats counts what happened to every read the align-and-stage
// phase saw, per spec §4.7/§7's policy-drop taxonomy.
type IngestStats struct {
	Input         int
	Accepted      int
	AlignErrors   int
	UnderLength   int
	OverLength    int
	GapRejected   int
}

// Ingest reads off reads, aligning and tagging each one with a worker
// from a pool of width Opts.Parallelism, and writes every accepted
// container into a fresh sharded store at storeDir. Workers align reads
// concurrently but share a single store.Writer guarded by a mutex (spec
// §5: "producers... serialize writes but not alignments"), mirroring
// mark_duplicates.go's generateBAM compressor-per-worker /
// writer-shared-via-queue split.
func (d *Driver) Ingest(reads <-chan RawRead, storeDir string) (*IngestStats, error) {
	w, err := store.NewWriter(storeDir, d.Opts.numBuckets())
	if err != nil {
		return nil, errors.Wrap(err, "sortdriver: creating ingest store")
	}

	stats := &IngestStats{}
	var statsMu sync.Mutex
	var writeMu sync.Mutex
	var firstErr error
	var errMu sync.Mutex

	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	var wg sync.WaitGroup
	for i := 0; i < d.Opts.parallelism(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			aligner := d.newAligner()
			for read := range reads {
				container, drop, err := d.alignAndStage(aligner, read)
				if err != nil {
					log.Error.Printf("sortdriver: alignment failed for read %s: %v", read.Name, err)
					statsMu.Lock()
					stats.Input++
					stats.AlignErrors++
					statsMu.Unlock()
					continue
				}

				statsMu.Lock()
				stats.Input++
				switch drop {
				case "":
					stats.Accepted++
				case dropUnderLength:
					stats.UnderLength++
				case dropOverLength:
					stats.OverLength++
				case dropGap:
					stats.GapRejected++
				}
				statsMu.Unlock()

				if drop != "" {
					logDrop(drop, read.Name, "")
					continue
				}

				writeMu.Lock()
				putErr := w.Put(container)
				writeMu.Unlock()
				if putErr != nil {
					recordErr(errors.Wrapf(putErr, "sortdriver: writing container for read %s", read.Name))
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return stats, firstErr
	}
	if err := w.Finish(); err != nil {
		return stats, errors.Wrap(err, "sortdriver: finishing ingest store")
	}
	return stats, nil
}

const (
	dropUnderLength = "under_length"
	dropOverLength  = "over_length"
	dropGap         = "gap_rejected"
)

// alignAndStage aligns one read against its best-matching reference,
// extracts every declared capture region, and applies spec §4.7's
// ingest-time drop rules. A non-empty drop reason means the read was
// rejected; the container is nil in that case. Errors are reserved for
// genuine alignment-backend failures (spec §7's non-fatal,
// per-read "Alignment errors" category); policy drops are reported via
// the returned reason instead.
func (d *Driver) alignAndStage(aligner align.Aligner, read RawRead) (*sortkey.Container, string, error) {
	if len(read.Sequence) == 0 {
		return nil, dropUnderLength, nil
	}

	kmers := kmersFromSequence(read.Sequence.String(), d.Opts.kmerWindow())
	ref, err := d.Refs.Best(kmers)
	if err != nil {
		return nil, "", errors.Wrap(err, "sortdriver: selecting reference")
	}

	result, err := aligner.Align(ref.Bases, read.Sequence, d.Opts.Mode, nil)
	if err != nil {
		return nil, "", errors.Wrapf(err, "sortdriver: aligning against %s", ref.Name)
	}
	result.RefName = ref.Name
	result.ReadName = read.Name
	result.Qualities = read.Quality

	return d.stageResult(result)
}

// stageResult applies spec §4.7's ingest-time drop rules and declared
// capture regions to an already-built alignment result, whether it came
// from one of the two alignment back-ends (alignAndStage) or was
// recovered by replaying a pre-aligned BAM record's CIGAR
// (IngestAligned). It is the shared tail both ingestion paths converge
// on: a read is staged the same way regardless of how its alignment was
// produced.
func (d *Driver) stageResult(result *align.Result) (*sortkey.Container, string, error) {
	ref, ok := d.Refs.GetByName(result.RefName)
	if !ok {
		return nil, "", errors.Errorf("sortdriver: no reference registered for %q", result.RefName)
	}

	refLen := ref.Len()
	readLen := len(fbase.StripGaps(result.AlignedRead))
	if d.Opts.MinRefLenRatio > 0 && float64(readLen) < d.Opts.MinRefLenRatio*float64(refLen) {
		return nil, dropUnderLength, nil
	}
	if d.Opts.MaxRefLenRatio > 0 && float64(readLen) > d.Opts.MaxRefLenRatio*float64(refLen) {
		return nil, dropOverLength, nil
	}

	rl := d.Layouts[ref.Name]
	if rl == nil {
		return nil, "", errors.Errorf("sortdriver: no layout configured for reference %q", ref.Name)
	}
	annotated := d.annotatedRefs[ref.Name]
	symbols := d.tagSymbols[ref.Name]
	report := capture.Extract(annotated, result.AlignedRef, result.AlignedRead, symbols)

	for _, cfg := range rl.Configs {
		if cfg.MaxGaps == nil {
			continue
		}
		buf := report.Tags[cfg.SymbolByte()]
		if capture.GapProportion(buf) > *cfg.MaxGaps {
			return nil, dropGap, nil
		}
	}

	ordered := rl.Ordered()
	symbolOrder := make([]byte, len(ordered))
	for i, cfg := range ordered {
		symbolOrder[i] = cfg.SymbolByte()
	}
	container := sortkey.NewContainer(result, symbolOrder)
	return container, "", nil
}

// IngestAligned writes a store of containers built from already-aligned
// results -- spec §4.3/§6's "pre-aligned BAM" input path -- applying the
// same drop policy and capture extraction alignAndStage applies to
// freshly-aligned reads, without running either alignment back-end.
// Unlike Ingest, there is no per-read alignment work to parallelize, so
// results are staged and written from a single goroutine.
func (d *Driver) IngestAligned(results <-chan *align.Result, storeDir string) (*IngestStats, error) {
	w, err := store.NewWriter(storeDir, d.Opts.numBuckets())
	if err != nil {
		return nil, errors.Wrap(err, "sortdriver: creating ingest store")
	}

	stats := &IngestStats{}
	for result := range results {
		stats.Input++
		container, drop, err := d.stageResult(result)
		if err != nil {
			return stats, errors.Wrapf(err, "sortdriver: staging pre-aligned read %s", result.ReadName)
		}
		if drop != "" {
			switch drop {
			case dropUnderLength:
				stats.UnderLength++
			case dropOverLength:
				stats.OverLength++
			case dropGap:
				stats.GapRejected++
			}
			logDrop(drop, result.ReadName, "")
			continue
		}
		stats.Accepted++
		if err := w.Put(container); err != nil {
			return stats, errors.Wrapf(err, "sortdriver: writing container for read %s", result.ReadName)
		}
	}

	if err := w.Finish(); err != nil {
		return stats, errors.Wrap(err, "sortdriver: finishing ingest store")
	}
	return stats, nil
}

// kmersFromSequence slices up to window overlapping k-mers out of the
// start of an ASCII sequence, the sliding-window sample
// reference.Manager.Best scores candidate references against.
func kmersFromSequence(ascii string, window int) []string {
	const k = 12 // matches reference.DefaultK
	if len(ascii) < k {
		return nil
	}
	maxStart := len(ascii) - k
	if maxStart > window {
		maxStart = window
	}
	kmers := make([]string, 0, maxStart+1)
	for i := 0; i <= maxStart; i++ {
		kmers = append(kmers, ascii[i:i+k])
	}
	return kmers
}
