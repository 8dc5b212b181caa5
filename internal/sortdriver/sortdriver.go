// Package sortdriver implements spec §4.7's sort driver: the staged
// pipeline that turns raw reads into a fully sorted, tag-corrected
// sharded store. Grounded on grailbio-bio/markduplicates/mark_duplicates.go's
// Opts struct and its goroutine-pool-plus-mutexed-writer idiom
// (generateBAM's shardChannel/workerGroup loop), re-targeted from
// duplicate-bagging to hierarchical tag sorting: align-and-stage is the
// analogue of mark_duplicates' per-shard BagProcessor pass, and each
// layout level (known-tag or degenerate-tag) is the analogue of one
// mark-duplicates pass over the sharded input.
package sortdriver

import (
	"sync"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/knownlist"
	"github.com/mckennalab/cabal/internal/layout"
	"github.com/mckennalab/cabal/internal/reference"
)

// RawRead is one input read as handed to the driver by a fastqio scanner
// or a pre-aligned BAM importer: a name, its primary (R1) sequence used
// for alignment, and optional per-base qualities. R2/I1/I2 are out of
// scope for tag extraction (spec's capture regions are declared against a
// single reference walk) and are not carried past ingest.
type RawRead struct {
	Name     string
	Sequence fbase.Sequence
	Quality  []byte
}

// Opts configures a Driver. It mirrors spec §6's layout/reference fields
// plus the concurrency and scratch-space knobs spec §5 calls for.
type Opts struct {
	// Parallelism is the worker-pool width for the align-and-stage
	// phase; sort stages themselves are single-threaded streaming
	// passes (spec §5: "clustering within a bin is single-threaded
	// because bins are typically small").
	Parallelism int

	// ScratchDir is the run-scoped temporary directory root under
	// which every level's shard store is created.
	ScratchDir string

	// NumBuckets is the sharded store's bucket count (DefaultBuckets
	// if zero).
	NumBuckets int

	// Mode is the alignment mode used at ingest. The zero value is
	// Global; cmd/cabal passes SemiGlobal unless -mode says otherwise:
	// reads are not expected to span the full reference
	// end-to-end the way Global alignment would require, and
	// terminal-gap leniency matches how amplicon reads are mapped in
	// practice.
	Mode align.Mode

	// MinRefLenRatio / MaxRefLenRatio bound an accepted read's length
	// as a multiple of its best-matching reference's length (spec
	// §4.7: "under-length read, over-length read (length > max_ref_mult
	// x ref_len)"). Zero disables the corresponding bound.
	MinRefLenRatio float64
	MaxRefLenRatio float64

	// KmerWindow is how many k-mers (of the reference's anchor length)
	// are sampled from a read's prefix to pick the best-matching
	// reference via reference.Manager.Best. Only relevant when more
	// than one reference is configured.
	KmerWindow int
}

func (o Opts) numBuckets() int {
	if o.NumBuckets <= 0 {
		return 0 // store.NewWriter substitutes DefaultBuckets
	}
	return o.NumBuckets
}

func (o Opts) parallelism() int {
	if o.Parallelism <= 0 {
		return 1
	}
	return o.Parallelism
}

func (o Opts) kmerWindow() int {
	if o.KmerWindow <= 0 {
		return 8
	}
	return o.KmerWindow
}

// Driver carries everything a sort run needs that doesn't change across
// levels: the reference set, one ReferenceLayout and annotated ASCII
// sequence per reference, and a cache of known-list indexes shared across
// every stage that reads the same file (spec §4.5: "built once per
// known-list file and shared across sort levels").
type Driver struct {
	Opts          Opts
	Refs          *reference.Manager
	Layouts       map[string]*layout.ReferenceLayout
	annotatedRefs map[string][]byte
	tagSymbols    map[string]map[byte]bool

	knownMu  sync.Mutex
	knownIdx map[string]*knownlist.Index

	newAligner func() align.Aligner
}

// NewDriver validates every reference's layout and precomputes its
// annotated ASCII sequence and tag-symbol set. newAligner is called once
// per ingest worker goroutine, giving each its own thread-local DP
// workspace per spec §5's hot-path requirement; pass a closure over
// align.NewDPAligner or align.NewWavefrontAligner.
func NewDriver(opts Opts, refs *reference.Manager, layouts map[string]*layout.ReferenceLayout, newAligner func() align.Aligner) (*Driver, error) {
	d := &Driver{
		Opts:          opts,
		Refs:          refs,
		Layouts:       layouts,
		annotatedRefs: make(map[string][]byte),
		tagSymbols:    make(map[string]map[byte]bool),
		knownIdx:      make(map[string]*knownlist.Index),
		newAligner:    newAligner,
	}
	for _, ref := range refs.All() {
		rl, ok := layouts[ref.Name]
		if !ok {
			continue
		}
		annotated, err := layout.AnnotateReference(ref, rl.Ordered())
		if err != nil {
			return nil, err
		}
		if err := rl.Validate(string(annotated)); err != nil {
			return nil, err
		}
		d.annotatedRefs[ref.Name] = annotated

		symbols := make(map[byte]bool, len(rl.Configs))
		for _, cfg := range rl.Configs {
			symbols[cfg.SymbolByte()] = true
		}
		d.tagSymbols[ref.Name] = symbols
	}
	return d, nil
}

// knownIndex returns the cached knownlist.Index for file, building it
// (under a mutex, so concurrent stages or workers never build it twice)
// on first use.
func (d *Driver) knownIndex(file string, maxDistance int, load func(string) ([]byte, error)) (*knownlist.Index, error) {
	d.knownMu.Lock()
	defer d.knownMu.Unlock()
	if idx, ok := d.knownIdx[file]; ok {
		return idx, nil
	}
	raw, err := load(file)
	if err != nil {
		return nil, errors.Wrapf(err, "sortdriver: reading known list %s", file)
	}
	idx, err := knownlist.NewIndex(raw, maxDistance)
	if err != nil {
		return nil, errors.Wrapf(err, "sortdriver: building known-list index %s", file)
	}
	d.knownIdx[file] = idx
	return idx, nil
}

// canonicalOrder returns the UMIConfiguration sequence that drives the
// stage loop. Every configured reference is expected to declare the same
// symbol/order schema (spec's "a small set of references known in
// advance" sharing one layout shape); the first reference's order is used
// as the canonical level sequence.
func (d *Driver) canonicalOrder() []layout.UMIConfiguration {
	for _, ref := range d.Refs.All() {
		if rl, ok := d.Layouts[ref.Name]; ok {
			return rl.Ordered()
		}
	}
	return nil
}

func logDrop(reason string, name string, detail string) {
	log.Debug.Printf("sortdriver: dropping read %s (%s): %s", name, reason, detail)
}
