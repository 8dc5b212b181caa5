package sortdriver

import (
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/capture"
	"github.com/mckennalab/cabal/internal/cluster"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/layout"
	"github.com/mckennalab/cabal/internal/scoring"
	"github.com/mckennalab/cabal/internal/sortkey"
	"github.com/mckennalab/cabal/internal/store"
)

// StageStats counts what a single RunStage call did to the containers it
// saw, per spec §4.7's "each stage must be monotonic" accounting
// requirement.
type StageStats struct {
	Input     int
	Accepted  int
	Dropped   int
	Collision int
	Miss      int
}

// LoadKnownList reads a known-list file's raw bytes. cmd/cabal supplies
// the real implementation (ioutil.ReadFile); tests supply an in-memory
// fake so the package carries no direct filesystem dependency of its own.
type LoadKnownList func(path string) ([]byte, error)

// RunStage streams every container out of in, resolves the pending tag
// cfg declares (known-list correction or degenerate clustering,
// dispatched on cfg.SortType per spec §4.7), and writes every accepted,
// re-sorted container into a fresh store at outDir. Containers whose next
// pending symbol doesn't match cfg.SymbolByte() (possible in a
// multi-reference run where one reference's layout is shorter than
// another's) pass through unresolved at this level and are simply
// rewritten, preserving the stage's append-only sorted-key contract.
func (d *Driver) RunStage(level int, cfg layout.UMIConfiguration, in *store.Reader, outDir string, load LoadKnownList) (*StageStats, error) {
	symbol := cfg.SymbolByte()
	stats := &StageStats{}

	var containers []*sortkey.Container
	for {
		c, ok, err := in.Next()
		if err != nil {
			return stats, errors.Wrap(err, "sortdriver: reading stage input")
		}
		if !ok {
			break
		}
		stats.Input++
		containers = append(containers, c)
	}

	var accepted []*sortkey.Container
	var err error
	switch cfg.SortType {
	case layout.KnownTag:
		accepted, stats.Miss, stats.Collision, err = d.knownTagStage(symbol, cfg, containers, load)
	case layout.DegenerateTag:
		accepted, err = d.degenerateTagStage(symbol, cfg, containers)
	default:
		err = errors.Errorf("sortdriver: unknown sort_type %q for tag %q", cfg.SortType, string(symbol))
	}
	if err != nil {
		return stats, err
	}
	stats.Dropped = stats.Miss + stats.Collision
	stats.Accepted = len(accepted)

	if stats.Accepted > stats.Input {
		return stats, errors.Errorf("sortdriver: stage %d (%q) grew the container count (%d -> %d), violating monotonicity", level, string(symbol), stats.Input, stats.Accepted)
	}

	w, err := store.NewWriter(outDir, d.Opts.numBuckets())
	if err != nil {
		return stats, errors.Wrap(err, "sortdriver: creating stage output store")
	}
	for _, c := range accepted {
		if err := w.Put(c); err != nil {
			return stats, errors.Wrap(err, "sortdriver: writing stage output")
		}
	}
	if err := w.Finish(); err != nil {
		return stats, errors.Wrap(err, "sortdriver: finishing stage output")
	}

	log.Debug.Printf("sortdriver: stage %d (%q, %s): %d in, %d accepted, %d miss, %d collision",
		level, string(symbol), cfg.SortType, stats.Input, stats.Accepted, stats.Miss, stats.Collision)
	return stats, nil
}

// rawTagValue re-extracts the ungapped tag buffer for symbol from a
// container's alignment, re-running the capture extractor against the
// annotated reference its alignment names. Containers only carry resolved
// SortedKeys and the pending-symbol queue, not the raw capture buffers
// themselves (spec's container invariant keeps the record lean); every
// stage that needs a not-yet-resolved tag's raw value recomputes it this
// way, once, from the alignment it already carries.
func (d *Driver) rawTagValue(c *sortkey.Container, symbol byte) (fbase.Sequence, error) {
	refName := c.Alignment.RefName
	annotated, ok := d.annotatedRefs[refName]
	if !ok {
		return nil, errors.Errorf("sortdriver: no annotated reference for %q", refName)
	}
	symbols := d.tagSymbols[refName]
	report := capture.Extract(annotated, c.Alignment.AlignedRef, c.Alignment.AlignedRead, symbols)
	return fbase.StripGaps(report.Tags[symbol]), nil
}

// knownTagStage applies spec §4.5's decision policy to every container
// whose next pending tag is symbol.
func (d *Driver) knownTagStage(symbol byte, cfg layout.UMIConfiguration, containers []*sortkey.Container, load LoadKnownList) ([]*sortkey.Container, int, int, error) {
	idx, err := d.knownIndex(cfg.File, cfg.MaxDistance, load)
	if err != nil {
		return nil, 0, 0, err
	}

	var accepted []*sortkey.Container
	miss, collision := 0, 0
	for _, c := range containers {
		next, ok := c.PopPending()
		if !ok || next != symbol {
			if ok {
				c.PendingKeys = append([]sortkey.PendingKey{{Symbol: next}}, c.PendingKeys...)
			}
			accepted = append(accepted, c)
			continue
		}

		raw, err := d.rawTagValue(c, symbol)
		if err != nil {
			return nil, 0, 0, err
		}
		decision := idx.Decide(raw.String(), cfg.MaxDistance)
		if !decision.Accepted {
			if decision.Collision {
				collision++
			} else {
				miss++
			}
			continue
		}
		c.Resolve(symbol, fbase.FromStringDefaultN(decision.Corrected))
		accepted = append(accepted, c)
	}
	return accepted, miss, collision, nil
}

// degenerateTagStage applies spec §4.6's bin-then-cluster correction to
// every container whose next pending tag is symbol. Bins are detected on
// each container's already-resolved SortedKeys (the prior levels'
// canonical prefix) before this level's raw value is provisionally
// appended, exactly matching spec's "equality used to detect bin
// boundaries is strict on canonicalized values" -- the tag this stage is
// about to resolve is never part of that equality check.
func (d *Driver) degenerateTagStage(symbol byte, cfg layout.UMIConfiguration, containers []*sortkey.Container) ([]*sortkey.Container, error) {
	var pending []*sortkey.Container
	var passthrough []*sortkey.Container
	for _, c := range containers {
		next, ok := c.PopPending()
		if !ok || next != symbol {
			if ok {
				c.PendingKeys = append([]sortkey.PendingKey{{Symbol: next}}, c.PendingKeys...)
			}
			passthrough = append(passthrough, c)
			continue
		}
		pending = append(pending, c)
	}

	bins := cluster.DetectBins(pending)

	maxSub := cfg.MaximumSubsequences
	if maxSub <= 0 {
		maxSub = 10000
	}
	penalties := scoring.DefaultPOAPenalties()

	var accepted []*sortkey.Container
	for _, bin := range bins {
		raw := make([]fbase.Sequence, len(bin.Containers))
		for i, c := range bin.Containers {
			v, err := d.rawTagValue(c, symbol)
			if err != nil {
				return nil, err
			}
			raw[i] = v
			c.SortedKeys = append(c.SortedKeys, sortkey.SortedKey{Symbol: symbol, Value: v})
		}

		corrected, err := cluster.Resolve(bin, symbol, cfg.MaxDistance, maxSub, penalties)
		if err != nil {
			return nil, errors.Wrapf(err, "sortdriver: clustering tag %q", string(symbol))
		}
		for i, c := range bin.Containers {
			c.SortedKeys[len(c.SortedKeys)-1] = sortkey.SortedKey{Symbol: symbol, Value: corrected[i]}
			accepted = append(accepted, c)
		}
	}
	accepted = append(accepted, passthrough...)
	return accepted, nil
}
