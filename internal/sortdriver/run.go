package sortdriver

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/store"
)

// RunStats is the complete per-level accounting for one end-to-end sort
// run: ingest plus every subsequent stage, in level order.
type RunStats struct {
	Ingest *IngestStats
	Stages []*StageStats
}

// Run chains ingest and every layout-declared level in order, writing
// each level's output to its own subdirectory of Opts.ScratchDir, and
// returns the path to the final, fully-sorted store (spec §4.7's
// "terminal stage" hands this to the consensus builder) along with the
// complete stage-by-stage statistics.
func (d *Driver) Run(reads <-chan RawRead, load LoadKnownList) (string, *RunStats, error) {
	stats := &RunStats{}

	ingestDir := filepath.Join(d.Opts.ScratchDir, "level-000-ingest")
	ingestStats, err := d.Ingest(reads, ingestDir)
	stats.Ingest = ingestStats
	if err != nil {
		return "", stats, errors.Wrap(err, "sortdriver: ingest")
	}
	return d.runStages(ingestDir, stats, load)
}

// RunAligned is Run's counterpart for the pre-aligned BAM input path: it
// ingests already-aligned results (IngestAligned) instead of raw reads,
// then chains the same layout-declared levels Run does.
func (d *Driver) RunAligned(results <-chan *align.Result, load LoadKnownList) (string, *RunStats, error) {
	stats := &RunStats{}

	ingestDir := filepath.Join(d.Opts.ScratchDir, "level-000-ingest")
	ingestStats, err := d.IngestAligned(results, ingestDir)
	stats.Ingest = ingestStats
	if err != nil {
		return "", stats, errors.Wrap(err, "sortdriver: ingest")
	}
	return d.runStages(ingestDir, stats, load)
}

// runStages chains every layout-declared level in order starting from
// ingestDir, the common tail of Run and RunAligned.
func (d *Driver) runStages(ingestDir string, stats *RunStats, load LoadKnownList) (string, *RunStats, error) {
	currentDir := ingestDir
	for i, cfg := range d.canonicalOrder() {
		reader, err := store.NewReader(currentDir)
		if err != nil {
			return "", stats, errors.Wrapf(err, "sortdriver: opening level %d input", i+1)
		}
		nextDir := filepath.Join(d.Opts.ScratchDir, fmt.Sprintf("level-%03d-%c", i+1, cfg.SymbolByte()))
		stageStats, err := d.RunStage(i+1, cfg, reader, nextDir, load)
		closeErr := reader.Close()
		stats.Stages = append(stats.Stages, stageStats)
		if err != nil {
			return "", stats, errors.Wrapf(err, "sortdriver: level %d (%q)", i+1, string(cfg.SymbolByte()))
		}
		if closeErr != nil {
			return "", stats, errors.Wrapf(closeErr, "sortdriver: closing level %d input", i+1)
		}
		currentDir = nextDir
	}

	return currentDir, stats, nil
}
