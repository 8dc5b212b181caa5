// Package poa implements partial-order alignment consensus building for
// degenerate tag clustering and the terminal consensus builder: thread
// each member sequence of a cluster into a shared alignment graph, one at
// a time, then read the consensus off the graph's heaviest-weighted path.
//
// No direct teacher analog -- the pack's alignment code (internal/align,
// and the DP-shaped files under other_examples) informed the general
// graph-DP recurrence, generalized from a linear sequence pair to a DAG.
package poa

import (
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/scoring"
)

// AlignAndThread builds a partial-order graph by threading sequences in
// one at a time (in the order given) and returns the majority-vote
// consensus path. Each sequence should already have had gaps stripped and
// its sentinel null byte appended per spec's consensus-builder step 2;
// AlignAndThread does not itself strip or append anything -- the sentinel
// rides through threading like any other byte and must be trimmed by the
// caller from the returned consensus (it will always be the trailing
// byte, since every input sequence ends with it).
func AlignAndThread(sequences [][]byte, p scoring.POAPenalties) ([]byte, error) {
	if len(sequences) == 0 {
		return nil, errors.New("poa: no sequences to thread")
	}
	g := newGraph()
	pen := penalties{
		match:      p.Match,
		mismatch:   p.Mismatch,
		gapOpen:    p.GapOpen,
		gapExtend:  p.GapExtend,
	}
	for _, seq := range sequences {
		if len(seq) == 0 {
			continue
		}
		g.addSequence(seq, pen)
	}
	return g.consensus(), nil
}
