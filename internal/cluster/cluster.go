// Package cluster implements spec §4.6's degenerate-tag clustering: bin
// detection over a sorted container stream, connected-component
// clustering of each bin's distinct raw tag values by bounded edit
// distance, and consensus-per-component via internal/poa, reused as a
// library call. Grounded on original_source/rust_cmd/src/collapse.rs's
// bin/cluster/consensus loop structure; connected components (not
// cliques) per spec's explicit performance/determinism preference.
package cluster

import (
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/editdistance"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/poa"
	"github.com/mckennalab/cabal/internal/scoring"
	"github.com/mckennalab/cabal/internal/sortkey"
)

// Bin is a maximal run of adjacent containers with equal SortedKeys --
// the unit degenerate-tag clustering operates on.
type Bin struct {
	Containers []*sortkey.Container
}

// DetectBins scans a sortkey.Compare-ordered container stream and groups
// adjacent containers whose SortedKeys compare strictly equal into bins,
// in stream order. The equality check is strict (sameSortedKeys compares
// each SortedKey's symbol and its value via fbase.Compare), matching spec's "equality
// used to detect bin boundaries is strict on canonicalized values" --
// sort order upstream already guarantees equal-keyed containers are
// adjacent.
func DetectBins(containers []*sortkey.Container) []Bin {
	var bins []Bin
	var current []*sortkey.Container
	for _, c := range containers {
		if len(current) > 0 && !sameSortedKeys(current[0], c) {
			bins = append(bins, Bin{Containers: current})
			current = nil
		}
		current = append(current, c)
	}
	if len(current) > 0 {
		bins = append(bins, Bin{Containers: current})
	}
	return bins
}

func sameSortedKeys(a, b *sortkey.Container) bool {
	if len(a.SortedKeys) != len(b.SortedKeys) {
		return false
	}
	for i := range a.SortedKeys {
		if a.SortedKeys[i].Symbol != b.SortedKeys[i].Symbol {
			return false
		}
		if fbase.Compare(a.SortedKeys[i].Value, b.SortedKeys[i].Value) != 0 {
			return false
		}
	}
	return true
}

// Resolve runs spec §4.6's degenerate clustering for one bin at one tag
// symbol: collect the bin's distinct raw values for that tag (capped at
// maximumSubsequences; excess containers are corrected by hashing into
// the already-chosen representative set, never dropped), build the
// edit-distance-≤-maxDistance graph over distinct values, find connected
// components, compute each component's POA consensus, and return the
// corrected value for every container in the bin, in the same order
// Containers was given.
func Resolve(bin Bin, symbol byte, maxDistance, maximumSubsequences int, penalties scoring.POAPenalties) ([]fbase.Sequence, error) {
	raw := make([]string, len(bin.Containers))
	for i, c := range bin.Containers {
		val, err := rawValue(c, symbol)
		if err != nil {
			return nil, err
		}
		raw[i] = val
	}

	distinct := distinctValues(raw)
	representatives := distinct
	overflow := false
	if maximumSubsequences > 0 && len(representatives) > maximumSubsequences {
		representatives = representatives[:maximumSubsequences]
		overflow = true
	}

	components := buildComponents(representatives, maxDistance)

	consensusByValue := make(map[string]fbase.Sequence, len(representatives))
	for _, comp := range components {
		members := make([][]byte, len(comp))
		for i, idx := range comp {
			members[i] = append([]byte(representatives[idx]), 0x00)
		}
		consensusBytes, err := poa.AlignAndThread(members, penalties)
		if err != nil {
			return nil, errors.Wrap(err, "cluster: POA consensus")
		}
		if len(consensusBytes) > 0 && consensusBytes[len(consensusBytes)-1] == 0x00 {
			consensusBytes = consensusBytes[:len(consensusBytes)-1]
		}
		consensusSeq := fbase.FromStringDefaultN(string(consensusBytes))
		for _, idx := range comp {
			consensusByValue[representatives[idx]] = consensusSeq
		}
	}

	// Values beyond the representative cap are corrected by hashing into
	// the nearest already-chosen representative rather than silently
	// dropped, per spec's overflow clause.
	if overflow {
		for _, v := range distinct[maximumSubsequences:] {
			nearest := nearestRepresentative(v, representatives, consensusByValue)
			consensusByValue[v] = nearest
		}
	}

	out := make([]fbase.Sequence, len(raw))
	for i, v := range raw {
		out[i] = consensusByValue[v]
	}
	return out, nil
}

func rawValue(c *sortkey.Container, symbol byte) (string, error) {
	for _, k := range c.SortedKeys {
		if k.Symbol == symbol {
			return k.Value.String(), nil
		}
	}
	return "", errors.Errorf("cluster: container has no resolved value for tag %q", string(symbol))
}

func distinctValues(raw []string) []string {
	seen := make(map[string]bool)
	var distinct []string
	for _, v := range raw {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	return distinct
}

func buildComponents(values []string, maxDistance int) [][]int {
	ds := newDisjointSet(len(values))
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			if editdistance.Levenshtein(values[i], values[j]) <= maxDistance {
				ds.Union(i, j)
			}
		}
	}
	return ds.Components()
}

func nearestRepresentative(v string, representatives []string, consensusByValue map[string]fbase.Sequence) fbase.Sequence {
	best := -1
	var bestVal string
	for _, r := range representatives {
		d := editdistance.Levenshtein(v, r)
		if best == -1 || d < best {
			best, bestVal = d, r
		}
	}
	return consensusByValue[bestVal]
}
