package knownlist

import "github.com/mckennalab/cabal/internal/editdistance"

// Result is the outcome of a known-list Query: the known values at the
// minimum observed edit distance, and that distance.
type Result struct {
	Hits     []string
	Distance int
}

// Query implements spec's known-list lookup exactly: enumerate
// delete-variants of q up to d, collect the union of candidate known
// values those variants map to, compute the true edit distance from q to
// each candidate, and return the candidates at the minimum distance
// together with that distance. If no candidate is within d, Hits is nil
// and Distance is -1.
//
// d must not exceed the maxDelete the Index was built with -- a smaller d
// than maxDelete is fine (it simply explores fewer delete-variants), a
// larger d can miss candidates whose only delete-variant overlap
// requires more deletions than the index stores.
func (idx *Index) Query(q string, d int) Result {
	if d > idx.maxDelete {
		d = idx.maxDelete
	}
	candidates := map[string]bool{}
	for variant := range deletionVariants(q, d) {
		for _, known := range idx.lookup(variant) {
			candidates[known] = true
		}
	}
	if len(candidates) == 0 {
		return Result{Distance: -1}
	}

	best := -1
	var hits []string
	for known := range candidates {
		dist := editdistance.Levenshtein(q, known)
		switch {
		case best == -1 || dist < best:
			best = dist
			hits = []string{known}
		case dist == best:
			hits = append(hits, known)
		}
	}
	if best > d {
		return Result{Distance: -1}
	}
	return Result{Hits: hits, Distance: best}
}

// Decision is the sort driver's known-tag policy applied to a Query
// result: accept with the corrected value when exactly one hit sits at a
// distance within maxDistance, and drop (collision or miss) otherwise.
type Decision struct {
	Accepted  bool
	Corrected string
	Distance  int
	Collision bool
}

// Decide applies spec §4.5's decision policy to a query value q at
// threshold maxDistance: a single hit within maxDistance is accepted and
// canonicalized; two or more hits at the same minimum distance is a
// collision (dropped); no hit within maxDistance is a miss (dropped).
func (idx *Index) Decide(q string, maxDistance int) Decision {
	res := idx.Query(q, maxDistance)
	if res.Distance < 0 || res.Distance > maxDistance {
		return Decision{Accepted: false}
	}
	if len(res.Hits) > 1 {
		return Decision{Accepted: false, Collision: true, Distance: res.Distance}
	}
	return Decision{Accepted: true, Corrected: res.Hits[0], Distance: res.Distance}
}
