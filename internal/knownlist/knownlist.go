// Package knownlist implements symmetric-delete correction against a
// closed-vocabulary tag list: cell barcodes, sample indices, or any other
// known-tag capture region a layout declares KNOWN. Grounded in shape on
// grailbio-bio/umi/correction.go's SnapCorrector (parse a newline-
// delimited known-list file once, build a correction structure once,
// query it many times), but replacing SnapCorrector's brute-force
// full-alphabet cost table -- intractable once max_distance or tag length
// grows past a handful of bases -- with the symmetric-delete construction:
// for each known value, every string reachable by deleting up to d
// characters is inserted as a key mapping back to that value. A query is
// answered by deleting up to d characters from the query itself and
// looking up the resulting keys, then confirming with exact edit
// distance.
package knownlist

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/biogo/store/llrb"
	"github.com/pkg/errors"
)

// deletionKey is the llrb.Comparable wrapper around a symmetric-delete
// key string, ordering entries lexicographically.
type deletionKey struct {
	key   string
	known []string
}

func (k deletionKey) Compare(c llrb.Comparable) int {
	return strings.Compare(k.key, c.(deletionKey).key)
}

// Index is a build-once, query-many symmetric-delete correction index.
type Index struct {
	known    []string
	maxDelete int
	tree     llrb.Tree
}

// NewIndex builds an Index from a newline-delimited known-list document
// (one tag value per line, case-insensitive -- values are uppercased),
// generating symmetric-delete keys for up to maxDelete deletions per
// known value.
func NewIndex(knownList []byte, maxDelete int) (*Index, error) {
	if maxDelete < 0 {
		return nil, errors.Errorf("knownlist: maxDelete must be >= 0, got %d", maxDelete)
	}
	idx := &Index{maxDelete: maxDelete}

	scanner := bufio.NewScanner(bytes.NewReader(knownList))
	for scanner.Scan() {
		line := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		idx.known = append(idx.known, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "knownlist: reading known list")
	}
	if len(idx.known) == 0 {
		return nil, errors.New("knownlist: empty known list")
	}

	for _, value := range idx.known {
		for key := range deletionVariants(value, maxDelete) {
			idx.insert(key, value)
		}
	}
	return idx, nil
}

func (idx *Index) insert(key, value string) {
	probe := deletionKey{key: key}
	if existing := idx.tree.Get(probe); existing != nil {
		dk := existing.(deletionKey)
		dk.known = append(dk.known, value)
		idx.tree.Insert(dk)
		return
	}
	idx.tree.Insert(deletionKey{key: key, known: []string{value}})
}

func (idx *Index) lookup(key string) []string {
	found := idx.tree.Get(deletionKey{key: key})
	if found == nil {
		return nil
	}
	return found.(deletionKey).known
}

// Known returns the full parsed known-value list, in file order.
func (idx *Index) Known() []string { return idx.known }

// deletionVariants enumerates every distinct string obtainable from s by
// deleting 0..maxDelete characters (0 deletions yields s itself), as a
// set (deduplicated, since multiple deletion paths often produce the same
// string).
func deletionVariants(s string, maxDelete int) map[string]bool {
	variants := map[string]bool{s: true}
	frontier := []string{s}
	for d := 0; d < maxDelete; d++ {
		next := make([]string, 0)
		for _, v := range frontier {
			for i := range v {
				candidate := v[:i] + v[i+1:]
				if !variants[candidate] {
					variants[candidate] = true
					next = append(next, candidate)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return variants
}
