// Package store implements the sharded, on-disk intermediate store the
// sort driver spills containers to between stages: a bounded number of
// bucket files, each a length-prefixed, gob-encoded, gzip-framed stream of
// sortkey.Containers, with containers routed to buckets by a farm hash of
// their resolved sort-key prefix. A Reader k-way merges the buckets back
// into one sorted stream, keyed by sortkey.Compare.
//
// Grounded on grailbio-bio/encoding/bam/shardedbam.go's bucketed,
// gzip-framed shard-file design and markduplicates' disk-backed
// mate-shard staging; bucket routing follows fusion/kmer_index.go's
// farm-hash sharding pattern.
package store

import (
	"bytes"
	"encoding/gob"

	farm "github.com/dgryski/go-farm"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/fbase"
	"github.com/mckennalab/cabal/internal/sortkey"
)

// DefaultBuckets is the default shard count a Writer splits containers
// across.
const DefaultBuckets = 32

func init() {
	gob.Register(sortkey.Container{})
	gob.Register(align.Result{})
	gob.Register(fbase.Sequence{})
}

// bucketFor hashes a container's resolved sort-key prefix to a bucket
// index in [0, numBuckets).
func bucketFor(c *sortkey.Container, numBuckets int) int {
	h := farm.Fingerprint64(sortkey.BucketPrefix(c))
	return int(h % uint64(numBuckets))
}

// encodeContainer gob-encodes a container into a standalone buffer,
// suitable for length-prefixing onto a bucket stream.
func encodeContainer(c *sortkey.Container) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeContainer(b []byte) (*sortkey.Container, error) {
	var c sortkey.Container
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
