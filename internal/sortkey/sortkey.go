// Package sortkey defines Container, the unit the sort driver carries
// through every stage: one read's alignment result plus the ordered tag
// values extracted from it so far, and the tags still waiting to be
// resolved. Grounded on spec's container invariant (every read's
// SortedKeys grows monotonically in the layout's declared order, never
// out of order) and compared the way spec's ordering guarantee requires:
// lexicographically over resolved tag values, ties broken by the
// remaining pending-tag order.
package sortkey

import (
	"bytes"

	"github.com/mckennalab/cabal/internal/align"
	"github.com/mckennalab/cabal/internal/fbase"
)

// SortedKey is one resolved tag value: the capture region's symbol and
// its corrected/clustered sequence.
type SortedKey struct {
	Symbol byte
	Value  fbase.Sequence
}

// PendingKey names a capture region not yet resolved, in the order the
// layout declares it should be processed.
type PendingKey struct {
	Symbol byte
}

// Container carries one read through the sort driver's staged pipeline.
// SortedKeys is append-only: a stage resolves the head of PendingKeys and
// appends a SortedKey, never rewriting an earlier one. PendingKeys is a
// FIFO -- a stage pops from the head, never the tail.
type Container struct {
	Alignment   *align.Result
	SortedKeys  []SortedKey
	PendingKeys []PendingKey
}

// NewContainer builds a Container from an alignment result and the full,
// ordered list of tag symbols the layout declares for its reference.
func NewContainer(alignment *align.Result, symbols []byte) *Container {
	pending := make([]PendingKey, len(symbols))
	for i, s := range symbols {
		pending[i] = PendingKey{Symbol: s}
	}
	return &Container{Alignment: alignment, PendingKeys: pending}
}

// PopPending removes and returns the head of PendingKeys, the next tag
// symbol due for resolution. The second return is false if PendingKeys is
// empty.
func (c *Container) PopPending() (byte, bool) {
	if len(c.PendingKeys) == 0 {
		return 0, false
	}
	sym := c.PendingKeys[0].Symbol
	c.PendingKeys = c.PendingKeys[1:]
	return sym, true
}

// Resolve appends a SortedKey for a tag just corrected/clustered.
func (c *Container) Resolve(symbol byte, value fbase.Sequence) {
	c.SortedKeys = append(c.SortedKeys, SortedKey{Symbol: symbol, Value: value})
}

// Compare orders two containers lexicographically over their resolved
// SortedKeys, comparing values with strict (non-degenerate) byte
// equality/ordering -- a container invariant holds that canonical,
// corrected tag values never carry IUPAC degeneracy, so strict comparison
// is exact here, unlike alignment-time base comparison. When one
// container has strictly fewer SortedKeys than the other at the point
// they diverge, the shorter one sorts first. Containers tied on every
// resolved key fall back to comparing their remaining PendingKeys symbol
// order, the documented tie-break.
func Compare(a, b *Container) int {
	n := len(a.SortedKeys)
	if len(b.SortedKeys) < n {
		n = len(b.SortedKeys)
	}
	for i := 0; i < n; i++ {
		if c := compareKey(a.SortedKeys[i], b.SortedKeys[i]); c != 0 {
			return c
		}
	}
	if len(a.SortedKeys) != len(b.SortedKeys) {
		if len(a.SortedKeys) < len(b.SortedKeys) {
			return -1
		}
		return 1
	}
	return comparePending(a.PendingKeys, b.PendingKeys)
}

func compareKey(a, b SortedKey) int {
	if a.Symbol != b.Symbol {
		if a.Symbol < b.Symbol {
			return -1
		}
		return 1
	}
	return compareStrict(a.Value, b.Value)
}

// compareStrict compares two sequences byte-for-byte, with no degeneracy
// allowance -- fbase.Compare already does this, but sortkey spells it out
// locally since the container invariant (canonical values only) is what
// makes it correct here.
func compareStrict(a, b fbase.Sequence) int {
	return fbase.Compare(a, b)
}

func comparePending(a, b []PendingKey) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i].Symbol != b[i].Symbol {
			if a[i].Symbol < b[i].Symbol {
				return -1
			}
			return 1
		}
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return 0
}

// bucketPrefix returns a stable byte representation of a container's
// resolved SortedKeys, used by internal/store to hash a container to its
// bucket.
func bucketPrefix(c *Container) []byte {
	var buf bytes.Buffer
	for _, k := range c.SortedKeys {
		buf.WriteByte(k.Symbol)
		buf.WriteString(k.Value.String())
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

// BucketPrefix exposes bucketPrefix for internal/store's hash routing.
func BucketPrefix(c *Container) []byte { return bucketPrefix(c) }
