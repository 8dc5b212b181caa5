package store

import (
	"container/heap"
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/sortkey"
)

// bucketCursor reads one bucket file's length-prefixed records in order,
// one at a time.
type bucketCursor struct {
	file *os.File
	gz   *gzip.Reader
}

func openBucketCursor(path string) (*bucketCursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "store: opening bucket file %s", path)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "store: opening gzip stream for %s", path)
	}
	return &bucketCursor{file: f, gz: gz}, nil
}

// next reads the next container from the cursor, or (nil, false, nil) at
// clean EOF.
func (c *bucketCursor) next() (*sortkey.Container, bool, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(c.gz, lenPrefix[:]); err != nil {
		if err == io.EOF {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "store: reading length prefix")
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.gz, buf); err != nil {
		return nil, false, errors.Wrap(err, "store: reading record body")
	}
	container, err := decodeContainer(buf)
	if err != nil {
		return nil, false, errors.Wrap(err, "store: decoding container")
	}
	return container, true, nil
}

func (c *bucketCursor) close() error {
	gzErr := c.gz.Close()
	fileErr := c.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

// heapItem pairs a cursor with its currently-loaded (not yet emitted)
// container.
type heapItem struct {
	cursor    *bucketCursor
	container *sortkey.Container
}

type mergeHeap []*heapItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	return sortkey.Compare(h[i].container, h[j].container) < 0
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*heapItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Reader streams a sharded store's contents back out in sortkey.Compare
// order, k-way merging across bucket files.
type Reader struct {
	cursors []*bucketCursor
	h       mergeHeap
	started bool
}

// NewReader opens every bucket file under dir for streaming, sorted
// k-way-merge iteration.
func NewReader(dir string) (*Reader, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "store: listing %s", dir)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	r := &Reader{}
	for _, name := range names {
		cursor, err := openBucketCursor(filepath.Join(dir, name))
		if err != nil {
			r.Close()
			return nil, err
		}
		r.cursors = append(r.cursors, cursor)
	}
	return r, nil
}

func (r *Reader) fill() error {
	heap.Init(&r.h)
	for _, c := range r.cursors {
		container, ok, err := c.next()
		if err != nil {
			return err
		}
		if ok {
			heap.Push(&r.h, &heapItem{cursor: c, container: container})
		}
	}
	r.started = true
	return nil
}

// Next returns the next container in sortkey.Compare order, or
// (nil, false) once every bucket is exhausted.
func (r *Reader) Next() (*sortkey.Container, bool, error) {
	if !r.started {
		if err := r.fill(); err != nil {
			return nil, false, err
		}
	}
	if r.h.Len() == 0 {
		return nil, false, nil
	}
	item := heap.Pop(&r.h).(*heapItem)
	out := item.container

	next, ok, err := item.cursor.next()
	if err != nil {
		return nil, false, err
	}
	if ok {
		heap.Push(&r.h, &heapItem{cursor: item.cursor, container: next})
	}
	return out, true, nil
}

// Close releases every bucket file handle.
func (r *Reader) Close() error {
	var firstErr error
	for _, c := range r.cursors {
		if err := c.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
