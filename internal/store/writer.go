package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/mckennalab/cabal/internal/sortkey"
)

// Writer spills containers to a sharded store directory. Each bucket is
// its own gzip-framed file; Put hashes a container to its bucket and
// appends a length-prefixed gob record. The store directory carries an
// ".incomplete" suffix until Finish renames it away -- a Writer that is
// never Finished (e.g. the process panics mid-run) leaves that suffix in
// place, an intentional trail for debugging a failed run rather than a
// silently truncated store.
type Writer struct {
	finalDir string
	workDir  string
	buckets  []*bucketWriter
	finished bool
}

type bucketWriter struct {
	file *os.File
	buf  *bufio.Writer
	gz   *gzip.Writer
	n    int
}

// NewWriter creates a store directory (as dir+".incomplete") with
// numBuckets bucket files (DefaultBuckets if numBuckets <= 0).
func NewWriter(dir string, numBuckets int) (*Writer, error) {
	if numBuckets <= 0 {
		numBuckets = DefaultBuckets
	}
	workDir := dir + ".incomplete"
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "store: creating %s", workDir)
	}
	w := &Writer{finalDir: dir, workDir: workDir}
	for i := 0; i < numBuckets; i++ {
		bw, err := newBucketWriter(workDir, i)
		if err != nil {
			return nil, err
		}
		w.buckets = append(w.buckets, bw)
	}
	return w, nil
}

func newBucketWriter(dir string, i int) (*bucketWriter, error) {
	path := filepath.Join(dir, fmt.Sprintf("bucket-%04d.gz", i))
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "store: creating bucket file %s", path)
	}
	buf := bufio.NewWriter(f)
	gz := gzip.NewWriter(buf)
	return &bucketWriter{file: f, buf: buf, gz: gz}, nil
}

// Put routes c to its bucket and appends it, length-prefixed.
func (w *Writer) Put(c *sortkey.Container) error {
	if w.finished {
		return errors.New("store: Put called after Finish")
	}
	idx := bucketFor(c, len(w.buckets))
	enc, err := encodeContainer(c)
	if err != nil {
		return errors.Wrap(err, "store: encoding container")
	}
	bw := w.buckets[idx]
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(enc)))
	if _, err := bw.gz.Write(lenPrefix[:]); err != nil {
		return errors.Wrap(err, "store: writing length prefix")
	}
	if _, err := bw.gz.Write(enc); err != nil {
		return errors.Wrap(err, "store: writing record")
	}
	bw.n++
	return nil
}

// NumBuckets returns the bucket count this writer was configured with.
func (w *Writer) NumBuckets() int { return len(w.buckets) }

// Finish flushes and closes every bucket file, then renames the working
// directory to its final (non-".incomplete") name. After Finish, Put must
// not be called again.
func (w *Writer) Finish() error {
	if w.finished {
		return nil
	}
	for i, bw := range w.buckets {
		if err := bw.gz.Close(); err != nil {
			return errors.Wrapf(err, "store: closing bucket %d gzip stream", i)
		}
		if err := bw.buf.Flush(); err != nil {
			return errors.Wrapf(err, "store: flushing bucket %d", i)
		}
		if err := bw.file.Close(); err != nil {
			return errors.Wrapf(err, "store: closing bucket %d file", i)
		}
	}
	if err := os.Rename(w.workDir, w.finalDir); err != nil {
		return errors.Wrapf(err, "store: renaming %s to %s", w.workDir, w.finalDir)
	}
	w.finished = true
	return nil
}
