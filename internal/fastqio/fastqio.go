// Package fastqio reads up to four parallel FASTQ streams -- read-1,
// read-2, index-1, index-2 -- in lockstep, per spec §6's input contract.
// Grounded on grailbio-bio/encoding/fastq's Scanner/PairScanner: Scanner
// is carried over verbatim (same four-line-record validation, same
// Field bitset), and QuadScanner generalizes PairScanner's two-stream
// discordance check to up to four streams, any of which may be absent
// (spec's "missing streams represented as a sentinel path" becomes a nil
// io.Reader / nil *Scanner slot here, since cabal works against open
// readers rather than re-parsing paths itself).
package fastqio

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Read is a single FASTQ record: an ID line, sequence, the third
// ("unknown", conventionally "+"-prefixed) line, and a quality string.
type Read struct {
	ID, Seq, Unk, Qual string
}

// Field enumerates FASTQ fields, used to select which ones NewScanner
// actually populates.
type Field uint

const (
	ID Field = 1 << iota
	Seq
	Unk
	Qual
	All = ID | Seq | Unk | Qual
)

var errEOF = errors.New("fastqio: eof")

// ErrShort is returned when a stream ends mid-record.
var ErrShort = errors.New("fastqio: short FASTQ stream")

// ErrInvalidRecord is returned when a record's ID or separator line is
// malformed.
var ErrInvalidRecord = errors.New("fastqio: invalid FASTQ record")

// ErrDiscordant is returned when the configured streams of a QuadScanner
// don't all end at the same record.
var ErrDiscordant = errors.New("fastqio: discordant FASTQ streams")

// Scanner reads one FASTQ stream. Scanners are not thread-safe.
type Scanner struct {
	b      *bufio.Scanner
	err    error
	fields Field
}

// NewScanner constructs a Scanner over r, populating only the fields set
// in fields.
func NewScanner(r io.Reader, fields Field) *Scanner {
	return &Scanner{b: bufio.NewScanner(r), fields: fields}
}

// Scan reads the next record into read. It returns false at end of
// stream or on error; check Err to distinguish the two.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = errEOF
		}
		return false
	}
	id := s.b.Bytes()
	if len(id) == 0 || id[0] != '@' {
		s.err = ErrInvalidRecord
		return false
	}
	if s.fields&ID != 0 {
		read.ID = string(id)
	}
	if !s.scanLine() {
		return false
	}
	if s.fields&Seq != 0 {
		read.Seq = s.b.Text()
	}
	if !s.scanLine() {
		return false
	}
	unk := s.b.Bytes()
	if len(unk) == 0 || unk[0] != '+' {
		s.err = ErrInvalidRecord
		return false
	}
	if s.fields&Unk != 0 {
		read.Unk = string(unk)
	}
	if !s.scanLine() {
		return false
	}
	if s.fields&Qual != 0 {
		read.Qual = s.b.Text()
	}
	return true
}

func (s *Scanner) scanLine() bool {
	if ok := s.b.Scan(); !ok {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
		return false
	}
	return true
}

// Err returns the scanning error, if any (nil at a clean end of stream).
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// streamIndex names the four positions a QuadRead's records occupy, in
// the order spec §6 lists them.
const (
	streamR1 = iota
	streamR2
	streamI1
	streamI2
	numStreams
)

// QuadRead holds one record from each configured stream of a QuadScan.
// A field is nil when its stream was not configured.
type QuadRead struct {
	R1, R2, I1, I2 *Read
}

// QuadScanner scans up to four FASTQ streams in lockstep. Any of r1, r2,
// i1, i2 may be nil, meaning that stream isn't present in this run; a nil
// reader's scanner is skipped entirely rather than treated as an
// immediate end of stream, so a two-stream run (R1+R2 only) scans exactly
// as long as those two streams do.
type QuadScanner struct {
	scanners [numStreams]*Scanner
	err      error
}

// NewQuadScanner builds a QuadScanner. fields selects which record fields
// every configured stream populates.
func NewQuadScanner(r1, r2, i1, i2 io.Reader, fields Field) *QuadScanner {
	q := &QuadScanner{}
	for i, r := range []io.Reader{r1, r2, i1, i2} {
		if r != nil {
			q.scanners[i] = NewScanner(r, fields)
		}
	}
	return q
}

// Scan reads the next record from every configured stream. It returns
// false once any configured stream is exhausted; if the streams didn't
// all exhaust at the same record, Err reports ErrDiscordant.
func (q *QuadScanner) Scan() (*QuadRead, bool) {
	if q.err != nil {
		return nil, false
	}

	var reads [numStreams]*Read
	configured := 0
	scanned := 0
	for i, s := range q.scanners {
		if s == nil {
			continue
		}
		configured++
		r := &Read{}
		if s.Scan(r) {
			reads[i] = r
			scanned++
		}
	}
	if configured == 0 {
		q.err = errors.New("fastqio: no streams configured")
		return nil, false
	}
	if scanned == 0 {
		// Every configured stream reached end of stream together;
		// surface whichever scanner's error (if any) is non-nil.
		for _, s := range q.scanners {
			if s != nil {
				if err := s.Err(); err != nil {
					q.err = err
					return nil, false
				}
			}
		}
		return nil, false
	}
	if scanned != configured {
		q.err = ErrDiscordant
		return nil, false
	}

	return &QuadRead{
		R1: reads[streamR1],
		R2: reads[streamR2],
		I1: reads[streamI1],
		I2: reads[streamI2],
	}, true
}

// Err returns the scanning error, if any. Check it after Scan returns
// false.
func (q *QuadScanner) Err() error {
	return q.err
}
