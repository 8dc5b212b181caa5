// Package fastaio reads the small, in-memory reference FASTA files cabal
// aligns against: one or more named sequences, interrupted by newlines,
// read whole into memory. Grounded on grailbio-bio/encoding/fasta's
// newEagerUnindexed scan loop (the unindexed path of its Fasta reader),
// stripped of the indexed/large-genome machinery the rest of that package
// carries (300MB scan buffers, byte-offset indexing) since spec §1
// targets "a single short reference or a small set of references known
// in advance", not genome-scale FASTA.
package fastaio

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Record is one named FASTA sequence, with interior newlines already
// joined and leading/trailing whitespace trimmed.
type Record struct {
	Name  string
	ASCII string
}

// Read parses every record out of r, in file order. A record's name is
// the text immediately following '>' up to the first space (text after a
// space is a comment and is discarded, matching the convention
// grailbio-bio/encoding/fasta documents).
func Read(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var records []Record
	var name string
	var seq strings.Builder

	flush := func() error {
		if name == "" {
			return nil
		}
		if seq.Len() == 0 {
			return errors.Errorf("fastaio: empty sequence for record %q", name)
		}
		records = append(records, Record{Name: name, ASCII: seq.String()})
		seq.Reset()
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.Split(line[1:], " ")[0]
			if name == "" {
				return nil, errors.New("fastaio: record header has no name")
			}
			continue
		}
		if name == "" {
			return nil, errors.New("fastaio: sequence data before any '>' header")
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "fastaio: reading FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("fastaio: no records found")
	}
	return records, nil
}
