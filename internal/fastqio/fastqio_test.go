package fastqio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fq1 = `@read1
ACGTACGT
+
IIIIIIII
@read2
TTTTGGGG
+
IIIIIIII
`

const fq2 = `@read1
CCCCAAAA
+
IIIIIIII
@read2
GGGGTTTT
+
IIIIIIII
`

func stringScanner(s string) *Scanner {
	return NewScanner(bytes.NewReader([]byte(s)), All)
}

func TestScannerReadsRecords(t *testing.T) {
	s := stringScanner(fq1)
	var r Read
	require.True(t, s.Scan(&r))
	assert.Equal(t, Read{ID: "@read1", Seq: "ACGTACGT", Unk: "+", Qual: "IIIIIIII"}, r)
	require.True(t, s.Scan(&r))
	assert.Equal(t, "@read2", r.ID)
	require.False(t, s.Scan(&r))
	require.NoError(t, s.Err())
}

func TestScannerRejectsMissingAtPrefix(t *testing.T) {
	s := stringScanner("not-a-header\nACGT\n+\nIIII\n")
	var r Read
	require.False(t, s.Scan(&r))
	assert.Equal(t, ErrInvalidRecord, s.Err())
}

func TestScannerRejectsShortRecord(t *testing.T) {
	s := stringScanner("@read1\nACGT\n")
	var r Read
	require.False(t, s.Scan(&r))
	assert.Equal(t, ErrShort, s.Err())
}

func TestQuadScannerTwoStreams(t *testing.T) {
	q := NewQuadScanner(bytes.NewReader([]byte(fq1)), bytes.NewReader([]byte(fq2)), nil, nil, All)

	qr, ok := q.Scan()
	require.True(t, ok)
	require.NotNil(t, qr.R1)
	require.NotNil(t, qr.R2)
	assert.Nil(t, qr.I1)
	assert.Nil(t, qr.I2)
	assert.Equal(t, "ACGTACGT", qr.R1.Seq)
	assert.Equal(t, "CCCCAAAA", qr.R2.Seq)

	qr, ok = q.Scan()
	require.True(t, ok)
	assert.Equal(t, "TTTTGGGG", qr.R1.Seq)
	assert.Equal(t, "GGGGTTTT", qr.R2.Seq)

	_, ok = q.Scan()
	require.False(t, ok)
	require.NoError(t, q.Err())
}

func TestQuadScannerR1Only(t *testing.T) {
	q := NewQuadScanner(bytes.NewReader([]byte(fq1)), nil, nil, nil, All)

	qr, ok := q.Scan()
	require.True(t, ok)
	assert.NotNil(t, qr.R1)
	assert.Nil(t, qr.R2)

	qr, ok = q.Scan()
	require.True(t, ok)
	assert.Equal(t, "TTTTGGGG", qr.R1.Seq)

	_, ok = q.Scan()
	require.False(t, ok)
	require.NoError(t, q.Err())
}

func TestQuadScannerDiscordantStreamsError(t *testing.T) {
	short := "@only\nACGT\n+\nIIII\n"
	q := NewQuadScanner(bytes.NewReader([]byte(fq1)), bytes.NewReader([]byte(short)), nil, nil, All)

	_, ok := q.Scan()
	require.True(t, ok)

	_, ok = q.Scan()
	require.False(t, ok)
	assert.Equal(t, ErrDiscordant, q.Err())
}
