package fastq

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReads(t *testing.T, quals ...string) string {
	t.Helper()
	var b strings.Builder
	for i, q := range quals {
		fmt.Fprintf(&b, "@r%d\n%s\n+\n%s\n", i, strings.Repeat("A", len(q)), q)
	}
	p := filepath.Join(t.TempDir(), "reads.fq")
	require.NoError(t, os.WriteFile(p, []byte(b.String()), 0o644))
	return p
}

func TestGuessOffsetSanger(t *testing.T) {
	p := writeReads(t, strings.Repeat("5", 30))
	off, err := GuessOffset(p)
	require.NoError(t, err)
	assert.Equal(t, Offset33, off)
}

func TestGuessOffsetIllumina13(t *testing.T) {
	p := writeReads(t, strings.Repeat("h", 30))
	off, err := GuessOffset(p)
	require.NoError(t, err)
	assert.Equal(t, Offset64, off)
}

func TestGuessOffsetSkipsAmbiguousRecords(t *testing.T) {
	// 'D'..'I' sit in the overlap of both encodings.
	p := writeReads(t, strings.Repeat("F", 40), "IIIII", strings.Repeat("#", 20))
	off, err := GuessOffset(p)
	require.NoError(t, err)
	assert.Equal(t, Offset33, off)
}

func TestGuessOffsetDefault(t *testing.T) {
	p := writeReads(t, strings.Repeat("F", 40))
	off, err := GuessOffset(p)
	require.NoError(t, err)
	assert.Equal(t, DefaultOffset, off)
}

func TestGuessOffsetRejectsFasta(t *testing.T) {
	p := filepath.Join(t.TempDir(), "db.fa")
	require.NoError(t, os.WriteFile(p, []byte(">chr1\nACGT\n"), 0o644))
	_, err := GuessOffset(p)
	assert.ErrorIs(t, err, ErrNotFastq)
}

func TestVoteMargin(t *testing.T) {
	_, ok := vote([]byte(strings.Repeat("#", 10)))
	assert.False(t, ok, "a margin of exactly ten is not decisive")
	off, ok := vote([]byte(strings.Repeat("#", 11)))
	assert.True(t, ok)
	assert.Equal(t, Offset33, off)
}
