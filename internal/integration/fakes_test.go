package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// installTools writes fake executables into a fresh directory and puts it
// first on PATH for the rest of the test.
func installTools(t *testing.T, tools map[string]string) string {
	t.Helper()
	bin := t.TempDir()
	for name, body := range tools {
		p := filepath.Join(bin, name)
		require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	}
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	return bin
}

func write(t *testing.T, path, data string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func fasta(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, ">q%d\nMKVLAAGIVALLLAAGCSSSKE\n", i)
	}
	return b.String()
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

// fakeBlastp prints a comment header and one hit per query record.
const fakeBlastp = `while [ $# -gt 0 ]; do
  case "$1" in
    -query) q="$2"; shift ;;
    -db) db="$2"; shift ;;
  esac
  shift
done
echo "# BLASTP 2.15.0+"
echo "# Query: $q"
grep '^>' "$q" | sed 's/^>//' | while read id rest; do
  printf '%s\t%s\t100.00\n' "$id" "$(basename "$db")"
done`

// fakeMakeblastdb touches the protein index and counts its invocations.
const fakeMakeblastdb = `while [ $# -gt 0 ]; do
  case "$1" in
    -in) in="$2"; shift ;;
  esac
  shift
done
echo run >> "$in.calls"
touch "$in.pin"`

const fakeBowtie2Build = `echo run >> "$1.calls"
touch "$2.1.bt2"`

// fakeBowtie2 records its argv, emits a tiny SAM and the summary on stderr.
const fakeBowtie2 = `printf '%s\n' "$@" > "$FAKE_BOWTIE2_ARGS"
echo run >> "$FAKE_BOWTIE2_ARGS.calls"
printf '@HD\tVN:1.0\n'
printf 'read1\t0\tchr1\t1\t42\t4M\t*\t0\t0\tACGT\t5555\n'
cat >&2 <<'EOS'
100000 reads; of these:
  100000 (100.00%) were unpaired; of these:
    88453 (88.45%) aligned 0 times
    9772 (9.77%) aligned exactly 1 time
    1775 (1.77%) aligned >1 times
11.55% overall alignment rate
EOS`

const fakeSamtools = `sed 's/^/BAM /'`
