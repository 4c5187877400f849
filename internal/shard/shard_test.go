package shard

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignBalancesEqualRecords(t *testing.T) {
	sizes := make([]int64, 100)
	for i := range sizes {
		sizes[i] = 50
	}
	counts := make([]int, 4)
	for _, s := range Assign(sizes, 4) {
		counts[s]++
	}
	assert.Equal(t, []int{25, 25, 25, 25}, counts)
}

func TestAssignIsMonotoneAndBounded(t *testing.T) {
	sizes := []int64{900, 10, 10, 10, 500, 3, 3, 3, 3, 1200, 40}
	got := Assign(sizes, 3)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1], got[i])
	}
	for _, s := range got {
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 3)
	}
}

func TestAssignMoreShardsThanRecords(t *testing.T) {
	got := Assign([]int64{10, 10}, 8)
	assert.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])
}

func writeFasta(t *testing.T, path string, n int) string {
	t.Helper()
	var in, flat strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&in, ">r%d sample record\nACGTACGTAC\nGGTTAACC\n", i)
		fmt.Fprintf(&flat, ">r%d sample record\nACGTACGTACGGTTAACC\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(in.String()), 0o644))
	return flat.String()
}

func concat(t *testing.T, paths []string) string {
	t.Helper()
	var b strings.Builder
	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		b.Write(data)
	}
	return b.String()
}

func TestSplitFastaKeepsEveryRecordInOrder(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "query.fa")
	want := writeFasta(t, input, 40)
	work := filepath.Join(dir, "outdir")

	paths, err := FastxPlanner{}.Split(context.Background(), input, work, 4)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for i, p := range paths {
		assert.Equal(t, filepath.Join(work, fmt.Sprintf("query.%02d.fa", i+1)), p)
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, 10, strings.Count(string(data), ">"))
	}
	assert.Equal(t, want, concat(t, paths))
}

func TestSplitFewerRecordsThanShards(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "tiny.fasta")
	want := writeFasta(t, input, 3)

	paths, err := FastxPlanner{}.Split(context.Background(), input, dir, 8)
	require.NoError(t, err)
	assert.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "tiny.01.fasta"), paths[0])
	assert.Equal(t, want, concat(t, paths))
}

func TestSplitGzipFastq(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "reads.fq.gz")
	var want strings.Builder
	f, err := os.Create(input)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	for i := 1; i <= 12; i++ {
		rec := fmt.Sprintf("@read%d/1\nACGTNACGTA\n+\nIIIIIHHHH#\n", i)
		_, err := zw.Write([]byte(rec))
		require.NoError(t, err)
		want.WriteString(rec)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	paths, err := FastxPlanner{}.Split(context.Background(), input, dir, 3)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "reads.01.fq"), paths[0])
	assert.Equal(t, want.String(), concat(t, paths))
}

func TestSplitEmptyInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "empty.fa")
	require.NoError(t, os.WriteFile(input, nil, 0o644))

	_, err := FastxPlanner{}.Split(context.Background(), input, dir, 2)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestSplitRejectsZeroShards(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "q.fa")
	writeFasta(t, input, 2)

	_, err := FastxPlanner{}.Split(context.Background(), input, dir, 0)
	assert.Error(t, err)
}

func TestSplitMissingInput(t *testing.T) {
	_, err := FastxPlanner{}.Split(context.Background(), filepath.Join(t.TempDir(), "nope.fa"), t.TempDir(), 2)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplitHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "q.fa")
	writeFasta(t, input, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FastxPlanner{}.Split(ctx, input, dir, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
