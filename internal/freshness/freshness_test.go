package freshness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestNeedsRebuild_MissingTarget(t *testing.T) {
	dir := t.TempDir()
	src := touch(t, filepath.Join(dir, "db.fa"), time.Now())

	stale, err := NeedsRebuild(filepath.Join(dir, "db.fa.nin"), src)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRebuild_SourceNewer(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	target := touch(t, filepath.Join(dir, "db.fa.1.bt2"), base)
	old := touch(t, filepath.Join(dir, "old.fa"), base.Add(-time.Minute))
	src := touch(t, filepath.Join(dir, "db.fa"), base.Add(time.Minute))

	stale, err := NeedsRebuild(target, old, src)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRebuild_EqualMtimeIsFresh(t *testing.T) {
	dir := t.TempDir()
	ts := time.Now().Add(-time.Hour)
	target := touch(t, filepath.Join(dir, "t"), ts)
	src := touch(t, filepath.Join(dir, "s"), ts)

	stale, err := NeedsRebuild(target, src)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestNeedsRebuild_IdempotentWhenFresh(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	src := touch(t, filepath.Join(dir, "db.fa"), base)
	target := touch(t, filepath.Join(dir, "db.fa.pin"), base.Add(time.Minute))

	before, err := os.Stat(target)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		stale, err := NeedsRebuild(target, src)
		require.NoError(t, err)
		assert.False(t, stale)
	}
	after, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
	assert.Equal(t, before.Size(), after.Size())
}

func TestNeedsRebuild_NoSources(t *testing.T) {
	dir := t.TempDir()
	target := touch(t, filepath.Join(dir, "t"), time.Now())

	stale, err := NeedsRebuild(target)
	require.NoError(t, err)
	assert.False(t, stale)

	stale, err = NeedsRebuild(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestNeedsRebuild_MissingSource(t *testing.T) {
	dir := t.TempDir()
	target := touch(t, filepath.Join(dir, "t"), time.Now())

	_, err := NeedsRebuild(target, filepath.Join(dir, "gone.fa"))
	var se *StaleInputError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, filepath.Join(dir, "gone.fa"), se.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGateEnsure(t *testing.T) {
	dir := t.TempDir()
	base := time.Now().Add(-time.Hour)
	src := touch(t, filepath.Join(dir, "db.fa"), base)
	target := filepath.Join(dir, "db.fa.1.bt2")

	calls := 0
	build := func(context.Context) error {
		calls++
		touch(t, target, base.Add(time.Minute))
		return nil
	}

	g := Gate{}
	built, err := g.Ensure(context.Background(), target, []string{src}, "bowtie2-build", build)
	require.NoError(t, err)
	assert.True(t, built)

	built, err = g.Ensure(context.Background(), target, []string{src}, "bowtie2-build", build)
	require.NoError(t, err)
	assert.False(t, built)
	assert.Equal(t, 1, calls)
}

func TestGateEnsure_BuildError(t *testing.T) {
	dir := t.TempDir()
	src := touch(t, filepath.Join(dir, "db.fa"), time.Now())
	boom := errors.New("boom")

	_, err := Gate{}.Ensure(context.Background(), filepath.Join(dir, "x"), []string{src}, "makeblastdb",
		func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}
