package cmdutil

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shardalign/internal/metrics"
	"shardalign/internal/shard"
	"shardalign/internal/toolcmd"
)

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "info", "auto")
	require.NoError(t, err)
	log.Info("hello", "k", 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), "non-terminal writers get JSON")
	assert.Equal(t, "hello", rec["msg"])

	buf.Reset()
	log, err = NewLogger(&buf, "warn", "text")
	require.NoError(t, err)
	log.Info("dropped")
	log.Warn("kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestNewLoggerRejectsBadInput(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)
	_, err = NewLogger(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestRunShardedMatchesSingleRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "query.fa")
	var fa strings.Builder
	for i := 0; i < 30; i++ {
		fa.WriteString(">q")
		fa.WriteString(strings.Repeat("x", i%5))
		fa.WriteString("\nACGT\n")
	}
	require.NoError(t, os.WriteFile(input, []byte(fa.String()), 0o644))

	// A deterministic "aligner": one hit line per record, plus a header.
	tool := filepath.Join(dir, "fakeblast")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"+
		"echo '# Fields: query id, subject id'\n"+
		"grep '^>' \"$2\" | sed 's/^>//; s/$/\tsubj\t100.0/'\n"), 0o755))
	build := func(p string) toolcmd.Command { return toolcmd.New(tool, "-query", p) }

	m := metrics.NewRun()
	opts := ShardOptions{Planner: shard.FastxPlanner{}, Workdir: filepath.Join(dir, "outdir"), Metrics: m}

	run := func(k int) []string {
		opts.Shards = k
		var out bytes.Buffer
		rep, err := RunSharded(context.Background(), opts, input, build, &out)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		assert.EqualValues(t, len(lines), rep.Lines)
		sort.Strings(lines)
		return lines
	}

	single := run(1)
	assert.Len(t, single, 30)
	assert.Equal(t, single, run(4))
}
