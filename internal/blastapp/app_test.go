package blastapp

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpExitsZero(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, Run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "blastplus database.fa query.fa")
	assert.Contains(t, stdout.String(), "--evalue")
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "db.fa")
	require.NoError(t, os.WriteFile(db, []byte(">s\nMKV\n"), 0o644))

	cases := map[string][]string{
		"one argument":  {db},
		"missing query": {db, filepath.Join(dir, "absent.fa")},
		"unknown flag":  {db, db, "--frobnicate"},
		"bad cpus":      {db, db, "--cpus", "0"},
		"bad evalue":    {db, db, "--evalue", "0"},
		"bad extra":     {db, db, "--extra", `-outfmt "6`},
		"quiet+verbose": {db, db, "-q", "-v"},
	}
	for name, argv := range cases {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 2, Run(argv, &stdout, &stderr), stderr.String())
			assert.NotEmpty(t, stderr.String())
		})
	}
}
