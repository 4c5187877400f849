// internal/shard/shard.go
package shard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// ErrNoRecords is returned for an input that holds no sequence records.
var ErrNoRecords = errors.New("no sequence records")

func init() {
	// Shards are handed to external tools untouched; alphabet checks are theirs.
	seq.ValidateSeq = false
}

// Planner splits one input into at most k shard files and returns their
// paths in input order. Concatenating the shards reproduces every record
// exactly once.
type Planner interface {
	Split(ctx context.Context, input, workdir string, k int) ([]string, error)
}

// FastxPlanner splits FASTA or FASTQ (optionally gzipped) on record
// boundaries into shards of near-equal byte size. Shards are written
// unwrapped and uncompressed as <workdir>/<stem>.<NN><ext>.
type FastxPlanner struct{}

func (FastxPlanner) Split(ctx context.Context, input, workdir string, k int) ([]string, error) {
	if k < 1 {
		return nil, fmt.Errorf("shard: need at least one shard, got %d", k)
	}
	fi, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", input, ErrNoRecords)
	}

	var sizes []int64
	fastq := false
	err = eachRecord(ctx, input, func(r *fastx.Record, isFastq bool) error {
		fastq = isFastq
		sizes = append(sizes, recordSize(r))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("%s: %w", input, ErrNoRecords)
	}
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, err
	}

	assign := Assign(sizes, k)
	stem, ext := splitName(input, fastq)
	width := max(2, len(fmt.Sprint(k)))

	var (
		paths []string
		f     *os.File
		bw    *bufio.Writer
		cur   = -1
		i     int
	)
	closeShard := func() error {
		if f == nil {
			return nil
		}
		err := bw.Flush()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		f = nil
		return err
	}
	err = eachRecord(ctx, input, func(r *fastx.Record, isFastq bool) error {
		if i >= len(assign) {
			return fmt.Errorf("%s changed while splitting", input)
		}
		if assign[i] != cur {
			if err := closeShard(); err != nil {
				return err
			}
			cur = assign[i]
			p := filepath.Join(workdir, fmt.Sprintf("%s.%0*d%s", stem, width, len(paths)+1, ext))
			nf, err := os.Create(p)
			if err != nil {
				return err
			}
			f, bw = nf, bufio.NewWriterSize(nf, 1<<20)
			paths = append(paths, p)
		}
		i++
		return writeRecord(bw, r, isFastq)
	})
	if cerr := closeShard(); err == nil {
		err = cerr
	}
	if err == nil && i != len(assign) {
		err = fmt.Errorf("%s changed while splitting", input)
	}
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Assign maps records, given their sizes, to shards 0..k-1 by the
// midpoint of each record's byte span. The mapping is non-decreasing and
// every shard's load is within one record of total/k.
func Assign(sizes []int64, k int) []int {
	var total int64
	for _, s := range sizes {
		total += s
	}
	out := make([]int, len(sizes))
	if total == 0 {
		return out
	}
	var c int64
	for j, s := range sizes {
		idx := int((2*c + s) * int64(k) / (2 * total))
		if idx >= k {
			idx = k - 1
		}
		out[j] = idx
		c += s
	}
	return out
}

func eachRecord(ctx context.Context, input string, fn func(*fastx.Record, bool) error) error {
	rd, err := fastx.NewReader(nil, input, "")
	if err != nil {
		return fmt.Errorf("open %s: %w", input, err)
	}
	defer rd.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := rd.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", input, err)
		}
		if err := fn(r, rd.IsFastq); err != nil {
			return err
		}
	}
}

// recordSize counts header, sequence and quality bytes plus one so that
// empty records still carry weight.
func recordSize(r *fastx.Record) int64 {
	return int64(len(r.Name)+len(r.Seq.Seq)+len(r.Seq.Qual)) + 1
}

func writeRecord(w *bufio.Writer, r *fastx.Record, fastq bool) error {
	if fastq {
		w.WriteByte('@')
	} else {
		w.WriteByte('>')
	}
	w.Write(r.Name)
	w.WriteByte('\n')
	w.Write(r.Seq.Seq)
	if !fastq {
		return w.WriteByte('\n')
	}
	w.WriteString("\n+\n")
	w.Write(r.Seq.Qual)
	return w.WriteByte('\n')
}

func splitName(input string, fastq bool) (stem, ext string) {
	base := strings.TrimSuffix(filepath.Base(input), ".gz")
	ext = filepath.Ext(base)
	stem = strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".fasta"
		if fastq {
			ext = ".fastq"
		}
	}
	return stem, ext
}
