// internal/toolcmd/bowtie.go
package toolcmd

import (
	"errors"
	"strconv"
)

// Bowtie2IndexFile is the first file bowtie2-build writes for db.
func Bowtie2IndexFile(db string) string { return db + ".1.bt2" }

// Bowtie2Build indexes db under the basename db.
func Bowtie2Build(db string) Command { return New("bowtie2-build", db, db) }

// Bowtie2Options are the inputs of one bowtie2 alignment.
type Bowtie2Options struct {
	Database string
	Reads    []string // one file (single-end) or two (paired-end)
	Unmapped string   // --un / --un-conc target; empty = not written
	FirstN   int      // --upto; 0 = all reads
	CPUs     int
	Offset   int // phred offset, 33 or 64
	Extra    []string
}

// Paired reports whether o describes a paired-end run.
func (o Bowtie2Options) Paired() bool { return len(o.Reads) == 2 }

// Bowtie2Align builds the bowtie2 invocation. Flag order is fixed:
// index, reads, unmapped, upto, threads, phred, extra.
func Bowtie2Align(o Bowtie2Options) (Command, error) {
	if len(o.Reads) != 1 && len(o.Reads) != 2 {
		return Command{}, errors.New("bowtie2 needs one (single-end) or two (paired-end) read files")
	}
	if o.Offset != 33 && o.Offset != 64 {
		return Command{}, errors.New("phred offset must be 33 or 64")
	}
	c := New("bowtie2", "-x", o.Database)
	if o.Paired() {
		c = c.With("-1", o.Reads[0], "-2", o.Reads[1])
		if o.Unmapped != "" {
			c = c.With("--un-conc", o.Unmapped)
		}
	} else {
		c = c.With("-U", o.Reads[0])
		if o.Unmapped != "" {
			c = c.With("--un", o.Unmapped)
		}
	}
	if o.FirstN > 0 {
		c = c.With("--upto", strconv.Itoa(o.FirstN))
	}
	cpus := o.CPUs
	if cpus < 1 {
		cpus = 1
	}
	c = c.With("-p", strconv.Itoa(cpus), "--phred"+strconv.Itoa(o.Offset))
	return c.With(o.Extra...), nil
}

// SamToBam converts SAM on stdin to BAM on stdout.
func SamToBam() Command { return New("samtools", "view", "-bS", "-") }
