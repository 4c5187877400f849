// internal/toolcmd/blast.go
package toolcmd

import (
	"os"
	"path/filepath"
	"strconv"
)

// DefaultBlastFormat is the tabular BLAST+ output requested unless overridden.
const DefaultBlastFormat = "6 qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore"

// Database types understood by makeblastdb.
const (
	DBProtein    = "prot"
	DBNucleotide = "nucl"
)

// BlastOptions describes the flags shared by every shard of a BLAST+ run.
type BlastOptions struct {
	Path     string // install dir or full binary path; empty = look up Program on PATH
	Program  string // blastp, blastn, blastx, tblastn, ...
	Database string
	Format   string
	EValue   float64
	Best     int
	Extra    []string
}

// BlastBinary resolves the executable: path if given, else program. When the
// resolved name does not end in program it is treated as a directory.
func BlastBinary(path, program string) string {
	bin := path
	if bin == "" {
		bin = program
	}
	if filepath.Base(bin) != program {
		bin = bin + "/" + program
	}
	return bin
}

// DBType returns the makeblastdb -dbtype for a BLAST+ binary.
func DBType(bin string) string {
	switch filepath.Base(bin) {
	case "blastp", "blastx":
		return DBProtein
	default:
		return DBNucleotide
	}
}

// BlastIndexFile names the artifact whose freshness decides whether
// makeblastdb must run. Large nucleotide databases are split into volumes,
// in which case the first volume's index is used.
func BlastIndexFile(db, dbtype string) string {
	if dbtype == DBProtein {
		return db + ".pin"
	}
	if vol := db + ".00.nin"; fileExists(vol) {
		return vol
	}
	return db + ".nin"
}

// MakeBlastDB builds the makeblastdb invocation for db.
func MakeBlastDB(db, dbtype string) Command {
	return New("makeblastdb", "-dbtype", dbtype, "-in", db)
}

// BlastTemplate builds the per-run command; shards append "-query <file>"
// through BlastQuery.
func BlastTemplate(o BlastOptions) Command {
	format := o.Format
	if format == "" {
		format = DefaultBlastFormat
	}
	c := New(BlastBinary(o.Path, o.Program),
		"-db", o.Database,
		"-outfmt", format,
		"-evalue", FormatEValue(o.EValue),
		"-max_target_seqs", strconv.Itoa(o.Best),
	)
	return c.With(o.Extra...)
}

// BlastQuery returns template with the shard input appended.
func BlastQuery(template Command, query string) Command {
	return template.With("-query", query)
}

// FormatEValue renders an e-value in its shortest round-trip form
// (0.01, 1e-05, 10).
func FormatEValue(e float64) string {
	return strconv.FormatFloat(e, 'g', -1, 64)
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
