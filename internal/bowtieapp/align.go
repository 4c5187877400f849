// internal/bowtieapp/align.go
package bowtieapp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"shardalign/internal/appcore"
	"shardalign/internal/bowtielog"
	"shardalign/internal/cli"
	"shardalign/internal/fastq"
	"shardalign/internal/freshness"
	"shardalign/internal/runner"
	"shardalign/internal/toolcmd"
)

type alignOptions struct {
	cli.Common
	FirstN    int
	Unmapped  string
	Log       bool
	BAM       bool
	OutputDir string
}

func newAlignCommand(stderr io.Writer) *cobra.Command {
	var o alignOptions
	cmd := &cobra.Command{
		Use:   "align database.fasta read1.fq [read2.fq]",
		Short: "Wrap bowtie2 single-end or paired-end, depending on the number of read files",
		Args:  appcore.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlign(cmd.Context(), cmd.Flags(), &o, args[0], args[1:], stderr)
		},
	}
	fs := cmd.Flags()
	o.Register(fs)
	o.RegisterGrid(fs)
	fs.IntVar(&o.FirstN, "firstN", 0, "use only the first N reads (0 = all)")
	fs.StringVar(&o.Unmapped, "unmapped", "", "write unmapped reads to this file")
	fs.BoolVar(&o.Log, "log", false, "write bowtie2's summary to <prefix>.log")
	fs.BoolVar(&o.BAM, "bam", false, "write BAM through samtools instead of SAM")
	fs.StringVar(&o.OutputDir, "output-dir", ".", "directory for <prefix>.sam|.bam and <prefix>.log")
	return cmd
}

// Outputs names the files one alignment produces.
type Outputs struct {
	Prefix string
	SAM    string // .sam or .bam
	Log    string // empty unless requested
}

// OutputsFor derives <readstem>.<dbstem> from the first dot-separated part
// of each base name, e.g. reads.fq.gz + hg38.fa -> reads.hg38.
func OutputsFor(dir, db, reads string, bam, log bool) Outputs {
	prefix := filepath.Join(dir, stem(reads)+"."+stem(db))
	o := Outputs{Prefix: prefix, SAM: prefix + ".sam"}
	if bam {
		o.SAM = prefix + ".bam"
	}
	if log {
		o.Log = prefix + ".log"
	}
	return o
}

func stem(p string) string {
	base := filepath.Base(p)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

func runAlign(ctx context.Context, fs *pflag.FlagSet, o *alignOptions, db string, reads []string, stderr io.Writer) error {
	cfg, err := o.Resolve(fs)
	if err != nil {
		return &appcore.UsageError{Err: err}
	}
	if o.FirstN < 0 {
		return appcore.Usagef("--firstN must be >= 0, got %d", o.FirstN)
	}
	extra, err := cli.ExtraArgs(cfg.Bowtie.Extra)
	if err != nil {
		return &appcore.UsageError{Err: err}
	}
	for _, fn := range append([]string{db}, reads...) {
		if _, err := os.Stat(fn); err != nil {
			return &appcore.UsageError{Err: err}
		}
	}
	if err := os.MkdirAll(o.OutputDir, 0o755); err != nil {
		return err
	}

	env, err := appcore.Setup("bowtie", cfg, stderr)
	if err != nil {
		return err
	}
	defer closeEnv(ctx, env)
	log := env.Logger
	if len(reads) == 1 {
		log.Debug("Single-end alignment")
	} else {
		log.Debug("Paired-end alignment")
	}

	grid := cfg.Grid.Grid()
	r := &runner.Runner{Grid: grid, Stdout: env.Stderr, Stderr: env.Stderr, Logger: log}
	index, err := ensureIndex(ctx, env, r, db, nil)
	if err != nil {
		return err
	}

	out := OutputsFor(o.OutputDir, db, reads[0], o.BAM, o.Log)
	offset, err := fastq.GuessOffset(reads[0])
	if err != nil {
		return err
	}
	align, err := toolcmd.Bowtie2Align(toolcmd.Bowtie2Options{
		Database: db,
		Reads:    reads,
		Unmapped: o.Unmapped,
		FirstN:   o.FirstN,
		CPUs:     cfg.CPUs,
		Offset:   offset,
		Extra:    extra,
	})
	if err != nil {
		return &appcore.UsageError{Err: err}
	}
	rd := runner.Redirect{Stdout: out.SAM, Stderr: out.Log}
	if o.BAM {
		bam := toolcmd.SamToBam()
		rd.Pipe = &bam
	}

	// A grid-submitted index may not exist yet; only the reads gate then.
	sources := append([]string{index}, reads...)
	if grid.Enabled() {
		sources = reads
	}
	if cfg.ShardTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ShardTimeout)
		defer cancel()
	}
	gate := freshness.Gate{Logger: log}
	built, err := gate.Ensure(ctx, out.SAM, sources, "bowtie2", func(ctx context.Context) error {
		return r.Run(ctx, align, rd)
	})
	if err != nil {
		return err
	}
	env.Metrics.Build("bowtie2", built)

	if built && out.Log != "" && !grid.Enabled() {
		s, err := bowtielog.Parse(out.Log)
		if err != nil {
			log.Warn("alignment summary unreadable", slog.String("log", out.Log), slog.Any("err", err))
		} else {
			log.Info(s.String(), slog.String("log", out.Log), slog.Float64("rate", s.Rate))
		}
	}
	log.Info("alignment ready", slog.String("output", out.SAM))
	return nil
}
