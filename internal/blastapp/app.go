// internal/blastapp/app.go
package blastapp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"shardalign/internal/appcore"
	"shardalign/internal/cli"
	"shardalign/internal/cmdutil"
	"shardalign/internal/config"
	"shardalign/internal/freshness"
	"shardalign/internal/runner"
	"shardalign/internal/shard"
	"shardalign/internal/toolcmd"
	"shardalign/internal/version"
)

type options struct {
	cli.Common
	Format  string
	Path    string
	Program string
	EValue  float64
	Best    int
	Outfile string
}

// NewCommand returns the blastplus root command writing results to stdout
// and logs to stderr.
func NewCommand(stdout, stderr io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "blastplus database.fa query.fa",
		Short: "Run NCBI BLAST+ over a sharded query",
		Long: `Split the query into --cpus shards, run one BLAST+ process per shard
and merge their tabular output. makeblastdb runs first unless the
database index is newer than the database.`,
		Version:       version.Version,
		Args:          appcore.ExactArgs(2),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags(), &o, args[0], args[1], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(appcore.FlagError)

	def := config.Default().Blast
	fs := cmd.Flags()
	o.Register(fs)
	fs.StringVar(&o.Format, "format", def.Format, `BLAST+ -outfmt, see "blastp -help"`)
	fs.StringVar(&o.Path, "path", "", "BLAST+ install dir or full path including the program name")
	fs.StringVar(&o.Program, "prog", def.Program, "BLAST+ program to run")
	fs.Float64Var(&o.EValue, "evalue", def.EValue, "e-value cutoff")
	fs.IntVar(&o.Best, "best", def.Best, "only look for best N hits")
	fs.StringVarP(&o.Outfile, "outfile", "o", "-", `output file ("-" for stdout)`)
	return cmd
}

// RunContext runs blastplus with argv and returns the process exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	cmd := NewCommand(stdout, stderr)
	cmd.SetArgs(argv)
	return appcore.ExitCode(cmd.ExecuteContext(ctx), stderr)
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func run(ctx context.Context, fs *pflag.FlagSet, o *options, dbFile, queryFile string, stdout, stderr io.Writer) error {
	cfg, err := o.Resolve(fs)
	if err != nil {
		return &appcore.UsageError{Err: err}
	}
	cli.Override(fs, "format", &cfg.Blast.Format, o.Format)
	cli.Override(fs, "path", &cfg.Blast.Path, o.Path)
	cli.Override(fs, "prog", &cfg.Blast.Program, o.Program)
	cli.Override(fs, "evalue", &cfg.Blast.EValue, o.EValue)
	cli.Override(fs, "best", &cfg.Blast.Best, o.Best)
	if err := cfg.Validate(); err != nil {
		return &appcore.UsageError{Err: err}
	}
	if cfg.Blast.Program == "" {
		return appcore.Usagef("--prog must name a BLAST+ program")
	}
	extra, err := cli.ExtraArgs(cfg.Blast.Extra)
	if err != nil {
		return &appcore.UsageError{Err: err}
	}

	for _, fn := range []string{queryFile, dbFile} {
		if _, err := os.Stat(fn); err != nil {
			return &appcore.UsageError{Err: err}
		}
	}
	if queryFile, err = filepath.Abs(queryFile); err != nil {
		return err
	}
	if dbFile, err = filepath.Abs(dbFile); err != nil {
		return err
	}

	env, err := appcore.Setup("blastplus", cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(ctx); cerr != nil {
			env.Logger.Warn("closing telemetry", slog.Any("err", cerr))
		}
	}()
	log := env.Logger

	out, closeOut, err := openOutfile(o.Outfile, stdout)
	if err != nil {
		return err
	}

	bin := toolcmd.BlastBinary(cfg.Blast.Path, cfg.Blast.Program)
	dbtype := toolcmd.DBType(bin)
	r := &runner.Runner{Stdout: env.Stderr, Stderr: env.Stderr, Logger: log}
	gate := freshness.Gate{Logger: log}
	built, err := gate.Ensure(ctx, toolcmd.BlastIndexFile(dbFile, dbtype), []string{dbFile}, "makeblastdb",
		func(ctx context.Context) error {
			return r.Run(ctx, toolcmd.MakeBlastDB(dbFile, dbtype), runner.Redirect{})
		})
	if err != nil {
		_ = closeOut()
		return err
	}
	env.Metrics.Build("makeblastdb", built)

	template := toolcmd.BlastTemplate(toolcmd.BlastOptions{
		Path:     cfg.Blast.Path,
		Program:  cfg.Blast.Program,
		Database: dbFile,
		Format:   cfg.Blast.Format,
		EValue:   cfg.Blast.EValue,
		Best:     cfg.Blast.Best,
		Extra:    extra,
	})
	log.Debug("blast template", slog.String("cmd", template.String()), slog.Int("cpus", cfg.CPUs))

	rep, err := cmdutil.RunSharded(ctx, cmdutil.ShardOptions{
		Planner: shard.FastxPlanner{},
		Shards:  cfg.CPUs,
		Workdir: cfg.Workdir,
		Timeout: cfg.ShardTimeout,
		Stderr:  env.Stderr,
		Logger:  log,
		Metrics: env.Metrics,
	}, queryFile, func(p string) toolcmd.Command { return toolcmd.BlastQuery(template, p) }, out)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.Info("blast finished", slog.String("run", rep.RunID), slog.Int64("hits", rep.Lines))
	return nil
}

func openOutfile(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
