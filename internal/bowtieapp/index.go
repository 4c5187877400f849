// internal/bowtieapp/index.go
package bowtieapp

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"shardalign/internal/appcore"
	"shardalign/internal/cli"
	"shardalign/internal/freshness"
	"shardalign/internal/runner"
	"shardalign/internal/toolcmd"
)

func newIndexCommand(stderr io.Writer) *cobra.Command {
	var c cli.Common
	cmd := &cobra.Command{
		Use:   "index database.fasta",
		Short: "Wrap bowtie2-build; skipped when database.fasta.1.bt2 is up to date",
		Args:  appcore.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd.Flags(), &c, args[0], stderr)
		},
	}
	c.Register(cmd.Flags())
	c.RegisterGrid(cmd.Flags())
	return cmd
}

func runIndex(ctx context.Context, fs *pflag.FlagSet, c *cli.Common, db string, stderr io.Writer) error {
	cfg, err := c.Resolve(fs)
	if err != nil {
		return &appcore.UsageError{Err: err}
	}
	extra, err := cli.ExtraArgs(cfg.Bowtie.Extra)
	if err != nil {
		return &appcore.UsageError{Err: err}
	}
	if _, err := os.Stat(db); err != nil {
		return &appcore.UsageError{Err: err}
	}

	env, err := appcore.Setup("bowtie", cfg, stderr)
	if err != nil {
		return err
	}
	defer closeEnv(ctx, env)

	r := &runner.Runner{Grid: cfg.Grid.Grid(), Stdout: env.Stderr, Stderr: env.Stderr, Logger: env.Logger}
	_, err = ensureIndex(ctx, env, r, db, extra)
	return err
}

// ensureIndex runs bowtie2-build unless db's index is newer than db, and
// returns the index file the freshness check is based on.
func ensureIndex(ctx context.Context, env *appcore.Env, r *runner.Runner, db string, extra []string) (string, error) {
	index := toolcmd.Bowtie2IndexFile(db)
	gate := freshness.Gate{Logger: env.Logger}
	built, err := gate.Ensure(ctx, index, []string{db}, "bowtie2-build", func(ctx context.Context) error {
		return r.Run(ctx, toolcmd.Bowtie2Build(db).With(extra...), runner.Redirect{})
	})
	if err != nil {
		return "", err
	}
	env.Metrics.Build("bowtie2-build", built)
	return index, nil
}
