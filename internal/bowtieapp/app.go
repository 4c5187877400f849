// internal/bowtieapp/app.go
package bowtieapp

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"shardalign/internal/appcore"
	"shardalign/internal/version"
)

// NewCommand returns the bowtie root command with its index, align and
// summary subcommands.
func NewCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "bowtie",
		Short:         "Run bowtie2-build and bowtie2, skipping work that is already done",
		Version:       version.Version,
		Args:          appcore.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(appcore.FlagError)
	root.AddCommand(
		newIndexCommand(stderr),
		newAlignCommand(stderr),
		newSummaryCommand(stdout),
	)
	return root
}

// RunContext runs bowtie with argv and returns the process exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	cmd := NewCommand(stdout, stderr)
	cmd.SetArgs(argv)
	return appcore.ExitCode(cmd.ExecuteContext(ctx), stderr)
}

// Run is RunContext without cancellation.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func closeEnv(ctx context.Context, env *appcore.Env) {
	if err := env.Close(ctx); err != nil {
		env.Logger.Warn("closing telemetry", slog.Any("err", err))
	}
}
