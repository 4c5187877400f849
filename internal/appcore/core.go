// internal/appcore/core.go
package appcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"shardalign/internal/cmdutil"
	"shardalign/internal/config"
	"shardalign/internal/metrics"
	"shardalign/internal/telemetry"
	"shardalign/internal/version"
	"shardalign/internal/writers"
)

// Exit codes shared by every tool.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitRuntime   = 3
	ExitCancelled = 130
)

// UsageError marks bad arguments or inputs; it maps to ExitUsage.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Usagef returns a *UsageError with a formatted message.
func Usagef(format string, a ...any) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

// Env is the ambient stack of one invocation: logger, per-run metrics and
// the tracer provider.
type Env struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Run
	Stderr  io.Writer // shared by the logger and subprocess stderr

	shutdown telemetry.Shutdown
}

// Setup builds the Env for tool from the resolved config. Logs go to stderr.
func Setup(tool string, cfg config.Config, stderr io.Writer) (*Env, error) {
	stderr = writers.NewSynced(stderr)
	log, err := cmdutil.NewLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	shutdown, err := telemetry.InitFile(tool, version.Version, cfg.TraceFile)
	if err != nil {
		return nil, err
	}
	return &Env{
		Config:   cfg,
		Logger:   log.With(slog.String("tool", tool)),
		Metrics:  metrics.NewRun(),
		Stderr:   stderr,
		shutdown: shutdown,
	}, nil
}

// Close flushes spans and writes the metrics textfile. Both happen even
// after a failed run so the failure is observable.
func (e *Env) Close(ctx context.Context) error {
	err := e.shutdown(context.WithoutCancel(ctx))
	if merr := e.Metrics.WriteTextfile(e.Config.MetricsFile); merr != nil && err == nil {
		err = fmt.Errorf("write metrics: %w", merr)
	}
	return err
}

// ExitCode reports err on stderr and maps it to a process exit code.
// A closed stdout pipe is not a failure, and a run counts as cancelled,
// only when every underlying cause is one: a shard that failed on its own
// still makes the run a runtime failure.
func ExitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, everyCause(err, writers.IsBrokenPipe):
		return ExitOK
	case everyCause(err, isCancel):
		fmt.Fprintln(stderr, "cancelled")
		return ExitCancelled
	}
	fmt.Fprintln(stderr, "error:", err)
	var ue *UsageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitRuntime
}

func isCancel(err error) bool { return errors.Is(err, context.Canceled) }

// everyCause reports whether match holds for the innermost error of every
// branch of err's tree. Joined errors such as *dispatch.Error branch.
func everyCause(err error, match func(error) bool) bool {
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		errs := u.Unwrap()
		if len(errs) == 0 {
			return match(err)
		}
		for _, e := range errs {
			if e == nil || !everyCause(e, match) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		if inner := u.Unwrap(); inner != nil {
			return everyCause(inner, match)
		}
	}
	return match(err)
}
