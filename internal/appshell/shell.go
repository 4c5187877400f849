// internal/appshell/shell.go
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// exitInterrupted matches appcore.ExitCancelled; appshell stays below appcore.
const exitInterrupted = 130

// RunFunc is a tool entry point returning its exit code.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs run with a context cancelled by SIGINT or SIGTERM and exits
// with its code. After the first signal default handling is restored, so
// a second Ctrl-C kills the process without waiting for shards to drain.
func Main(run RunFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)

	code := Execute(ctx, run, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Execute invokes run and normalizes its result: an empty argv shows help,
// and a run that was interrupted but reported success exits 130.
func Execute(ctx context.Context, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		return exitInterrupted
	}
	return code
}
