// internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"shardalign/internal/toolcmd"
)

// Redirect says where a single command's streams go. Empty paths fall
// back to the Runner's writers.
type Redirect struct {
	Stdout string
	Stderr string
	// Pipe, when set, receives the command's stdout and its own stdout is
	// what lands in Stdout (cmd | pipe > Stdout).
	Pipe *toolcmd.Command
}

// CommandError is a command that could not start or exited non-zero.
// Code is -1 when the process never ran.
type CommandError struct {
	Cmd  string
	Code int
	Err  error
}

func (e *CommandError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", e.Cmd, e.Code)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes one external command at a time, locally or through a
// grid submitter.
type Runner struct {
	Grid   *toolcmd.Grid
	Stdout io.Writer // default stdout; nil discards
	Stderr io.Writer // default stderr; nil discards
	Logger *slog.Logger
}

// Run executes cmd and waits for it. In grid mode the wrapped submit
// command is run instead and redirection is handed to the submitter. On
// local failure a partially written Stdout file is removed.
func (r *Runner) Run(ctx context.Context, cmd toolcmd.Command, rd Redirect) error {
	if r.Grid.Enabled() {
		return r.submit(ctx, cmd, rd)
	}
	r.logger().Debug(describe(cmd, rd))

	stdout, closeOut, err := r.open(rd.Stdout, r.Stdout)
	if err != nil {
		return err
	}
	stderr, closeErr, err := r.open(rd.Stderr, r.Stderr)
	if err != nil {
		closeOut()
		return err
	}

	if rd.Pipe != nil {
		err = runPipe(ctx, cmd, *rd.Pipe, stdout, stderr, r.Stderr)
	} else {
		err = runOne(ctx, cmd, stdout, stderr)
	}
	closeErr()
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil && rd.Stdout != "" {
		_ = os.Remove(rd.Stdout)
	}
	return err
}

func (r *Runner) submit(ctx context.Context, cmd toolcmd.Command, rd Redirect) error {
	if rd.Pipe != nil {
		cmd = toolcmd.New("sh", "-c", cmd.String()+" | "+rd.Pipe.String())
	}
	job := r.Grid.Wrap(cmd, rd.Stdout, rd.Stderr)
	r.logger().Info("submitting to grid", slog.String("cmd", job.String()))
	return runOne(ctx, job, orDiscard(r.Stdout), orDiscard(r.Stderr))
}

func (r *Runner) open(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return orDiscard(fallback), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func runOne(ctx context.Context, cmd toolcmd.Command, stdout, stderr io.Writer) error {
	c := cmd.Exec(ctx)
	c.Stdout, c.Stderr = stdout, stderr
	if err := c.Start(); err != nil {
		return &CommandError{Cmd: cmd.String(), Code: -1, Err: err}
	}
	return classify(ctx, cmd, c.Wait())
}

// runPipe connects first's stdout to second's stdin. first's stderr goes
// to stderr (the tool's log); second's goes to pipeErr.
func runPipe(ctx context.Context, first, second toolcmd.Command, stdout, stderr, pipeErr io.Writer) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		return err
	}
	c1, c2 := first.Exec(ctx), second.Exec(ctx)
	c1.Stdout, c1.Stderr = pw, stderr
	c2.Stdin, c2.Stdout, c2.Stderr = pr, stdout, orDiscard(pipeErr)

	if err := c2.Start(); err != nil {
		pr.Close()
		pw.Close()
		return &CommandError{Cmd: second.String(), Code: -1, Err: err}
	}
	pr.Close()
	if err := c1.Start(); err != nil {
		pw.Close()
		_ = c2.Wait()
		return &CommandError{Cmd: first.String(), Code: -1, Err: err}
	}
	pw.Close()

	err1 := classify(ctx, first, c1.Wait())
	err2 := classify(ctx, second, c2.Wait())
	if err1 != nil {
		return err1
	}
	return err2
}

func classify(ctx context.Context, cmd toolcmd.Command, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &CommandError{Cmd: cmd.String(), Code: ee.ExitCode(), Err: err}
	}
	return &CommandError{Cmd: cmd.String(), Code: -1, Err: err}
}

func describe(cmd toolcmd.Command, rd Redirect) string {
	s := cmd.String()
	if rd.Pipe != nil {
		s += " | " + rd.Pipe.String()
	}
	if rd.Stdout != "" {
		s += " > " + rd.Stdout
	}
	if rd.Stderr != "" {
		s += " 2> " + rd.Stderr
	}
	return s
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
