// internal/worker/worker.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"go.opentelemetry.io/otel/trace"

	"shardalign/internal/metrics"
	"shardalign/internal/toolcmd"
)

const (
	// DefaultComment marks per-invocation header lines that must not be
	// repeated once per shard in the merged output.
	DefaultComment = '#'

	stderrTail = 4 << 10
	waitDelay  = 5 * time.Second
)

// LineWriter receives surviving output lines. Implementations must be safe
// for concurrent use; aggregate.Aggregator is the production one.
type LineWriter interface {
	WriteLine(string) error
}

// Job is one shard: its ordinal (1-based, for logs only), its input file,
// and the complete command with that file already substituted in.
type Job struct {
	Index int
	Input string
	Cmd   toolcmd.Command
}

// Result describes a shard that ran to completion.
type Result struct {
	Index    int
	Input    string
	Lines    int64 // forwarded to the sink
	Skipped  int64 // comment lines dropped
	Duration time.Duration
}

// Worker runs shard subprocesses and streams their filtered stdout into
// Sink. One Worker value may run many jobs concurrently; it holds no
// per-job state.
type Worker struct {
	Sink    LineWriter
	Comment byte          // 0 means DefaultComment
	Timeout time.Duration // per shard; 0 = wait for exit
	Stderr  io.Writer     // receives subprocess stderr; nil discards it
	Metrics *metrics.Run
	Logger  *slog.Logger
}

// Run executes job and returns once its subprocess has exited and its
// output has been drained. Errors are *SpawnError, *ExitError,
// *TimeoutError, *ReadError, the sink's own error, or the context's
// cancellation cause.
func (w *Worker) Run(ctx context.Context, job Job) (Result, error) {
	res := Result{Index: job.Index, Input: job.Input}
	log := w.logger().With(slog.Int("shard", job.Index))

	ctx, span := startShardSpan(ctx, job)
	defer span.End()

	runCtx, cancelTimeout := ctx, context.CancelFunc(func() {})
	if w.Timeout > 0 {
		runCtx, cancelTimeout = context.WithTimeout(ctx, w.Timeout)
	}
	defer cancelTimeout()
	runCtx, kill := context.WithCancel(runCtx)
	defer kill()

	cmd := job.Cmd.Exec(runCtx)
	cmd.WaitDelay = waitDelay
	tail := &tailBuffer{max: stderrTail}
	if w.Stderr != nil {
		cmd.Stderr = io.MultiWriter(tail, w.Stderr)
	} else {
		cmd.Stderr = tail
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return res, w.fail(span, metrics.KindSpawn, &SpawnError{Shard: job.Index, Cmd: job.Cmd.String(), Err: err})
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return res, w.fail(span, metrics.KindSpawn, &SpawnError{Shard: job.Index, Cmd: job.Cmd.String(), Err: err})
	}
	w.Metrics.ShardStarted()
	// Unblock the read loop if the process is killed while a child still
	// holds the pipe open.
	stopClose := context.AfterFunc(runCtx, func() { _ = stdout.Close() })
	defer stopClose()
	log.Debug(fmt.Sprintf("job <%d> started: %s", cmd.Process.Pid, job.Cmd), slog.String("input", job.Input))

	comment := w.Comment
	if comment == 0 {
		comment = DefaultComment
	}

	var streamErr error
	for line, rerr := range Lines(stdout) {
		if rerr != nil {
			streamErr = &ReadError{Shard: job.Index, Err: rerr}
			break
		}
		if len(line) > 0 && line[0] == comment {
			res.Skipped++
			continue
		}
		if werr := w.Sink.WriteLine(line); werr != nil {
			streamErr = werr
			break
		}
		res.Lines++
	}
	if streamErr != nil {
		kill()
	}
	waitErr := cmd.Wait()
	res.Duration = time.Since(start)
	setShardSpanResult(span, res)

	switch {
	case ctx.Err() != nil:
		// A caller that cancels with a cause (a broken sink) gets the cause back.
		cause := context.Cause(ctx)
		kind := metrics.KindCancel
		if cause != ctx.Err() {
			kind = metrics.KindSink
		}
		return res, w.fail(span, kind, fmt.Errorf("shard %d: %w", job.Index, cause))
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return res, w.fail(span, metrics.KindTimeout, &TimeoutError{Shard: job.Index, After: w.Timeout})
	case streamErr != nil:
		var re *ReadError
		if errors.As(streamErr, &re) {
			return res, w.fail(span, metrics.KindRead, streamErr)
		}
		return res, w.fail(span, metrics.KindSink, streamErr)
	case waitErr != nil:
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return res, w.fail(span, metrics.KindExit, &ExitError{Shard: job.Index, Code: ee.ExitCode(), Stderr: tail.String(), Err: waitErr})
		}
		return res, w.fail(span, metrics.KindRead, &ReadError{Shard: job.Index, Err: waitErr})
	}

	w.Metrics.ShardFinished(res.Duration, res.Lines, res.Skipped)
	log.Debug(fmt.Sprintf("job <%d> finished", cmd.Process.Pid),
		slog.Int64("lines", res.Lines),
		slog.Int64("skipped", res.Skipped),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (w *Worker) fail(span trace.Span, kind string, err error) error {
	w.Metrics.ShardFailed(kind)
	recordShardError(span, err)
	return err
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}

// tailBuffer keeps the last max bytes written to it. Only the exec copy
// goroutine writes; String is read after Wait.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
