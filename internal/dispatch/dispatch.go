// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shardalign/internal/aggregate"
	"shardalign/internal/worker"
)

// ErrNoJobs is returned when Run is handed an empty job list.
var ErrNoJobs = errors.New("dispatch: no shard jobs")

// ShardFailure names one shard that did not finish cleanly.
type ShardFailure struct {
	Index int
	Input string
	Err   error
}

// Error reports every failed shard of a run, ordered by shard index.
// Output of the shards that succeeded is already in the sink.
type Error struct {
	RunID    string
	Total    int
	Failures []ShardFailure
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d shards failed", len(e.Failures), e.Total)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; %s: %v", f.Input, f.Err)
	}
	return b.String()
}

// Unwrap exposes the per-shard causes to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Report summarizes a completed run.
type Report struct {
	RunID    string
	Results  []worker.Result // job order; failed shards keep their partial counts
	Lines    int64
	Duration time.Duration
}

// Dispatcher fans jobs out to one subprocess each and waits for all of
// them. The Worker's sink is the only state the shards share.
type Dispatcher struct {
	Worker *worker.Worker
	Logger *slog.Logger
}

// Run starts every job at once and returns after each subprocess has
// exited and its output has been drained. A failing shard does not stop
// its siblings, except when the sink itself breaks: then nothing more can
// be merged and the remaining shards are killed, each failing with the
// sink's *aggregate.WriteError. Cancelling ctx kills all shards and Run
// returns an error wrapping ctx.Err().
func (d *Dispatcher) Run(ctx context.Context, jobs []worker.Job) (Report, error) {
	if len(jobs) == 0 {
		return Report{}, ErrNoJobs
	}
	rep := Report{RunID: uuid.NewString(), Results: make([]worker.Result, len(jobs))}
	log := d.logger().With(slog.String("run", rep.RunID))

	ctx, span := startRunSpan(ctx, rep.RunID, len(jobs))
	defer span.End()
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	log.Info(fmt.Sprintf("Dispatch job to %d cpus", len(jobs)))
	start := time.Now()

	var (
		mu       sync.Mutex
		failures []ShardFailure
	)
	var g errgroup.Group
	for i, job := range jobs {
		g.Go(func() error {
			res, err := d.Worker.Run(runCtx, job)
			rep.Results[i] = res
			if err == nil {
				return nil
			}
			var we *aggregate.WriteError
			if errors.As(err, &we) {
				cancel(we)
			}
			if ctx.Err() == nil {
				log.Error("shard failed", slog.Int("shard", job.Index), slog.String("input", job.Input), slog.Any("err", err))
			}
			mu.Lock()
			failures = append(failures, ShardFailure{Index: job.Index, Input: job.Input, Err: err})
			mu.Unlock()
			return err
		})
	}
	_ = g.Wait()

	rep.Duration = time.Since(start)
	for _, r := range rep.Results {
		rep.Lines += r.Lines
	}

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("run %s cancelled: %w", rep.RunID, err)
		recordRunError(span, err)
		return rep, err
	}
	if len(failures) > 0 {
		sort.Slice(failures, func(a, b int) bool { return failures[a].Index < failures[b].Index })
		err := &Error{RunID: rep.RunID, Total: len(jobs), Failures: failures}
		recordRunError(span, err)
		return rep, err
	}
	setRunSpanResult(span, rep)
	log.Info("dispatch finished",
		slog.Int("shards", len(jobs)),
		slog.Int64("lines", rep.Lines),
		slog.Duration("duration", rep.Duration),
	)
	return rep, nil
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}
