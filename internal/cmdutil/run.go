// internal/cmdutil/run.go
package cmdutil

import (
	"context"
	"io"
	"log/slog"
	"time"

	"shardalign/internal/aggregate"
	"shardalign/internal/dispatch"
	"shardalign/internal/metrics"
	"shardalign/internal/shard"
	"shardalign/internal/toolcmd"
	"shardalign/internal/worker"
)

// ShardOptions configures one split, dispatch and merge pass.
type ShardOptions struct {
	Planner shard.Planner
	Shards  int
	Workdir string
	Timeout time.Duration // per shard; 0 = unbounded
	Stderr  io.Writer     // subprocess stderr; nil discards
	Logger  *slog.Logger
	Metrics *metrics.Run
}

// RunSharded splits input into shards, runs build(shard) for each one
// concurrently and merges their output into out. It returns the dispatch
// report and the first planning or dispatch error.
func RunSharded(
	ctx context.Context,
	o ShardOptions,
	input string,
	build func(shardPath string) toolcmd.Command,
	out io.Writer,
) (dispatch.Report, error) {
	paths, err := o.Planner.Split(ctx, input, o.Workdir, o.Shards)
	if err != nil {
		return dispatch.Report{}, err
	}
	if o.Logger != nil {
		o.Logger.Debug("input split", slog.String("input", input), slog.Int("shards", len(paths)))
	}

	jobs := make([]worker.Job, len(paths))
	for i, p := range paths {
		jobs[i] = worker.Job{Index: i + 1, Input: p, Cmd: build(p)}
	}

	d := &dispatch.Dispatcher{
		Worker: &worker.Worker{
			Sink:    aggregate.New(out),
			Timeout: o.Timeout,
			Stderr:  o.Stderr,
			Metrics: o.Metrics,
			Logger:  o.Logger,
		},
		Logger: o.Logger,
	}
	return d.Run(ctx, jobs)
}
