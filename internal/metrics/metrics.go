// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Failure kinds used as the "kind" label of shard_failures_total.
const (
	KindSpawn   = "spawn"
	KindExit    = "exit"
	KindTimeout = "timeout"
	KindSink    = "sink"
	KindCancel  = "cancel"
	KindRead    = "read"
)

// Run holds the counters of one dispatch. Each Run owns its registry so
// independent dispatches in one process never share series. A nil *Run is
// valid and records nothing.
type Run struct {
	Registry *prometheus.Registry

	shardsStarted  prometheus.Counter
	shardFailures  *prometheus.CounterVec
	linesForwarded prometheus.Counter
	linesSkipped   prometheus.Counter
	shardDuration  prometheus.Histogram
	buildsRun      *prometheus.CounterVec
}

// NewRun creates a Run with a fresh registry.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Run{
		Registry: reg,
		shardsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "shardalign",
			Name:      "shards_started_total",
			Help:      "Subprocesses launched, one per shard.",
		}),
		shardFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardalign",
			Name:      "shard_failures_total",
			Help:      "Shards that did not finish cleanly, by failure kind.",
		}, []string{"kind"}),
		linesForwarded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "shardalign",
			Name:      "lines_forwarded_total",
			Help:      "Output lines merged into the result stream.",
		}),
		linesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "shardalign",
			Name:      "lines_skipped_total",
			Help:      "Comment lines dropped before merging.",
		}),
		shardDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shardalign",
			Name:      "shard_duration_seconds",
			Help:      "Wall time of one shard subprocess.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
		buildsRun: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardalign",
			Name:      "builds_total",
			Help:      "Freshness-gated builds, by tool and outcome (built|fresh).",
		}, []string{"tool", "outcome"}),
	}
}

func (r *Run) ShardStarted() {
	if r == nil {
		return
	}
	r.shardsStarted.Inc()
}

func (r *Run) ShardFinished(d time.Duration, lines, skipped int64) {
	if r == nil {
		return
	}
	r.shardDuration.Observe(d.Seconds())
	r.linesForwarded.Add(float64(lines))
	r.linesSkipped.Add(float64(skipped))
}

func (r *Run) ShardFailed(kind string) {
	if r == nil {
		return
	}
	r.shardFailures.WithLabelValues(kind).Inc()
}

func (r *Run) Build(tool string, built bool) {
	if r == nil {
		return
	}
	outcome := "fresh"
	if built {
		outcome = "built"
	}
	r.buildsRun.WithLabelValues(tool, outcome).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
// It is a no-op when path is empty or r is nil.
func (r *Run) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.Registry)
}
