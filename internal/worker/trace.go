// internal/worker/trace.go
package worker

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shardalign/worker")

func startShardSpan(ctx context.Context, job Job) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Worker.Run",
		trace.WithAttributes(
			attribute.Int("shard.index", job.Index),
			attribute.String("shard.input", job.Input),
			attribute.String("shard.command", job.Cmd.Name),
		),
	)
}

func setShardSpanResult(span trace.Span, res Result) {
	span.SetAttributes(
		attribute.Int64("shard.lines", res.Lines),
		attribute.Int64("shard.skipped", res.Skipped),
	)
}

func recordShardError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
