// internal/dispatch/trace.go
package dispatch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shardalign/dispatch")

func startRunSpan(ctx context.Context, runID string, shards int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.shards", shards),
		),
	)
}

func setRunSpanResult(span trace.Span, rep Report) {
	span.SetAttributes(
		attribute.Int64("run.lines", rep.Lines),
		attribute.Int64("run.duration_ms", rep.Duration.Milliseconds()),
	)
}

func recordRunError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
