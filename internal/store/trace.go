package store

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/avada/internal/telemetry"
)

var tracer = telemetry.Tracer("github.com/roach88/avada/internal/store")

// startSpan opens a client span for one statement. The returned func ends
// the span and records err when it is non-nil.
func startSpan(ctx context.Context, name string) (context.Context, func(err error)) {
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
