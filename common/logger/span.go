package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tracker-relay"

// Span is a started span plus the context that carries it.
type Span struct {
	ctx  context.Context
	span trace.Span
}

// StartSpanFromTraceID starts a span that continues the trace whose hex ID was carried
// across the task stream. An empty or malformed ID starts a fresh trace.
func StartSpanFromTraceID(ctx context.Context, traceIDHex, name string, opts ...trace.SpanStartOption) *Span {
	if traceID, err := trace.TraceIDFromHex(traceIDHex); err == nil {
		remote := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
		ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &Span{ctx: ctx, span: span}
}

func (s *Span) Context() context.Context {
	return s.ctx
}

// Fail records err on the span and marks it as errored.
func (s *Span) Fail(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *Span) End() {
	s.span.End()
}
