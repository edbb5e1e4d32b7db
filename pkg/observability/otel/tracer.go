package otel

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

type otelTracer struct {
	tracer oteltrace.Tracer
}

func newOtelTracer(tracer oteltrace.Tracer) *otelTracer {
	return &otelTracer{tracer: tracer}
}

func (t *otelTracer) Start(ctx context.Context, spanName string, opts ...observability.SpanOption) (context.Context, observability.Span) {
	cfg := observability.NewSpanConfig(opts)

	otelOpts := []oteltrace.SpanStartOption{oteltrace.WithSpanKind(convertSpanKind(cfg.Kind()))}
	if attrs := convertFieldsToAttributes(cfg.Attributes()); attrs != nil {
		otelOpts = append(otelOpts, oteltrace.WithAttributes(attrs...))
	}

	ctx, span := t.tracer.Start(ctx, spanName, otelOpts...)
	return ctx, &otelSpan{span: span}
}

// SpanFromContext returns a non-recording span when ctx carries none.
func (t *otelTracer) SpanFromContext(ctx context.Context) observability.Span {
	return &otelSpan{span: oteltrace.SpanFromContext(ctx)}
}

type otelSpan struct {
	span oteltrace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttributes(fields ...observability.Field) {
	if attrs := convertFieldsToAttributes(fields); attrs != nil {
		s.span.SetAttributes(attrs...)
	}
}

func (s *otelSpan) SetStatus(code observability.StatusCode, description string) {
	s.span.SetStatus(convertStatusCode(code), description)
}

func (s *otelSpan) RecordError(err error, fields ...observability.Field) {
	attrs := convertFieldsToAttributes(fields)
	if attrs == nil {
		s.span.RecordError(err)
		return
	}
	s.span.RecordError(err, oteltrace.WithAttributes(attrs...))
}

func (s *otelSpan) AddEvent(name string, fields ...observability.Field) {
	attrs := convertFieldsToAttributes(fields)
	if attrs == nil {
		s.span.AddEvent(name)
		return
	}
	s.span.AddEvent(name, oteltrace.WithAttributes(attrs...))
}

func (s *otelSpan) Context() observability.SpanContext {
	return &otelSpanContext{ctx: s.span.SpanContext()}
}

type otelSpanContext struct {
	ctx oteltrace.SpanContext
}

func (c *otelSpanContext) TraceID() string {
	return c.ctx.TraceID().String()
}

func (c *otelSpanContext) SpanID() string {
	return c.ctx.SpanID().String()
}

func (c *otelSpanContext) IsSampled() bool {
	return c.ctx.IsSampled()
}

func convertSpanKind(kind observability.SpanKind) oteltrace.SpanKind {
	if kind == observability.SpanKindClient {
		return oteltrace.SpanKindClient
	}
	return oteltrace.SpanKindInternal
}

func convertStatusCode(code observability.StatusCode) codes.Code {
	switch code {
	case observability.StatusCodeOK:
		return codes.Ok
	case observability.StatusCodeError:
		return codes.Error
	default:
		return codes.Unset
	}
}
