package observability

import "context"

// Tracer starts spans around SDK calls and their individual attempts.
type Tracer interface {
	// Start creates a span and returns a context carrying it.
	// Callers must End the span.
	Start(ctx context.Context, spanName string, opts ...SpanOption) (context.Context, Span)

	// SpanFromContext returns the active span, or a non-recording one.
	SpanFromContext(ctx context.Context) Span
}

// SpanContext identifies a span for log correlation.
type SpanContext interface {
	TraceID() string
	SpanID() string
	IsSampled() bool
}

// Span is an active trace span.
type Span interface {
	End()
	SetAttributes(fields ...Field)
	SetStatus(code StatusCode, description string)
	RecordError(err error, fields ...Field)
	AddEvent(name string, fields ...Field)
	Context() SpanContext
}

type StatusCode int

const (
	StatusCodeUnset StatusCode = iota
	StatusCodeOK
	StatusCodeError
)

type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindClient
)

// SpanOption configures span creation.
type SpanOption interface {
	apply(*spanConfig)
}

type spanConfig struct {
	kind       SpanKind
	attributes []Field
}

type spanOptionFunc func(*spanConfig)

func (f spanOptionFunc) apply(c *spanConfig) {
	f(c)
}

func WithSpanKind(kind SpanKind) SpanOption {
	return spanOptionFunc(func(c *spanConfig) {
		c.kind = kind
	})
}

func WithAttributes(fields ...Field) SpanOption {
	return spanOptionFunc(func(c *spanConfig) {
		c.attributes = append(c.attributes, fields...)
	})
}

// SpanConfig exposes resolved span options to provider implementations.
type SpanConfig interface {
	Kind() SpanKind
	Attributes() []Field
}

// NewSpanConfig resolves span options. Exported for provider implementations.
func NewSpanConfig(opts []SpanOption) SpanConfig {
	cfg := &spanConfig{
		kind:       SpanKindInternal,
		attributes: make([]Field, 0),
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

func (c *spanConfig) Kind() SpanKind {
	return c.kind
}

func (c *spanConfig) Attributes() []Field {
	return c.attributes
}
