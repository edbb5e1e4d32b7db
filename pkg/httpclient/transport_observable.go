package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

type attemptKey struct{}

func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

func attemptFromContext(ctx context.Context) int {
	attempt, _ := ctx.Value(attemptKey{}).(int)
	return attempt
}

// observableTransport wraps every attempt with a span and metrics.
//
// Span "http.client.request" attributes:
//   - http.method, http.url, http.host
//   - retry.attempt: retry counter of the attempt, 0 for the first one
//   - http.status_code: set after the response
//
// Metrics are recorded with context.Background() so attempts aborted by the
// per-attempt timeout are still counted.
type observableTransport struct {
	base            http.RoundTripper
	instrumentation *instrumentation
}

func (t *observableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx, span := t.instrumentation.tracer.Start(
		req.Context(),
		"http.client.request",
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(
			observability.String("http.method", req.Method),
			observability.String("http.url", req.URL.String()),
			observability.String("http.host", req.URL.Host),
			observability.Int("retry.attempt", attemptFromContext(req.Context())),
		),
	)
	defer span.End()

	resp, err := t.base.RoundTrip(req.WithContext(ctx))

	duration := float64(time.Since(start).Milliseconds())
	metricAttrs := []observability.Field{
		observability.String("http.method", req.Method),
		observability.String("http.host", req.URL.Host),
	}
	metricsCtx := context.Background()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusCodeError, err.Error())

		errorAttrs := append(append([]observability.Field(nil), metricAttrs...),
			observability.String("error.type", classifyError(ctx, err)),
		)
		t.instrumentation.attemptErrors.Increment(metricsCtx, errorAttrs...)
		t.instrumentation.attemptCounter.Increment(metricsCtx, metricAttrs...)
		t.instrumentation.latencyHistogram.Record(metricsCtx, duration, metricAttrs...)
		return resp, err
	}

	span.SetAttributes(observability.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(observability.StatusCodeError, fmt.Sprintf("HTTP %d", resp.StatusCode))
	} else {
		span.SetStatus(observability.StatusCodeOK, "")
	}

	metricAttrs = append(metricAttrs, observability.Int("http.status_code", resp.StatusCode))
	t.instrumentation.attemptCounter.Increment(metricsCtx, metricAttrs...)
	t.instrumentation.latencyHistogram.Record(metricsCtx, duration, metricAttrs...)

	return resp, nil
}

func classifyError(ctx context.Context, err error) string {
	if errors.Is(context.Cause(ctx), errAttemptTimeout) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "deadline_exceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network_error"
	}
	return "unknown"
}
