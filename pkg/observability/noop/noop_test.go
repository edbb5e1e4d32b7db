package noop_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/noop"
)

func TestProviderIsSafeToUse(t *testing.T) {
	provider := noop.NewProvider()
	ctx := context.Background()

	spanCtx, span := provider.Tracer().Start(ctx, "boardroom.request",
		observability.WithSpanKind(observability.SpanKindClient),
	)
	assert.Equal(t, ctx, spanCtx)

	span.SetAttributes(observability.Int("retry.attempts", 1))
	span.AddEvent("retry_attempt")
	span.RecordError(errors.New("boom"))
	span.SetStatus(observability.StatusCodeError, "boom")
	span.End()

	assert.Empty(t, span.Context().TraceID())
	assert.False(t, provider.Tracer().SpanFromContext(ctx).Context().IsSampled())

	logger := provider.Logger().With(observability.String("component", "executor"))
	logger.Debug(ctx, "attempt")
	logger.Error(ctx, "failed", observability.String("error.code", "NET_ERROR"))

	provider.Metrics().Counter("c", "", "").Increment(ctx)
	provider.Metrics().Histogram("h", "", "ms").Record(ctx, 1)
}
