package httpclient

import (
	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

// instrumentation holds instruments created once per Executor and shared by
// every call. Safe for concurrent use.
type instrumentation struct {
	tracer observability.Tracer
	logger observability.Logger

	// per logical call
	callCounter  observability.Counter
	callErrors   observability.Counter
	retryCounter observability.Counter

	// per attempt
	attemptCounter   observability.Counter
	attemptErrors    observability.Counter
	latencyHistogram observability.Histogram
}

func newInstrumentation(o11y observability.Observability) *instrumentation {
	metrics := o11y.Metrics()
	return &instrumentation{
		tracer: o11y.Tracer(),
		logger: o11y.Logger(),

		callCounter: metrics.Counter(
			"boardroom.client.request.count",
			"Total number of SDK calls",
			"{request}",
		),
		callErrors: metrics.Counter(
			"boardroom.client.request.errors",
			"Total number of SDK calls that ended in a ClientError",
			"{error}",
		),
		retryCounter: metrics.Counter(
			"boardroom.client.retry.count",
			"Total number of retried attempts",
			"{retry}",
		),

		attemptCounter: metrics.Counter(
			"http.client.request.count",
			"Total number of HTTP client requests",
			"{request}",
		),
		attemptErrors: metrics.Counter(
			"http.client.request.errors",
			"Total number of HTTP client request errors",
			"{error}",
		),
		latencyHistogram: metrics.Histogram(
			"http.client.request.duration",
			"Duration of HTTP client requests",
			"ms",
		),
	}
}
