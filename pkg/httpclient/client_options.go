package httpclient

import (
	"net/http"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

// Option configures an Executor.
type Option func(*Executor)

// WithObservability sets the provider for spans, logs and metrics.
// Default: noop.
func WithObservability(o11y observability.Observability) Option {
	return func(e *Executor) {
		if o11y != nil {
			e.o11y = o11y
		}
	}
}

// WithHTTPClient uses a copy of client. Its transport is wrapped with the
// attempt instrumentation; its Timeout, if any, applies on top of the
// per-attempt timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) {
		if client != nil {
			e.httpClient = client
		}
	}
}

// WithBaseTransport sets the innermost transport. Useful for proxies, custom
// TLS or test doubles.
//
//	exec, err := httpclient.NewExecutor(cfg,
//	    httpclient.WithBaseTransport(&http.Transport{Proxy: http.ProxyFromEnvironment}),
//	)
func WithBaseTransport(transport http.RoundTripper) Option {
	return func(e *Executor) {
		if transport != nil {
			e.baseTransport = transport
		}
	}
}

// WithWaitFunc replaces how backoff waits are performed.
// Default: SleepWithContext.
func WithWaitFunc(wait WaitFunc) Option {
	return func(e *Executor) {
		if wait != nil {
			e.wait = wait
		}
	}
}

// WithMaxResponseSize caps response bodies. Non-positive values are ignored.
// Default: 10MB (DefaultMaxResponseSize).
func WithMaxResponseSize(size int64) Option {
	return func(e *Executor) {
		if size > 0 {
			e.maxResponseSize = size
		}
	}
}

// WithRequestIDFunc overrides how X-Request-Id values are generated.
// Default: uuid.NewString.
func WithRequestIDFunc(fn func() string) Option {
	return func(e *Executor) {
		if fn != nil {
			e.newRequestID = fn
		}
	}
}
