package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability/noop"
)

// Config is the immutable executor configuration.
type Config struct {
	// Credential is sent as X-API-Key on every attempt. Required.
	Credential string
	// BaseEndpoint defaults to DefaultBaseEndpoint. Trailing slashes are stripped.
	BaseEndpoint string
	// Timeout bounds each attempt. Non-positive means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries is the retry budget after the first attempt. Negative means
	// DefaultMaxRetries, 0 disables retries.
	MaxRetries int
	ClientType ClientType
	SDKVersion string
	UserAgent  string
}

func (c Config) normalized() (Config, error) {
	if c.Credential == "" {
		return c, NewAuthRequiredError()
	}

	c.BaseEndpoint = strings.TrimRight(strings.TrimSpace(c.BaseEndpoint), "/")
	if c.BaseEndpoint == "" {
		c.BaseEndpoint = DefaultBaseEndpoint
	}
	u, err := url.Parse(c.BaseEndpoint)
	if err != nil {
		return c, newInvalidRequestError("invalid base endpoint", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return c, newInvalidRequestError(fmt.Sprintf("invalid base endpoint %q", c.BaseEndpoint), nil)
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.ClientType == "" {
		c.ClientType = ClientTypeServer
	}
	if c.SDKVersion == "" {
		c.SDKVersion = Version
	}
	if c.UserAgent == "" {
		c.UserAgent = "boardroom-go/" + c.SDKVersion
	}
	return c, nil
}

// Executor is the single place where calls to the service are issued and
// retried. It is safe for concurrent use: every call keeps its own attempt
// state and nothing is shared between calls besides the immutable config.
type Executor struct {
	cfg             Config
	o11y            observability.Observability
	instrumentation *instrumentation
	httpClient      *http.Client
	baseTransport   http.RoundTripper
	wait            WaitFunc
	maxResponseSize int64
	newRequestID    func() string
}

// NewExecutor validates cfg and builds an executor. A missing credential
// fails with ErrAuthRequired before any I/O.
func NewExecutor(cfg Config, opts ...Option) (*Executor, error) {
	normalized, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	e := &Executor{
		cfg:             normalized,
		o11y:            noop.NewProvider(),
		wait:            SleepWithContext,
		maxResponseSize: DefaultMaxResponseSize,
		newRequestID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.instrumentation = newInstrumentation(e.o11y)
	e.httpClient = e.buildHTTPClient()
	return e, nil
}

// buildHTTPClient wraps the base transport with attempt instrumentation.
// Transport chain: observableTransport -> base.
func (e *Executor) buildHTTPClient() *http.Client {
	client := &http.Client{}
	if e.httpClient != nil {
		copied := *e.httpClient
		client = &copied
	}

	base := e.baseTransport
	if base == nil {
		base = client.Transport
	}
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	client.Transport = &observableTransport{
		base:            base,
		instrumentation: e.instrumentation,
	}
	return client
}

func (e *Executor) Config() Config {
	return e.cfg
}

// URL returns the absolute URL for a descriptor path.
func (e *Executor) URL(path string) string {
	return e.cfg.BaseEndpoint + path
}

// Execute runs d through the retry state machine and returns the decoded
// JSON body of the successful response. Every failure is a *ClientError.
//
// At most MaxRetries+1 attempts are made. 429 and 503 responses are retried
// after 2^attempt seconds, transport failures and invalid JSON after a flat
// second. A fired attempt timeout ends the call with TIMEOUT regardless of
// the remaining budget.
func (e *Executor) Execute(ctx context.Context, d Descriptor) (Result, error) {
	requestID := e.newRequestID()
	inst := e.instrumentation

	ctx, span := inst.tracer.Start(ctx, "boardroom.request",
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithAttributes(
			observability.String("http.method", d.Method),
			observability.String("boardroom.path", d.Path),
			observability.String("boardroom.request_id", requestID),
			observability.Int("retry.max_attempts", e.cfg.MaxRetries+1),
		),
	)
	defer span.End()

	logger := inst.logger.With(
		observability.String("http.method", d.Method),
		observability.String("boardroom.path", d.Path),
		observability.String("boardroom.request_id", requestID),
	)
	callAttrs := []observability.Field{observability.String("http.method", d.Method)}
	inst.callCounter.Increment(context.Background(), callAttrs...)

	body, err := e.prepare(d)
	if err != nil {
		return nil, e.finishFailed(ctx, span, logger, newInvalidRequestError("invalid request", err), 0)
	}

	st := newAttemptState(e.cfg.MaxRetries)
	for !st.done() {
		switch st.state {
		case stateAttempting:
			logger.Debug(ctx, "sending request", observability.Int("retry.attempt", st.attempt()))
			st.transition(e.attempt(ctx, d, body, requestID, st.attempt()))

		case stateBackoffWait:
			span.AddEvent("retry_attempt",
				observability.Int("retry.attempt", st.attempt()),
				observability.String("retry.reason", st.reason),
				observability.Int64("retry.delay_ms", st.delay.Milliseconds()),
			)
			logger.Warn(ctx, "retrying request",
				observability.Int("retry.attempt", st.attempt()),
				observability.String("retry.reason", st.reason),
				observability.Int64("retry.delay_ms", st.delay.Milliseconds()),
			)
			inst.retryCounter.Increment(context.Background(), observability.String("retry.reason", st.reason))

			if err := e.wait(ctx, st.delay); err != nil {
				st.fail(newCanceledError(err))
				continue
			}
			st.resume()
		}
	}

	span.SetAttributes(observability.Int("retry.attempts", st.attempts))
	if st.state == stateFailed {
		return nil, e.finishFailed(ctx, span, logger, st.err, st.attempts)
	}

	span.SetStatus(observability.StatusCodeOK, "")
	return st.result, nil
}

func (e *Executor) prepare(d Descriptor) (encodedBody, error) {
	if err := d.validate(); err != nil {
		return encodedBody{}, err
	}
	return d.encode()
}

func (e *Executor) finishFailed(
	ctx context.Context,
	span observability.Span,
	logger observability.Logger,
	failure *ClientError,
	attempts int,
) error {
	span.RecordError(failure)
	span.SetStatus(observability.StatusCodeError, failure.Message)
	span.SetAttributes(observability.String("error.code", failure.Code))

	e.instrumentation.callErrors.Increment(context.Background(),
		observability.String("error.code", failure.Code),
	)
	logger.Error(ctx, "request failed",
		observability.String("error.code", failure.Code),
		observability.Int("http.status_code", failure.Status),
		observability.Int("retry.attempts", attempts),
		observability.Error(failure),
	)
	return failure
}

// attempt issues one request under its own timeout. The timer is released
// as soon as the attempt returns.
func (e *Executor) attempt(ctx context.Context, d Descriptor, body encodedBody, requestID string, attempt int) attemptOutcome {
	attemptCtx, cancel := context.WithTimeoutCause(withAttempt(ctx, attempt), e.cfg.Timeout, errAttemptTimeout)
	defer cancel()

	req, err := e.newRequest(attemptCtx, d, body, requestID)
	if err != nil {
		return attemptOutcome{kind: outcomeRejected, failure: newInvalidRequestError("failed to build request", err)}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, attemptCtx, e.cfg.Timeout, err)
	}
	defer drainBody(resp)

	data, err := readBody(resp.Body, e.maxResponseSize)
	if err != nil {
		return classifyTransportError(ctx, attemptCtx, e.cfg.Timeout, err)
	}
	return classifyResponse(resp.StatusCode, data)
}

func (e *Executor) newRequest(ctx context.Context, d Descriptor, body encodedBody, requestID string) (*http.Request, error) {
	var reader io.Reader
	if body.data != nil {
		reader = bytes.NewReader(body.data)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, e.URL(d.Path), reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set(HeaderAPIKey, e.cfg.Credential)
	req.Header.Set(HeaderSDKVersion, e.cfg.SDKVersion)
	req.Header.Set(HeaderClientType, string(e.cfg.ClientType))
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set(HeaderAccept, contentTypeJSON)
	req.Header.Set(HeaderUserAgent, e.cfg.UserAgent)
	if body.contentType != "" {
		req.Header.Set(HeaderContentType, body.contentType)
	}
	return req, nil
}

func readBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrResponseTooLarge
	}
	return data, nil
}

// drainBody drains and closes the body so the connection can be reused.
func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, DefaultMaxDrainSize)
	_ = resp.Body.Close()
}
