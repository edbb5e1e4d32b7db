package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/JailtonJunior94/boardroom-go/pkg/observability/fake"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits = append(w.waits, d)
	return nil
}

func (w *waitRecorder) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.waits...)
}

type capturedRequest struct {
	method  string
	path    string
	headers http.Header
	body    []byte
}

type ExecutorSuite struct {
	suite.Suite

	ctx      context.Context
	waits    *waitRecorder
	o11y     *fake.Provider
	hits     atomic.Int32
	mu       sync.Mutex
	captured []capturedRequest
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupTest() {
	s.ctx = context.Background()
	s.waits = &waitRecorder{}
	s.o11y = fake.NewProvider()
	s.hits.Store(0)
	s.captured = nil
}

// server answers with the given handlers in order, repeating the last one.
func (s *ExecutorSuite) server(handlers ...http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(s.hits.Add(1))
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.captured = append(s.captured, capturedRequest{
			method:  r.Method,
			path:    r.URL.Path,
			headers: r.Header.Clone(),
			body:    body,
		})
		s.mu.Unlock()

		idx := n - 1
		if idx >= len(handlers) {
			idx = len(handlers) - 1
		}
		handlers[idx](w, r)
	}))
	s.T().Cleanup(srv.Close)
	return srv
}

func (s *ExecutorSuite) executor(baseURL string, maxRetries int, opts ...Option) *Executor {
	opts = append([]Option{WithWaitFunc(s.waits.wait), WithObservability(s.o11y)}, opts...)
	exec, err := NewExecutor(Config{
		Credential:   "test-key",
		BaseEndpoint: baseURL,
		MaxRetries:   maxRetries,
	}, opts...)
	s.Require().NoError(err)
	return exec
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (s *ExecutorSuite) requireClientError(err error, status int, code string) *ClientError {
	s.Require().Error(err)
	ce, ok := AsClientError(err)
	s.Require().True(ok, "expected *ClientError, got %T", err)
	s.Equal(status, ce.Status)
	s.Equal(code, ce.Code)
	return ce
}

func (s *ExecutorSuite) TestNewExecutor_MissingCredential() {
	srv := s.server(respond(http.StatusOK, `{}`))

	exec, err := NewExecutor(Config{BaseEndpoint: srv.URL})

	s.Nil(exec)
	s.requireClientError(err, http.StatusBadRequest, CodeAuthRequired)
	s.ErrorIs(err, ErrAuthRequired)
	s.Equal(int32(0), s.hits.Load())
}

func (s *ExecutorSuite) TestNewExecutor_InvalidBaseEndpoint() {
	_, err := NewExecutor(Config{Credential: "k", BaseEndpoint: "localhost:8000"})
	s.requireClientError(err, http.StatusBadRequest, CodeInvalidRequest)
}

func (s *ExecutorSuite) TestNewExecutor_Defaults() {
	exec, err := NewExecutor(Config{Credential: "k"})
	s.Require().NoError(err)

	cfg := exec.Config()
	s.Equal(DefaultBaseEndpoint, cfg.BaseEndpoint)
	s.Equal(DefaultTimeout, cfg.Timeout)
	s.Equal(DefaultMaxRetries, cfg.MaxRetries)
	s.Equal(ClientTypeServer, cfg.ClientType)
	s.Equal(Version, cfg.SDKVersion)
	s.Equal("boardroom-go/"+Version, cfg.UserAgent)
}

func (s *ExecutorSuite) TestExecute_SendsHeadersAndJSONBody() {
	srv := s.server(respond(http.StatusOK, `{"decision":"approve"}`))
	exec := s.executor(srv.URL, 3)

	result, err := exec.Execute(s.ctx, Descriptor{
		Method:  http.MethodPost,
		Path:    "/decision",
		Payload: map[string]any{"context": "x"},
	})

	s.Require().NoError(err)
	s.JSONEq(`{"decision":"approve"}`, result.String())

	s.Require().Len(s.captured, 1)
	req := s.captured[0]
	s.Equal(http.MethodPost, req.method)
	s.Equal("/decision", req.path)
	s.JSONEq(`{"context":"x"}`, string(req.body))
	s.Equal("application/json", req.headers.Get("Content-Type"))
	s.Equal("test-key", req.headers.Get("X-API-Key"))
	s.Equal(Version, req.headers.Get("X-SDK-Version"))
	s.Equal("Server", req.headers.Get("X-Client-Type"))
	s.Equal("application/json", req.headers.Get("Accept"))
	s.NotEmpty(req.headers.Get("X-Request-Id"))
	s.Empty(s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_NoContentTypeWithoutPayload() {
	srv := s.server(respond(http.StatusOK, `[]`))
	exec := s.executor(srv.URL, 3)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.Require().NoError(err)
	s.Empty(s.captured[0].headers.Get("Content-Type"))
	s.Empty(s.captured[0].body)
}

func (s *ExecutorSuite) TestExecute_BrowserClientType() {
	srv := s.server(respond(http.StatusOK, `{}`))
	exec, err := NewExecutor(Config{
		Credential:   "k",
		BaseEndpoint: srv.URL,
		ClientType:   ClientTypeBrowser,
	})
	s.Require().NoError(err)

	_, err = exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.Require().NoError(err)
	s.Equal("Browser", s.captured[0].headers.Get("X-Client-Type"))
}

func (s *ExecutorSuite) TestExecute_TrailingSlashNormalized() {
	srv := s.server(respond(http.StatusOK, `{}`))

	for _, base := range []string{srv.URL + "/api/", srv.URL + "/api", srv.URL + "/api//"} {
		exec := s.executor(base, 0)
		s.Equal(srv.URL+"/api/decision", exec.URL("/decision"))

		_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})
		s.Require().NoError(err)
	}

	s.Require().Len(s.captured, 3)
	for _, req := range s.captured {
		s.Equal("/api/history", req.path)
	}
}

func (s *ExecutorSuite) TestExecute_OverloadThenSuccess() {
	srv := s.server(
		respond(http.StatusTooManyRequests, `{}`),
		respond(http.StatusServiceUnavailable, `{}`),
		respond(http.StatusTooManyRequests, `{}`),
		respond(http.StatusOK, `{"ok":true}`),
	)
	exec := s.executor(srv.URL, 3)

	result, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.Require().NoError(err)
	s.JSONEq(`{"ok":true}`, result.String())
	s.Equal(int32(4), s.hits.Load())
	s.Equal([]time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, s.waits.recorded())

	requestID := s.captured[0].headers.Get("X-Request-Id")
	for _, req := range s.captured {
		s.Equal(requestID, req.headers.Get("X-Request-Id"))
	}
}

func (s *ExecutorSuite) TestExecute_OverloadExhaustedKeepsUpstreamError() {
	srv := s.server(respond(http.StatusTooManyRequests, `{"code":"RATE_LIMITED","message":"slow down","details":{"retryAfter":5}}`))
	exec := s.executor(srv.URL, 3)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusTooManyRequests, "RATE_LIMITED")
	s.Equal("slow down", ce.Message)
	s.JSONEq(`{"retryAfter":5}`, string(ce.Details))
	s.Equal(int32(4), s.hits.Load())
	s.Len(s.waits.recorded(), 3)
}

func (s *ExecutorSuite) TestExecute_OverloadExhaustedWithoutBody() {
	srv := s.server(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, "<html>maintenance</html>")
	})
	exec := s.executor(srv.URL, 2)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusServiceUnavailable, CodeUpstreamError)
	s.Equal("Request failed with status 503", ce.Message)
	s.Equal(int32(3), s.hits.Load())
	s.Equal([]time.Duration{2 * time.Second, 4 * time.Second}, s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_NoRetriesWhenBudgetIsZero() {
	srv := s.server(respond(http.StatusTooManyRequests, `{}`))
	exec := s.executor(srv.URL, 0)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.requireClientError(err, http.StatusTooManyRequests, CodeUpstreamError)
	s.Equal(int32(1), s.hits.Load())
	s.Empty(s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_ClientErrorIsNotRetried() {
	srv := s.server(respond(http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"no such document"}}`))
	exec := s.executor(srv.URL, 3)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodDelete, Path: "/knowledge/missing"})

	ce := s.requireClientError(err, http.StatusNotFound, "NOT_FOUND")
	s.Equal("no such document", ce.Message)
	s.Equal(int32(1), s.hits.Load())
	s.Empty(s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_ServerErrorIsNotRetried() {
	srv := s.server(respond(http.StatusInternalServerError, `{"detail":"boom"}`))
	exec := s.executor(srv.URL, 3)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusInternalServerError, CodeUpstreamError)
	s.Equal("boom", ce.Message)
	s.Equal(int32(1), s.hits.Load())
}

func (s *ExecutorSuite) TestExecute_TimeoutIsNotRetried() {
	release := make(chan struct{})
	srv := s.server(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	s.T().Cleanup(func() { close(release) })
	exec, err := NewExecutor(Config{
		Credential:   "k",
		BaseEndpoint: srv.URL,
		Timeout:      50 * time.Millisecond,
		MaxRetries:   3,
	}, WithWaitFunc(s.waits.wait))
	s.Require().NoError(err)

	_, err = exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusRequestTimeout, CodeTimeout)
	s.Contains(ce.Message, "50ms")
	s.Equal(int32(1), s.hits.Load())
	s.Empty(s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_StalledBodyIsTimeout() {
	release := make(chan struct{})
	srv := s.server(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"partial":`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	s.T().Cleanup(func() { close(release) })
	exec, err := NewExecutor(Config{
		Credential:   "k",
		BaseEndpoint: srv.URL,
		Timeout:      50 * time.Millisecond,
		MaxRetries:   3,
	}, WithWaitFunc(s.waits.wait))
	s.Require().NoError(err)

	_, err = exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.requireClientError(err, http.StatusRequestTimeout, CodeTimeout)
	s.Equal(int32(1), s.hits.Load())
	s.Empty(s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_TransportErrorRetriedWithFlatDelay() {
	var calls atomic.Int32
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection reset by peer")
	})
	exec := s.executor("http://boardroom.test", 3, WithBaseTransport(transport))

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusInternalServerError, CodeNetError)
	s.Contains(ce.Message, "connection reset by peer")
	s.Equal(int32(4), calls.Load())
	s.Equal([]time.Duration{time.Second, time.Second, time.Second}, s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_SharedAttemptCounter() {
	var calls atomic.Int32
	srv := s.server(
		respond(http.StatusTooManyRequests, `{}`),
		respond(http.StatusOK, `{"ok":true}`),
	)
	base := http.DefaultTransport
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return base.RoundTrip(req)
	})
	exec := s.executor(srv.URL, 3, WithBaseTransport(transport))

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.Require().NoError(err)
	s.Equal([]time.Duration{time.Second, 4 * time.Second}, s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_InvalidJSONIsRetriedAsTransportError() {
	srv := s.server(
		respond(http.StatusOK, `{"truncated":`),
		respond(http.StatusOK, `{"ok":true}`),
	)
	exec := s.executor(srv.URL, 3)

	result, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.Require().NoError(err)
	s.JSONEq(`{"ok":true}`, result.String())
	s.Equal([]time.Duration{time.Second}, s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_InvalidJSONExhausted() {
	srv := s.server(respond(http.StatusOK, `not json`))
	exec := s.executor(srv.URL, 1)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusInternalServerError, CodeNetError)
	s.Contains(ce.Message, "invalid JSON response")
	s.Equal(int32(2), s.hits.Load())
}

func (s *ExecutorSuite) TestExecute_EmptyBodyIsNull() {
	srv := s.server(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	exec := s.executor(srv.URL, 3)

	result, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodDelete, Path: "/knowledge/doc-1"})

	s.Require().NoError(err)
	s.True(result.IsNull())
	s.Equal("null", result.String())
}

func (s *ExecutorSuite) TestExecute_CanceledDuringBackoff() {
	srv := s.server(respond(http.StatusServiceUnavailable, `{}`))
	ctx, cancel := context.WithCancel(s.ctx)
	wait := func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepWithContext(ctx, d)
	}
	exec := s.executor(srv.URL, 3, WithWaitFunc(wait))

	_, err := exec.Execute(ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, StatusClientClosedRequest, CodeCanceled)
	s.ErrorIs(ce, context.Canceled)
	s.Equal(int32(1), s.hits.Load())
}

func (s *ExecutorSuite) TestExecute_CallerCanceledBeforeAttempt() {
	srv := s.server(respond(http.StatusOK, `{}`))
	exec := s.executor(srv.URL, 3)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := exec.Execute(ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	s.requireClientError(err, StatusClientClosedRequest, CodeCanceled)
	s.Empty(s.waits.recorded())
}

func (s *ExecutorSuite) TestExecute_InvalidDescriptor() {
	srv := s.server(respond(http.StatusOK, `{}`))
	exec := s.executor(srv.URL, 3)

	scenarios := []struct {
		name string
		d    Descriptor
	}{
		{name: "relative path", d: Descriptor{Method: http.MethodGet, Path: "history"}},
		{name: "empty path", d: Descriptor{Method: http.MethodGet}},
		{name: "unknown method", d: Descriptor{Method: "TRACE", Path: "/history"}},
		{name: "put", d: Descriptor{Method: http.MethodPut, Path: "/decision", Payload: map[string]string{"context": "x"}}},
		{name: "patch", d: Descriptor{Method: http.MethodPatch, Path: "/decision", Payload: map[string]string{"context": "x"}}},
		{name: "lower-case method", d: Descriptor{Method: "get", Path: "/history"}},
		{name: "binary upload without multipart", d: Descriptor{Method: http.MethodPost, Path: "/knowledge/upload", BinaryUpload: true, Payload: "x"}},
		{name: "unencodable payload", d: Descriptor{Method: http.MethodPost, Path: "/decision", Payload: make(chan int)}},
	}

	for _, scenario := range scenarios {
		s.Run(scenario.name, func() {
			_, err := exec.Execute(s.ctx, scenario.d)
			s.requireClientError(err, http.StatusBadRequest, CodeInvalidRequest)
		})
	}
	s.Equal(int32(0), s.hits.Load())
}

func (s *ExecutorSuite) TestExecute_MultipartReplayedOnRetry() {
	srv := s.server(
		respond(http.StatusServiceUnavailable, `{}`),
		respond(http.StatusCreated, `{"id":"doc-1"}`),
	)
	exec := s.executor(srv.URL, 3)

	body, err := NewMultipartBuilder().
		AddFile("file", "notes.txt", "text/plain", strings.NewReader("hello board")).
		AddField("title", "Notes").
		Build()
	s.Require().NoError(err)

	_, err = exec.Execute(s.ctx, Descriptor{
		Method:       http.MethodPost,
		Path:         "/knowledge/upload",
		Payload:      body,
		BinaryUpload: true,
	})
	s.Require().NoError(err)

	s.Require().Len(s.captured, 2)
	s.Equal(s.captured[0].body, s.captured[1].body)

	for _, req := range s.captured {
		mediaType, params, err := mime.ParseMediaType(req.headers.Get("Content-Type"))
		s.Require().NoError(err)
		s.Equal("multipart/form-data", mediaType)

		reader := multipart.NewReader(strings.NewReader(string(req.body)), params["boundary"])
		form, err := reader.ReadForm(1 << 20)
		s.Require().NoError(err)
		s.Equal([]string{"Notes"}, form.Value["title"])
		s.Require().Len(form.File["file"], 1)
		s.Equal("notes.txt", form.File["file"][0].Filename)
	}
}

func (s *ExecutorSuite) TestExecute_ResponseTooLarge() {
	srv := s.server(respond(http.StatusOK, `{"data":"`+strings.Repeat("a", 64)+`"}`))
	exec := s.executor(srv.URL, 3, WithMaxResponseSize(16))

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusInternalServerError, CodeNetError)
	s.ErrorIs(ce, ErrResponseTooLarge)
	s.Equal(int32(1), s.hits.Load())
}

func (s *ExecutorSuite) TestExecute_Instrumentation() {
	srv := s.server(
		respond(http.StatusTooManyRequests, `{}`),
		respond(http.StatusOK, `{}`),
	)
	exec := s.executor(srv.URL, 3, WithRequestIDFunc(func() string { return "req-1" }))

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})
	s.Require().NoError(err)

	tracer := s.o11y.Tracer().(*fake.FakeTracer)
	calls := tracer.SpansNamed("boardroom.request")
	s.Require().Len(calls, 1)
	attempts, _ := calls[0].Attribute("retry.attempts")
	s.Equal(2, attempts)
	requestID, _ := calls[0].Attribute("boardroom.request_id")
	s.Equal("req-1", requestID)
	s.Len(calls[0].EventsNamed("retry_attempt"), 1)

	attemptSpans := tracer.SpansNamed("http.client.request")
	s.Require().Len(attemptSpans, 2)
	second, _ := attemptSpans[1].Attribute("retry.attempt")
	s.Equal(1, second)

	metrics := s.o11y.Metrics().(*fake.FakeMetrics)
	s.Equal(int64(1), metrics.GetCounter("boardroom.client.request.count").Total())
	s.Equal(int64(1), metrics.GetCounter("boardroom.client.retry.count").Total())
	s.Equal(int64(0), metrics.GetCounter("boardroom.client.request.errors").Total())
	s.Equal(int64(2), metrics.GetCounter("http.client.request.count").Total())
	s.Len(metrics.GetHistogram("http.client.request.duration").GetValues(), 2)

	logger := s.o11y.Logger().(*fake.FakeLogger)
	s.Len(logger.EntriesAt("debug"), 2)
	s.Len(logger.EntriesAt("warn"), 1)
	for _, entry := range logger.GetEntries() {
		for _, field := range entry.Fields {
			s.NotEqual("test-key", field.Value)
		}
	}
}

func (s *ExecutorSuite) TestExecute_FailureLogged() {
	srv := s.server(respond(http.StatusForbidden, `{"code":"FORBIDDEN","message":"nope"}`))
	exec := s.executor(srv.URL, 3)

	_, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: "/history"})
	s.requireClientError(err, http.StatusForbidden, "FORBIDDEN")

	logger := s.o11y.Logger().(*fake.FakeLogger)
	errs := logger.EntriesAt("error")
	s.Require().Len(errs, 1)
	code, _ := errs[0].Field("error.code")
	s.Equal("FORBIDDEN", code)

	metrics := s.o11y.Metrics().(*fake.FakeMetrics)
	values := metrics.GetCounter("boardroom.client.request.errors").GetValues()
	s.Require().Len(values, 1)
	s.Equal("FORBIDDEN", values[0].Fields[0].Value)
}

func (s *ExecutorSuite) TestDo_DecodesTypedResult() {
	srv := s.server(respond(http.StatusOK, `{"decision":"approve","confidence":0.9}`))
	exec := s.executor(srv.URL, 3)

	type decision struct {
		Decision   string  `json:"decision"`
		Confidence float64 `json:"confidence"`
	}
	out, err := Do[decision](s.ctx, exec, Descriptor{Method: http.MethodPost, Path: "/decision", Payload: json.RawMessage(`{"context":"x"}`)})

	s.Require().NoError(err)
	s.Equal("approve", out.Decision)
	s.Equal(0.9, out.Confidence)
}

func (s *ExecutorSuite) TestDo_DecodeFailureIsClientError() {
	srv := s.server(respond(http.StatusOK, `{"decision":42}`))
	exec := s.executor(srv.URL, 3)

	type decision struct {
		Decision string `json:"decision"`
	}
	_, err := Do[decision](s.ctx, exec, Descriptor{Method: http.MethodGet, Path: "/history"})

	ce := s.requireClientError(err, http.StatusInternalServerError, CodeNetError)
	var typeErr *json.UnmarshalTypeError
	s.ErrorAs(ce, &typeErr)
	s.Equal(int32(1), s.hits.Load())
}

func (s *ExecutorSuite) TestExecute_ConcurrentCallsKeepOwnState() {
	const calls = 16

	var mu sync.Mutex
	seen := make(map[string]int)
	byRequestID := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path]++
		n := seen[r.URL.Path]
		byRequestID[r.Header.Get(HeaderRequestID)]++
		mu.Unlock()

		var i int
		_, _ = fmt.Sscanf(r.URL.Path, "/call/%d", &i)
		switch {
		case i%3 == 0 && n <= 2:
			respond(http.StatusTooManyRequests, `{}`)(w, r)
		case i%3 == 1:
			respond(http.StatusNotFound, `{"code":"NOT_FOUND","message":"`+r.URL.Path+`"}`)(w, r)
		default:
			respond(http.StatusOK, `{"path":"`+r.URL.Path+`"}`)(w, r)
		}
	}))
	s.T().Cleanup(srv.Close)
	exec := s.executor(srv.URL, 3)

	type outcome struct {
		result Result
		err    error
	}
	outcomes := make([]outcome, calls)
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := exec.Execute(s.ctx, Descriptor{Method: http.MethodGet, Path: fmt.Sprintf("/call/%d", i)})
			outcomes[i] = outcome{result: res, err: err}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, out := range outcomes {
		path := fmt.Sprintf("/call/%d", i)
		if i%3 == 1 {
			ce := s.requireClientError(out.err, http.StatusNotFound, "NOT_FOUND")
			s.Equal(path, ce.Message)
			s.Equal(1, seen[path], path)
			continue
		}
		s.Require().NoError(out.err, path)
		s.JSONEq(`{"path":"`+path+`"}`, string(out.result))
		if i%3 == 0 {
			s.Equal(3, seen[path], path)
		} else {
			s.Equal(1, seen[path], path)
		}
	}

	s.Len(byRequestID, calls)
	s.Len(s.waits.recorded(), 2*((calls+2)/3))
}
