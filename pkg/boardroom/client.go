// Package boardroom is the Go client for the boardroom decision and
// knowledge service.
//
//	client, err := boardroom.New(os.Getenv("BOARDROOM_API_KEY"))
//	if err != nil {
//	    return err
//	}
//	res, err := client.Board().Consult(ctx, "Should we expand to Lisbon?")
//
// Every call goes through a single executor that authenticates, encodes the
// payload, bounds each attempt with a timeout and retries 429/503 responses
// and transport failures. Failures are always *ClientError.
package boardroom

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/JailtonJunior94/boardroom-go/pkg/httpclient"
	"github.com/JailtonJunior94/boardroom-go/pkg/observability"
)

// Result is the raw JSON body of a successful call.
type Result = httpclient.Result

// Client is safe for concurrent use.
type Client struct {
	exec      *httpclient.Executor
	board     *Board
	knowledge *Knowledge
}

type settings struct {
	cfg      Config
	execOpts []httpclient.Option
}

type Option func(*settings)

func WithBaseEndpoint(endpoint string) Option {
	return func(s *settings) { s.cfg.BaseEndpoint = endpoint }
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) { s.cfg.Timeout = timeout }
}

// WithMaxRetries sets the retry budget. 0 disables retries.
func WithMaxRetries(maxRetries int) Option {
	return func(s *settings) { s.cfg.MaxRetries = maxRetries }
}

func WithExecutionContext(ec ExecutionContext) Option {
	return func(s *settings) { s.cfg.ExecutionContext = ec }
}

func WithUserAgent(userAgent string) Option {
	return func(s *settings) { s.cfg.UserAgent = userAgent }
}

func WithObservability(o11y observability.Observability) Option {
	return func(s *settings) {
		s.execOpts = append(s.execOpts, httpclient.WithObservability(o11y))
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.execOpts = append(s.execOpts, httpclient.WithHTTPClient(client))
	}
}

func WithBaseTransport(transport http.RoundTripper) Option {
	return func(s *settings) {
		s.execOpts = append(s.execOpts, httpclient.WithBaseTransport(transport))
	}
}

// WithWaitFunc replaces how retry backoff waits are performed.
func WithWaitFunc(wait httpclient.WaitFunc) Option {
	return func(s *settings) {
		s.execOpts = append(s.execOpts, httpclient.WithWaitFunc(wait))
	}
}

// New creates a client with the default configuration and the given API key.
// An empty key fails with AUTH_REQUIRED before any I/O.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	return NewFromConfig(cfg, opts...)
}

func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	s := &settings{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}

	exec, err := httpclient.NewExecutor(s.cfg.executorConfig(), s.execOpts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		exec:      exec,
		board:     &Board{exec: exec},
		knowledge: &Knowledge{exec: exec},
	}, nil
}

func (c *Client) Board() *Board {
	return c.board
}

func (c *Client) Knowledge() *Knowledge {
	return c.knowledge
}

// Agent returns the facade for one agent role. The role is trimmed and
// lower-cased once, here.
func (c *Client) Agent(role string) *Agent {
	return newAgent(c.exec, role)
}

// Executor exposes the underlying executor for calls not covered by a facade.
func (c *Client) Executor() *httpclient.Executor {
	return c.exec
}

// BaseEndpoint returns the normalized base endpoint.
func (c *Client) BaseEndpoint() string {
	return c.exec.Config().BaseEndpoint
}

// Decode unmarshals a Result into T. A mismatch is a NET_ERROR ClientError.
func Decode[T any](res Result) (T, error) {
	var out T
	if err := json.Unmarshal(res, &out); err != nil {
		return out, httpclient.NewDecodeError(err)
	}
	return out, nil
}
