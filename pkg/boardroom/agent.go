package boardroom

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/JailtonJunior94/boardroom-go/pkg/httpclient"
)

// Agent talks to a single board member, e.g. "cfo" or "legal".
type Agent struct {
	exec *httpclient.Executor
	role string
}

func newAgent(exec *httpclient.Executor, role string) *Agent {
	return &Agent{
		exec: exec,
		role: strings.ToLower(strings.TrimSpace(role)),
	}
}

func (a *Agent) Role() string {
	return a.role
}

type agentOptions struct {
	threadID string
}

type AgentOption func(*agentOptions)

// WithThreadID continues an existing conversation. Empty ids are omitted.
func WithThreadID(threadID string) AgentOption {
	return func(o *agentOptions) { o.threadID = threadID }
}

type agentConsultRequest struct {
	Context  string `json:"context"`
	ThreadID string `json:"threadId,omitempty"`
}

type agentExecuteRequest struct {
	Task     string `json:"task"`
	ThreadID string `json:"threadId,omitempty"`
}

func (a *Agent) Consult(ctx context.Context, prompt string, opts ...AgentOption) (Result, error) {
	o := resolveAgentOptions(opts)
	return a.call(ctx, "consult", agentConsultRequest{Context: prompt, ThreadID: o.threadID})
}

func (a *Agent) Execute(ctx context.Context, task string, opts ...AgentOption) (Result, error) {
	o := resolveAgentOptions(opts)
	return a.call(ctx, "execute", agentExecuteRequest{Task: task, ThreadID: o.threadID})
}

func (a *Agent) call(ctx context.Context, action string, payload any) (Result, error) {
	if a.role == "" {
		return nil, invalidArgument("agent role is required", nil)
	}
	return a.exec.Execute(ctx, httpclient.Descriptor{
		Method:  http.MethodPost,
		Path:    "/agent/" + url.PathEscape(a.role) + "/" + action,
		Payload: payload,
	})
}

func resolveAgentOptions(opts []AgentOption) agentOptions {
	var o agentOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
