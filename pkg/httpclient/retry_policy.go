package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeOverload
	outcomeTransport
	outcomeUpstream
	outcomeTimeout
	outcomeCanceled
	outcomeRejected
)

// attemptOutcome is the classified result of one attempt. failure is the
// error the call ends with if this outcome turns out to be terminal.
type attemptOutcome struct {
	kind    outcomeKind
	status  int
	result  Result
	reason  string
	failure *ClientError
}

// IsOverloadStatus reports whether status is an explicit overload signal.
// Only these statuses are retried.
func IsOverloadStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// classifyResponse classifies a response whose body has been fully read.
func classifyResponse(status int, body []byte) attemptOutcome {
	if status >= 200 && status <= 299 {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 {
			return attemptOutcome{kind: outcomeSuccess, status: status, result: Result("null")}
		}
		var raw json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			cause := fmt.Errorf("invalid JSON response: %w", err)
			return attemptOutcome{
				kind:    outcomeTransport,
				status:  status,
				reason:  "invalid_json",
				failure: newNetError(cause),
			}
		}
		return attemptOutcome{kind: outcomeSuccess, status: status, result: Result(raw)}
	}

	failure := newUpstreamError(status, body)
	if IsOverloadStatus(status) {
		return attemptOutcome{
			kind:    outcomeOverload,
			status:  status,
			reason:  fmt.Sprintf("status_%d", status),
			failure: failure,
		}
	}
	return attemptOutcome{kind: outcomeUpstream, status: status, failure: failure}
}

// classifyTransportError tells the attempt timeout apart from caller
// cancellation and from genuine transport failures. attemptCtx must be the
// context the attempt ran under, derived from callerCtx.
func classifyTransportError(callerCtx, attemptCtx context.Context, timeout time.Duration, err error) attemptOutcome {
	if errors.Is(context.Cause(attemptCtx), errAttemptTimeout) {
		return attemptOutcome{kind: outcomeTimeout, failure: newTimeoutError(timeout, err)}
	}
	if callerCtx.Err() != nil {
		return attemptOutcome{kind: outcomeCanceled, failure: newCanceledError(context.Cause(callerCtx))}
	}
	if errors.Is(err, ErrResponseTooLarge) {
		return attemptOutcome{kind: outcomeRejected, failure: newNetError(err)}
	}
	return attemptOutcome{
		kind:    outcomeTransport,
		reason:  transportReason(err),
		failure: newNetError(err),
	}
}

func transportReason(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network_error"
	}
	return "transport_error"
}
