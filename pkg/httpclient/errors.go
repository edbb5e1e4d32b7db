package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes carried by ClientError. Upstream failures keep the code the
// service returned and only fall back to CodeUpstreamError.
const (
	CodeAuthRequired   = "AUTH_REQUIRED"
	CodeTimeout        = "TIMEOUT"
	CodeNetError       = "NET_ERROR"
	CodeUpstreamError  = "UPSTREAM_ERROR"
	CodeCanceled       = "CANCELED"
	CodeInvalidRequest = "INVALID_REQUEST"
)

// StatusClientClosedRequest is reported when the caller's context ends the call.
const StatusClientClosedRequest = 499

// ClientError is the single error type returned by the executor.
//
// Status is always set: upstream failures carry the HTTP status of the last
// response, local failures use 400 (invalid input), 408 (timeout),
// 499 (cancellation) or 500 (transport).
type ClientError struct {
	Message string
	Status  int
	Code    string
	Details json.RawMessage
	Err     error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("boardroom: %s (status=%d code=%s)", e.Message, e.Status, e.Code)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is matches a target ClientError with the same code, status and message,
// so sentinels such as ErrAuthRequired work with errors.Is even though every
// call returns its own value.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Status == e.Status && t.Message == e.Message
}

// AsClientError extracts a *ClientError from err's chain.
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsCode reports whether err carries a ClientError with the given code.
func IsCode(err error, code string) bool {
	ce, ok := AsClientError(err)
	return ok && ce.Code == code
}

// ErrAuthRequired matches, through errors.Is, the error returned when a
// client is built without a credential. It is only a comparison target:
// constructors return fresh copies.
var ErrAuthRequired = NewAuthRequiredError()

func NewAuthRequiredError() *ClientError {
	return &ClientError{
		Message: "API key is required",
		Status:  http.StatusBadRequest,
		Code:    CodeAuthRequired,
	}
}

func newInvalidRequestError(message string, cause error) *ClientError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &ClientError{
		Message: message,
		Status:  http.StatusBadRequest,
		Code:    CodeInvalidRequest,
		Err:     cause,
	}
}

func newTimeoutError(timeout time.Duration, cause error) *ClientError {
	return &ClientError{
		Message: fmt.Sprintf("Request timed out after %dms", timeout.Milliseconds()),
		Status:  http.StatusRequestTimeout,
		Code:    CodeTimeout,
		Err:     cause,
	}
}

func newCanceledError(cause error) *ClientError {
	return &ClientError{
		Message: fmt.Sprintf("Request canceled: %v", cause),
		Status:  StatusClientClosedRequest,
		Code:    CodeCanceled,
		Err:     cause,
	}
}

func newNetError(cause error) *ClientError {
	return &ClientError{
		Message: cause.Error(),
		Status:  http.StatusInternalServerError,
		Code:    CodeNetError,
		Err:     cause,
	}
}

// NewDecodeError reports a 2xx body that does not fit the caller's type.
// Like invalid JSON it is a NET_ERROR, but it is never retried.
func NewDecodeError(cause error) *ClientError {
	return &ClientError{
		Message: fmt.Sprintf("failed to decode response: %v", cause),
		Status:  http.StatusInternalServerError,
		Code:    CodeNetError,
		Err:     cause,
	}
}

type upstreamErrorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
	Detail  json.RawMessage `json:"detail"`
}

// newUpstreamError builds the error for a non-2xx response. The body may be
// {"code","message","details"}, the same object nested under "error", a
// {"detail": ...} body, or anything else, in which case only the status is kept.
func newUpstreamError(status int, body []byte) *ClientError {
	ce := &ClientError{
		Message: fmt.Sprintf("Request failed with status %d", status),
		Status:  status,
		Code:    CodeUpstreamError,
	}

	fields, ok := decodeUpstreamError(body)
	if !ok {
		return ce
	}

	if fields.Code != "" {
		ce.Code = fields.Code
	}
	if fields.Message != "" {
		ce.Message = fields.Message
	}
	if isPresent(fields.Details) {
		ce.Details = fields.Details
	}
	return ce
}

func decodeUpstreamError(body []byte) (upstreamErrorBody, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return upstreamErrorBody{}, false
	}

	var fields upstreamErrorBody
	if isPresent(envelope.Error) {
		if err := json.Unmarshal(envelope.Error, &fields); err != nil {
			var message string
			if json.Unmarshal(envelope.Error, &message) != nil {
				return upstreamErrorBody{}, false
			}
			fields.Message = message
		}
	} else if err := json.Unmarshal(body, &fields); err != nil {
		return upstreamErrorBody{}, false
	}

	if isPresent(fields.Detail) {
		var message string
		if json.Unmarshal(fields.Detail, &message) == nil {
			if fields.Message == "" {
				fields.Message = message
			}
		} else if !isPresent(fields.Details) {
			fields.Details = fields.Detail
		}
	}
	return fields, true
}

func isPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
