package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpstreamError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
		wantDetails string
	}{
		{
			name:        "flat body",
			status:      http.StatusTooManyRequests,
			body:        `{"code":"RATE_LIMITED","message":"slow down","details":{"retryAfter":2}}`,
			wantCode:    "RATE_LIMITED",
			wantMessage: "slow down",
			wantDetails: `{"retryAfter":2}`,
		},
		{
			name:        "nested under error",
			status:      http.StatusNotFound,
			body:        `{"error":{"code":"NOT_FOUND","message":"missing","details":["doc-1"]}}`,
			wantCode:    "NOT_FOUND",
			wantMessage: "missing",
			wantDetails: `["doc-1"]`,
		},
		{
			name:        "error as string",
			status:      http.StatusBadRequest,
			body:        `{"error":"bad role"}`,
			wantCode:    CodeUpstreamError,
			wantMessage: "bad role",
		},
		{
			name:        "detail string",
			status:      http.StatusUnauthorized,
			body:        `{"detail":"Invalid API key"}`,
			wantCode:    CodeUpstreamError,
			wantMessage: "Invalid API key",
		},
		{
			name:        "detail object kept as details",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","context"],"msg":"field required"}]}`,
			wantCode:    CodeUpstreamError,
			wantMessage: "Request failed with status 422",
			wantDetails: `[{"loc":["body","context"],"msg":"field required"}]`,
		},
		{
			name:        "not json",
			status:      http.StatusBadGateway,
			body:        `<html>bad gateway</html>`,
			wantCode:    CodeUpstreamError,
			wantMessage: "Request failed with status 502",
		},
		{
			name:        "empty body",
			status:      http.StatusServiceUnavailable,
			body:        ``,
			wantCode:    CodeUpstreamError,
			wantMessage: "Request failed with status 503",
		},
		{
			name:        "null details ignored",
			status:      http.StatusConflict,
			body:        `{"code":"CONFLICT","message":"exists","details":null}`,
			wantCode:    "CONFLICT",
			wantMessage: "exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := newUpstreamError(tt.status, []byte(tt.body))

			assert.Equal(t, tt.status, ce.Status)
			assert.Equal(t, tt.wantCode, ce.Code)
			assert.Equal(t, tt.wantMessage, ce.Message)
			if tt.wantDetails == "" {
				assert.Empty(t, ce.Details)
				return
			}
			assert.JSONEq(t, tt.wantDetails, string(ce.Details))
		})
	}
}

func TestClientError_Helpers(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("consult board: %w", newNetError(cause))

	ce, ok := AsClientError(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
	assert.Equal(t, cause.Error(), ce.Message)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsCode(wrapped, CodeNetError))
	assert.False(t, IsCode(wrapped, CodeTimeout))
	assert.False(t, IsCode(cause, CodeNetError))
	assert.Equal(t, "boardroom: dial tcp: connection refused (status=500 code=NET_ERROR)", ce.Error())

	_, ok = AsClientError(cause)
	assert.False(t, ok)
}

func TestErrAuthRequired_FreshValuePerCall(t *testing.T) {
	_, err1 := NewExecutor(Config{})
	_, err2 := NewExecutor(Config{})

	ce1, ok := AsClientError(err1)
	require.True(t, ok)
	ce2, ok := AsClientError(err2)
	require.True(t, ok)
	assert.NotSame(t, ce1, ce2)
	assert.NotSame(t, ErrAuthRequired, ce1)

	ce1.Message = "changed"
	assert.Equal(t, "API key is required", ErrAuthRequired.Message)
	assert.ErrorIs(t, err2, ErrAuthRequired)
	assert.NotErrorIs(t, err1, ErrAuthRequired)
}

func TestClientError_IsComparesCodeStatusMessage(t *testing.T) {
	invalid := newInvalidRequestError("API key is required", nil)
	assert.NotErrorIs(t, invalid, ErrAuthRequired)
	assert.ErrorIs(t, fmt.Errorf("build client: %w", NewAuthRequiredError()), ErrAuthRequired)
	assert.NotErrorIs(t, errors.New("API key is required"), ErrAuthRequired)
}
