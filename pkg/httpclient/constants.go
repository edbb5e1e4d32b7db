package httpclient

import (
	"errors"
	"strings"
	"time"
)

const (
	// DefaultBaseEndpoint is used when no base endpoint is configured.
	DefaultBaseEndpoint = "http://localhost:8000/api/v1"

	// DefaultTimeout bounds a single attempt, not the whole call.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	// DefaultMaxResponseSize caps how much of a response body is read.
	DefaultMaxResponseSize int64 = 10 * 1024 * 1024 // 10MB

	// DefaultMaxDrainSize is the maximum amount drained from a discarded
	// response body before closing it, so the connection can be reused.
	DefaultMaxDrainSize = 1 * 1024 * 1024 // 1MB

	// OverloadBackoffUnit is multiplied by 2^attempt for 429/503 retries.
	OverloadBackoffUnit = time.Second
	// MaxOverloadBackoff caps the exponential wait so large retry budgets
	// never overflow into zero or negative delays.
	MaxOverloadBackoff = time.Hour

	// TransportRetryDelay is the flat wait before retrying a transport failure.
	TransportRetryDelay = time.Second
)

// Header names sent on every attempt.
const (
	HeaderAPIKey      = "X-API-Key"
	HeaderSDKVersion  = "X-SDK-Version"
	HeaderClientType  = "X-Client-Type"
	HeaderRequestID   = "X-Request-Id"
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	HeaderUserAgent   = "User-Agent"

	contentTypeJSON = "application/json"
)

// ClientType is reported in the X-Client-Type header.
type ClientType string

const (
	ClientTypeServer  ClientType = "Server"
	ClientTypeBrowser ClientType = "Browser"
)

// ParseClientType accepts "browser" or "server" in any case.
// Anything else resolves to ClientTypeServer.
func ParseClientType(value string) ClientType {
	if strings.EqualFold(strings.TrimSpace(value), string(ClientTypeBrowser)) {
		return ClientTypeBrowser
	}
	return ClientTypeServer
}

// ErrResponseTooLarge is returned when a response body exceeds the configured limit.
var ErrResponseTooLarge = errors.New("response body exceeds maximum allowed size")

// errAttemptTimeout is the cancellation cause of an attempt whose timer fired.
var errAttemptTimeout = errors.New("attempt timed out")
