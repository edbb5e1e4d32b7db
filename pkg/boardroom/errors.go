package boardroom

import (
	"fmt"
	"net/http"

	"github.com/JailtonJunior94/boardroom-go/pkg/httpclient"
)

type ClientError = httpclient.ClientError

const (
	CodeAuthRequired   = httpclient.CodeAuthRequired
	CodeTimeout        = httpclient.CodeTimeout
	CodeNetError       = httpclient.CodeNetError
	CodeUpstreamError  = httpclient.CodeUpstreamError
	CodeCanceled       = httpclient.CodeCanceled
	CodeInvalidRequest = httpclient.CodeInvalidRequest
)

// ErrAuthRequired is a comparison target for errors.Is.
var ErrAuthRequired = httpclient.ErrAuthRequired

// NewAuthRequiredError returns a fresh AUTH_REQUIRED error.
func NewAuthRequiredError() *ClientError {
	return httpclient.NewAuthRequiredError()
}

func AsClientError(err error) (*ClientError, bool) {
	return httpclient.AsClientError(err)
}

func IsCode(err error, code string) bool {
	return httpclient.IsCode(err, code)
}

func invalidArgument(message string, cause error) error {
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
