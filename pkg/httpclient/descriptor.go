package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Descriptor describes one logical call. Facades build it and the executor
// consumes it once.
type Descriptor struct {
	Method string
	// Path is relative to the base endpoint and must start with "/".
	Path string
	// Payload is nil, a JSON-serializable value, or a *MultipartBody when
	// BinaryUpload is set.
	Payload      any
	BinaryUpload bool
}

var (
	ErrEmptyPath           = errors.New("path must not be empty")
	ErrRelativePath        = errors.New("path must start with /")
	ErrUnsupportedMethod   = errors.New("unsupported HTTP method")
	ErrMultipartRequired   = errors.New("binary upload requires a *MultipartBody payload")
	ErrUnexpectedMultipart = errors.New("multipart payload requires BinaryUpload")
)

// The service exposes no PUT or PATCH endpoints.
var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodDelete: {},
}

func (d Descriptor) validate() error {
	if _, ok := allowedMethods[d.Method]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, d.Method)
	}
	if d.Path == "" {
		return ErrEmptyPath
	}
	if !strings.HasPrefix(d.Path, "/") {
		return fmt.Errorf("%w: %q", ErrRelativePath, d.Path)
	}
	return nil
}

// encodedBody holds request bytes built once and replayed on every attempt.
type encodedBody struct {
	data        []byte
	contentType string
}

func (d Descriptor) encode() (encodedBody, error) {
	if d.BinaryUpload {
		mp, ok := d.Payload.(*MultipartBody)
		if !ok || mp == nil {
			return encodedBody{}, ErrMultipartRequired
		}
		return encodedBody{data: mp.data, contentType: mp.contentType}, nil
	}

	switch p := d.Payload.(type) {
	case nil:
		return encodedBody{}, nil
	case *MultipartBody:
		return encodedBody{}, ErrUnexpectedMultipart
	case json.RawMessage:
		if !json.Valid(p) {
			return encodedBody{}, errors.New("payload is not valid JSON")
		}
		return encodedBody{data: p, contentType: contentTypeJSON}, nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return encodedBody{}, fmt.Errorf("failed to encode payload: %w", err)
		}
		return encodedBody{data: data, contentType: contentTypeJSON}, nil
	}
}
