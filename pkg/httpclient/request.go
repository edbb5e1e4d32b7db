package httpclient

import (
	"context"
)

// Do executes d and decodes the successful body into T. Decode failures are
// *ClientError values with code NET_ERROR.
//
//	decision, err := httpclient.Do[Decision](ctx, exec, httpclient.Descriptor{
//	    Method: http.MethodGet,
//	    Path:   "/history",
//	})
func Do[T any](ctx context.Context, e *Executor, d Descriptor) (T, error) {
	var out T
	result, err := e.Execute(ctx, d)
	if err != nil {
		return out, err
	}
	if err := result.Decode(&out); err != nil {
		return out, NewDecodeError(err)
	}
	return out, nil
}
