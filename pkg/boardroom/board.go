package boardroom

import (
	"context"
	"net/http"

	"github.com/JailtonJunior94/boardroom-go/pkg/httpclient"
)

// Board asks the whole board for a decision.
type Board struct {
	exec *httpclient.Executor
}

type decisionRequest struct {
	Context any `json:"context"`
}

// Consult posts input to /decision. input is any JSON-serializable value,
// usually a string.
func (b *Board) Consult(ctx context.Context, input any) (Result, error) {
	return b.exec.Execute(ctx, httpclient.Descriptor{
		Method:  http.MethodPost,
		Path:    "/decision",
		Payload: decisionRequest{Context: input},
	})
}

// History returns past board decisions.
func (b *Board) History(ctx context.Context) (Result, error) {
	return b.exec.Execute(ctx, httpclient.Descriptor{
		Method: http.MethodGet,
		Path:   "/history",
	})
}
