package boardroom

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/JailtonJunior94/boardroom-go/pkg/httpclient"
)

// Knowledge manages documents the board can draw on.
type Knowledge struct {
	exec *httpclient.Executor
}

// File is an upload source.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// OpenFile opens path for upload. The content type is guessed from the
// extension. Callers must Close the returned closer.
func OpenFile(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Content:     f,
	}, f, nil
}

// Upload sends file as multipart form data under "file", plus "title" when
// title is not empty. The file is read fully before the first attempt so it
// can be replayed on retries.
func (k *Knowledge) Upload(ctx context.Context, file File, title string) (Result, error) {
	if file.Content == nil {
		return nil, invalidArgument("file content is required", nil)
	}
	name := file.Name
	if name == "" {
		name = "upload"
	}

	builder := httpclient.NewMultipartBuilder().AddFile("file", name, file.ContentType, file.Content)
	if title != "" {
		builder.AddField("title", title)
	}
	body, err := builder.Build()
	if err != nil {
		return nil, invalidArgument("failed to build upload", err)
	}

	return k.exec.Execute(ctx, httpclient.Descriptor{
		Method:       http.MethodPost,
		Path:         "/knowledge/upload",
		Payload:      body,
		BinaryUpload: true,
	})
}

func (k *Knowledge) List(ctx context.Context) (Result, error) {
	return k.exec.Execute(ctx, httpclient.Descriptor{
		Method: http.MethodGet,
		Path:   "/knowledge",
	})
}

func (k *Knowledge) Delete(ctx context.Context, docID string) (Result, error) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, invalidArgument("document id is required", nil)
	}
	return k.exec.Execute(ctx, httpclient.Descriptor{
		Method: http.MethodDelete,
		Path:   "/knowledge/" + url.PathEscape(docID),
	})
}
