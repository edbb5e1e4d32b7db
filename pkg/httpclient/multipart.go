package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// MultipartBody is an encoded multipart/form-data payload. Its content type
// carries the boundary, so it is the only content type ever sent with it.
type MultipartBody struct {
	data        []byte
	contentType string
}

func (m *MultipartBody) ContentType() string {
	return m.contentType
}

func (m *MultipartBody) Len() int {
	return len(m.data)
}

// MultipartBuilder assembles a MultipartBody. The first error is kept and
// returned by Build, so calls can be chained.
//
//	body, err := httpclient.NewMultipartBuilder().
//	    AddFile("file", "notes.pdf", "application/pdf", f).
//	    AddField("title", "Q3 notes").
//	    Build()
type MultipartBuilder struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	parts  int
	err    error
}

var ErrEmptyMultipart = errors.New("multipart body has no parts")

func NewMultipartBuilder() *MultipartBuilder {
	b := &MultipartBuilder{}
	b.writer = multipart.NewWriter(&b.buf)
	return b
}

func (b *MultipartBuilder) AddField(name, value string) *MultipartBuilder {
	if b.err != nil {
		return b
	}
	if err := b.writer.WriteField(name, value); err != nil {
		b.err = fmt.Errorf("failed to write field %q: %w", name, err)
	}
	b.parts++
	return b
}

// AddFile writes a file part. An empty contentType means application/octet-stream.
func (b *MultipartBuilder) AddFile(field, filename, contentType string, content io.Reader) *MultipartBuilder {
	if b.err != nil {
		return b
	}
	if content == nil {
		b.err = fmt.Errorf("file %q has no content", field)
		return b
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(field), escapeQuotes(filename)))
	header.Set("Content-Type", contentType)

	part, err := b.writer.CreatePart(header)
	if err != nil {
		b.err = fmt.Errorf("failed to create part %q: %w", field, err)
		return b
	}
	if _, err := io.Copy(part, content); err != nil {
		b.err = fmt.Errorf("failed to copy file %q: %w", filename, err)
		return b
	}
	b.parts++
	return b
}

func (b *MultipartBuilder) Build() (*MultipartBody, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.parts == 0 {
		return nil, ErrEmptyMultipart
	}
	if err := b.writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &MultipartBody{
		data:        bytes.Clone(b.buf.Bytes()),
		contentType: b.writer.FormDataContentType(),
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
