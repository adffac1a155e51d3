// Package response builds the status line, headers and body sent back for
// each request.
package response

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Response is built fresh for every request and discarded once written.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK carries the file bytes untouched.
func OK(contentType string, body []byte) Response {
	return Response{Status: http.StatusOK, ContentType: contentType, Body: body}
}

// NotFound is also used for paths that escape the root, so nothing about
// the filesystem is disclosed.
func NotFound() Response {
	return plain(http.StatusNotFound)
}

// InternalError hides the underlying cause from the client.
func InternalError() Response {
	return plain(http.StatusInternalServerError)
}

// MethodNotAllowed has no Content-Type and an empty body.
func MethodNotAllowed() Response {
	return Response{Status: http.StatusMethodNotAllowed}
}

func plain(status int) Response {
	return Response{
		Status:      status,
		ContentType: "text/plain",
		Body:        []byte(http.StatusText(status)),
	}
}

// StatusLine is the first line of r, without the line terminator.
func (r Response) StatusLine() string {
	return fmt.Sprintf("HTTP/1.1 %d %s", r.Status, http.StatusText(r.Status))
}

// Header renders the status line and headers, including the blank line that
// ends them.
func (r Response) Header() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s\r\n", r.StatusLine())
	if r.ContentType != "" {
		fmt.Fprintf(&b, "Content-Type: %s\r\n", r.ContentType)
	}
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	b.WriteString("\r\n") // End of headers
	return b.Bytes()
}

// Write sends the header block and then the body as a second write. A short
// write comes back as an error and is not retried.
func Write(w io.Writer, r Response) (int64, error) {
	n, err := w.Write(r.Header())
	total := int64(n)
	if err != nil {
		return total, fmt.Errorf("writing header: %w", err)
	}
	if len(r.Body) == 0 {
		return total, nil
	}

	n, err = w.Write(r.Body)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("writing body: %w", err)
	}
	return total, nil
}
