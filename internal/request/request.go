// Package request reads a request head off a connection and extracts the
// method and target path from its first line.
package request

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

const (
	// IndexPath replaces an empty or "/" target.
	IndexPath = "/index.html"
	// DefaultLimit is used by ReadHead when no positive limit is given.
	DefaultLimit = 8192

	chunkSize = 1024
)

// ErrEmptyRequest means the peer sent nothing before closing or timing out.
var ErrEmptyRequest = errors.New("empty request")

var (
	crlfcrlf = []byte("\r\n\r\n")
	lflf     = []byte("\n\n")
)

// Request is the part of a request line the server acts on.
type Request struct {
	Method string
	// Path has its query removed and is never percent-decoded.
	Path    string
	Version string
}

// Parse looks only at the first line of raw. Missing tokens are left empty,
// except Path which falls back to IndexPath.
func Parse(raw []byte) Request {
	line := raw
	if i := bytes.IndexAny(raw, "\r\n"); i >= 0 {
		line = raw[:i]
	}

	var req Request
	fields := strings.Fields(string(line))
	if len(fields) > 0 {
		req.Method = fields[0]
	}
	if len(fields) > 1 {
		req.Path = fields[1]
	}
	if len(fields) > 2 {
		req.Version = fields[2]
	}

	if i := strings.IndexByte(req.Path, '?'); i >= 0 {
		req.Path = req.Path[:i]
	}
	if req.Path == "" || req.Path == "/" {
		req.Path = IndexPath
	}
	return req
}

// ReadHead reads from r until the blank line ending the head, EOF, or limit
// bytes, whichever comes first. A head longer than limit is cut short without
// error. Nothing read at all is ErrEmptyRequest. When a read fails after some
// bytes arrived, those bytes are returned together with the error.
func ReadHead(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	buf := make([]byte, 0, min(limit, chunkSize))
	chunk := make([]byte, min(limit, chunkSize))

	for len(buf) < limit {
		n, err := r.Read(chunk[:min(len(chunk), limit-len(buf))])
		if n > 0 {
			// Rescan the tail of the previous chunk so a split terminator is seen.
			from := max(len(buf)-len(crlfcrlf)+1, 0)
			buf = append(buf, chunk[:n]...)
			if terminated(buf[from:]) {
				return buf, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) == 0 {
					return nil, ErrEmptyRequest
				}
				return buf, nil
			}
			return buf, err
		}
	}
	return buf, nil
}

func terminated(b []byte) bool {
	return bytes.Contains(b, crlfcrlf) || bytes.Contains(b, lflf)
}
