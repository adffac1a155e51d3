package server

import (
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/LulzSec6824/StaticServer/internal/fileaccess"
	"github.com/LulzSec6824/StaticServer/internal/request"
	"github.com/LulzSec6824/StaticServer/internal/response"
)

// After answering, leftover request bytes are read and thrown away for at most
// lingerTimeout, up to lingerBytes, so closing does not reset the connection
// before the client has read the response.
const (
	lingerTimeout = 250 * time.Millisecond
	lingerBytes   = 1 << 20
)

// --- Connection Handling ---

// handleConnection reads one request, answers it, and always closes conn.
func (s *Server) handleConnection(conn net.Conn) {
	key := uuid.NewString()
	id := key[:8] // short form for log lines
	start := time.Now()

	s.active.Store(key, conn)
	defer s.active.Delete(key)
	defer conn.Close()

	s.logger.Printf("[%s] Connection from %s", id, conn.RemoteAddr())

	if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		s.logger.Printf("[%s] Error setting read deadline: %v", id, err)
		return
	}
	head, err := request.ReadHead(conn, s.cfg.MaxHeaderBytes)
	if len(head) == 0 {
		// Nothing to answer; the client gets the connection closed.
		s.logger.Printf("[%s] Dropping connection: %v", id, err)
		return
	}
	if err != nil {
		s.logger.Printf("[%s] Incomplete request, answering what was read: %v", id, err)
	}

	req := request.Parse(head)
	resp := s.respond(id, req)

	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		s.logger.Printf("[%s] Error setting write deadline: %v", id, err)
		return
	}
	n, err := response.Write(conn, resp)
	if err != nil {
		s.logger.Printf("[%s] Error sending response: %v", id, err)
	} else {
		s.linger(id, conn)
	}

	s.logger.Printf("[%s] %s %s %s -> %d (%d bytes, %v)",
		id, req.Method, req.Path, req.Version, resp.Status, n, time.Since(start))
}

// linger half-closes conn and drains whatever the client still sends.
func (s *Server) linger(id string, conn net.Conn) {
	hc, ok := conn.(interface{ CloseWrite() error })
	if !ok {
		return
	}
	if err := hc.CloseWrite(); err != nil {
		s.logger.Printf("[%s] Error closing write side: %v", id, err)
		return
	}
	if err := conn.SetReadDeadline(time.Now().Add(lingerTimeout)); err != nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(conn, lingerBytes))
}

// respond maps a parsed request to its response.
func (s *Server) respond(id string, req request.Request) response.Response {
	if req.Method != http.MethodGet {
		return response.MethodNotAllowed()
	}

	path, err := fileaccess.Resolve(s.root, req.Path)
	if err != nil {
		if errors.Is(err, fileaccess.ErrOutsideRoot) {
			s.logger.Printf("[%s] Rejected path outside root: %s", id, req.Path)
			return response.NotFound()
		}
		s.logger.Printf("[%s] Error resolving %s: %v", id, req.Path, err)
		return response.InternalError()
	}

	if !fileaccess.Exists(path) {
		return response.NotFound()
	}

	body, err := fileaccess.ReadAll(path)
	if err != nil {
		s.logger.Printf("[%s] Error reading file %s: %v", id, path, err)
		return response.InternalError()
	}

	return response.OK(s.mime.ContentType(req.Path), body)
}
