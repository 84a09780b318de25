// Package httpserver runs the stub backend's HTTP listener.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long Shutdown waits for in-flight requests.
var ShutdownTimeout = 10 * time.Second

// Server wraps http.Server. Uploads arrive as base64 data URIs in one form
// post, so reads are allowed well beyond the header timeout.
type Server struct {
	inner    *http.Server
	listener net.Listener
}

// New returns a server for handler on port. Port 0 picks a free port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       2 * time.Minute,
			WriteTimeout:      30 * time.Second,
		},
	}
}

// Listen binds the port and returns the bound address. Start calls it when
// it has not run yet.
func (s *Server) Listen() (net.Addr, error) {
	if s.listener != nil {
		return s.listener.Addr(), nil
	}
	ln, err := net.Listen("tcp", s.inner.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.inner.Addr, err)
	}
	s.listener = ln
	return ln.Addr(), nil
}

// Start serves until Shutdown. It returns http.ErrServerClosed after a
// graceful shutdown.
func (s *Server) Start() error {
	if _, err := s.Listen(); err != nil {
		return err
	}
	return s.inner.Serve(s.listener)
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
