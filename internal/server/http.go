package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"fitbridge/internal/bridge"
	"fitbridge/internal/session"
	"fitbridge/pkg/logging"
)

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default timeout for writing responses.
	DefaultWriteTimeout = 120 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second

	subsystem = "Server"
)

// HTTPServer serves the bridge endpoints.
type HTTPServer struct {
	addr       string
	handler    *bridge.Handler
	sessions   *session.Middleware
	httpServer *http.Server
}

// NewHTTPServer creates a server that will listen on addr.
func NewHTTPServer(addr string, handler *bridge.Handler, sessions *session.Middleware) *HTTPServer {
	s := &HTTPServer{
		addr:     addr,
		handler:  handler,
		sessions: sessions,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.CreateMux(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s
}

// CreateMux creates the HTTP mux. The bridge endpoints run behind the
// session middleware; /health does not touch the session.
func (s *HTTPServer) CreateMux() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancers (no session)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /{$}", s.sessions.Wrap(http.HandlerFunc(s.handler.HandleLog)))
	mux.Handle("GET "+bridge.CallbackPath, s.sessions.Wrap(http.HandlerFunc(s.handler.HandleCallback)))
	mux.Handle("GET "+bridge.LogoutPath, s.sessions.Wrap(http.HandlerFunc(s.handler.HandleLogout)))

	return requestID(accessLog(recoverPanic(mux)))
}

// Listen binds the configured address.
func (s *HTTPServer) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called.
func (s *HTTPServer) Serve(ln net.Listener) error {
	logging.Info(subsystem, "Listening on %s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
