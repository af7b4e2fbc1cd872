// Package transport implements the ways an MCP client can reach the server:
// a stdio pipe transport, a session-ful streamable HTTP transport, and a
// session-ful SSE transport, all coordinated by the Orchestrator. The two
// HTTP transports share a single listener fronted by the auth gate.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/auth"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
)

// DefaultReadHeaderTimeout bounds header reads to prevent Slowloris attacks.
const DefaultReadHeaderTimeout = 10 * time.Second

// Server is the single shared HTTP listener for all session-ful transports.
// The auth gate is installed on the router before any transport registers its
// routes, so no route is ever reachable unauthenticated. The socket is bound
// only by Start, after every transport has connected, so the routing table is
// fully populated before external traffic can reach it.
type Server struct {
	host   string
	port   int
	router chi.Router

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates the shared listener. The gate middleware is installed
// here, ahead of route registration; health and metrics handlers are mounted
// immediately (they are exempt from the key check, not from the host check).
func NewServer(host string, port int, gate *auth.Gate, health, metrics http.Handler) *Server {
	r := chi.NewRouter()
	r.Use(gate.Middleware())

	if health != nil {
		r.Method(http.MethodGet, "/health", health)
	}
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	return &Server{host: host, port: port, router: r}
}

// Router returns the router transports register their routes on.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start binds the socket and begins accepting connections.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return fmt.Errorf("listener already started on %s", s.listener.Addr())
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	s.listener = ln

	s.httpServer = &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           s.router,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	go func() {
		logger.Infof("HTTP listener started on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the listener down, refusing new inbound connections and draining
// in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
