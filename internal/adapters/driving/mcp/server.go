package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-chat/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// DefaultShutdownTimeout bounds how long in-flight HTTP requests may run
// after the serving context is cancelled.
const DefaultShutdownTimeout = 5 * time.Second

// Server exposes the ask, sync and status tools to MCP clients.
type Server struct {
	ports           *Ports
	server          *mcp.Server
	name            string
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithName overrides the implementation name reported to clients.
func WithName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
	}
}

// WithShutdownTimeout sets the HTTP graceful shutdown bound.
// Non-positive values keep the default.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// NewServer validates ports and registers the tools and resources.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports:           ports,
		name:            "sercha-chat",
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{Name: s.name, Version: Version}, nil)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves a single client over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server %s %s on stdio", s.name, Version)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler. Every session shares the
// same server and therefore the same ports.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP listens on addr and serves until ctx is cancelled. A bad address
// is reported before anything is served.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts HTTP connections on ln until ctx is cancelled, then drains
// in-flight requests for at most the shutdown timeout. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("MCP server listening on %s", ln.Addr())

	shutdownErr := make(chan error, 1)
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		shutdownErr <- httpServer.Shutdown(shutdownCtx)
	})
	defer stop()

	err := httpServer.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		logger.Warn("MCP server shutdown: %v", err)
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Debug("MCP server on %s stopped", ln.Addr())
	return nil
}
