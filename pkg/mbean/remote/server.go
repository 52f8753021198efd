package remote

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// ServerConfig holds configuration for the management server
type ServerConfig struct {
	// Port is the port to listen on (default: $PORT or 8080)
	Port string

	// Host is the host to bind to (default: "")
	Host string

	// Prefix is the path the endpoints are mounted under (default: /mbean)
	Prefix string

	// ShutdownTimeout is the timeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns a server configuration with sensible defaults
func DefaultServerConfig() *ServerConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &ServerConfig{
		Port:            port,
		Host:            "",
		Prefix:          "/mbean",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Server runs the management endpoints on a WebServer
type Server struct {
	web    WebServer
	config *ServerConfig
	logger *zap.Logger
}

// NewServer mounts handler on web and returns a server ready to start
func NewServer(config *ServerConfig, handler *Handler, web WebServer) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	Mount(web, config.Prefix, handler)
	return &Server{
		web:    web,
		config: config,
		logger: handler.logger,
	}
}

// WebServer returns the underlying adapter
func (s *Server) WebServer() WebServer {
	return s.web
}

// Start serves until ctx is done, then shuts down gracefully. A listen
// failure is returned right away.
func (s *Server) Start(ctx context.Context) error {
	addr := s.config.Addr()
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting management server",
			zap.String("addr", addr),
			zap.String("adapter", s.web.Name()),
			zap.String("prefix", s.config.Prefix))
		if err := s.web.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("management server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down management server")
	return s.Shutdown()
}

// Shutdown stops the server within the configured timeout
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.web.Stop(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("management server shutdown complete")
	return nil
}
