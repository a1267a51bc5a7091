// Package server wires the HTTP API and manages its lifecycle.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	serverconfig "github.com/demonshower/BFTBrain/internal/config/modules/server"
	"github.com/demonshower/BFTBrain/internal/domain"
	"github.com/demonshower/BFTBrain/internal/infrastructure/logger"
)

// Server is the BFTBrain HTTP server.
type Server struct {
	server *http.Server
	config serverconfig.Config
	logger domain.Logger
}

// New creates a server for handler.
func New(cfg serverconfig.Config, handler http.Handler, log domain.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      handler,
			ReadTimeout:  cfg.Timeouts.Read,
			WriteTimeout: cfg.Timeouts.Write,
			IdleTimeout:  cfg.Timeouts.Idle,
		},
		config: cfg,
		logger: log.With(logger.Component("server")),
	}
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Server starting", logger.String("address", ln.Addr().String()))
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeouts.Shutdown)
	defer cancel()
	return s.server.Shutdown(ctx)
}
