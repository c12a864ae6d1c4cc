// Package server exposes the advisor pipeline over HTTP: /advisor for
// callers holding the shared secret, /health for probes and an optional
// /debug-auth diagnostic route.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/horasecreta/advisor/advisor"
	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/logger"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown when none is configured
	DefaultShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 5 * time.Second
)

// Server is the HTTP front of the gateway
type Server struct {
	cfg      *am.Config
	pipeline *advisor.Pipeline
	logger   *zap.SugaredLogger
	handler  http.Handler
	httpSrv  *http.Server
	now      func() time.Time
}

// NewServer wires routes and middleware for cfg and pipeline
func NewServer(cfg *am.Config, pipeline *advisor.Pipeline, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = logger.ComponentLogger("server")
	}
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		logger:   log,
		now:      time.Now,
	}
	s.handler = s.setupRoutes()
	s.httpSrv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		ErrorLog:          zap.NewStdLog(log.Desugar().Named("http")),
	}
	return s
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address and serves until ctx ends
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.Address())
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Infow("HTTP server listening", logger.FieldAddress, ln.Addr().String())
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.Stop()
	})

	return g.Wait()
}

// Stop drains in-flight requests within the shutdown timeout
func (s *Server) Stop() error {
	timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	s.logger.Infow("Initiating server shutdown", "timeout", timeout)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	s.logger.Infow("Server stopped")
	return nil
}
