// Package server hosts the Pharens HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharens/pharens-ai/engine/infra/server/appstate"
	"github.com/pharens/pharens-ai/pkg/config"
	"github.com/pharens/pharens-ai/pkg/logger"
)

const (
	httpReadTimeout       = 15 * time.Second
	httpIdleTimeout       = 60 * time.Second
	serverShutdownTimeout = 10 * time.Second
	// generation may take up to a minute; leave room for the response.
	minWriteTimeout = 75 * time.Second
)

type Server struct {
	cfg          *config.Config
	router       *gin.Engine
	httpServer   *http.Server
	cleanupMu    sync.Mutex
	cleanups     []func(context.Context) error
	shutdownOnce sync.Once
}

func NewServer(cfg *config.Config, state *appstate.State, opts RouterOptions) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: configuration is required")
	}
	r, err := BuildRouter(cfg, state, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	return &Server{cfg: cfg, router: r}, nil
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler { return s.router }

// OnShutdown registers fn to run after the listener stops, in reverse order.
func (s *Server) OnShutdown(fn func(context.Context) error) {
	s.cleanupMu.Lock()
	s.cleanups = append(s.cleanups, fn)
	s.cleanupMu.Unlock()
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: httpReadTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      max(s.cfg.Server.Timeout, minWriteTimeout),
		IdleTimeout:       httpIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", "http://"+s.Addr())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err, ok := <-errCh:
		if ok {
			s.runCleanups(context.WithoutCancel(ctx))
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	}
	return s.Shutdown(context.WithoutCancel(ctx))
}

func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, serverShutdownTimeout)
		defer cancel()
		if s.httpServer != nil {
			if sErr := s.httpServer.Shutdown(shutdownCtx); sErr != nil {
				err = fmt.Errorf("server shutdown failed: %w", sErr)
			}
		}
		s.runCleanups(shutdownCtx)
		logger.FromContext(ctx).Info("Server shutdown completed")
	})
	return err
}

func (s *Server) runCleanups(ctx context.Context) {
	s.cleanupMu.Lock()
	fns := s.cleanups
	s.cleanups = nil
	s.cleanupMu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		if err := fns[i](ctx); err != nil {
			logger.FromContext(ctx).Warn("Cleanup failed", "error", err)
		}
	}
}
