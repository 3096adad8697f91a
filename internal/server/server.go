// Package server assembles the MCP server: the session context, the action
// registry, and the transport (stdio by default, streamable HTTP when a
// listen address is configured).
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyhfish/playwright-mcp/internal/browser"
	"github.com/hyhfish/playwright-mcp/internal/config"
	"github.com/hyhfish/playwright-mcp/internal/session"
	"github.com/hyhfish/playwright-mcp/internal/tools"
)

const shutdownTimeout = 30 * time.Second

// Server hosts one session context and the actions that drive it.
type Server struct {
	cfg      config.Config
	logger   *zap.Logger
	sc       *session.Context
	registry *tools.Registry
	mcp      *mcpserver.MCPServer
}

// New wires the session context and action registry into an MCP server.
// The browser engine is injected so tests can run against a fake.
func New(cfg config.Config, version string, engine browser.Engine, logger *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("server")

	sc := session.NewContext(cfg.Browser, engine, logger)

	capabilities := make([]tools.Capability, 0, len(cfg.Tools.Capabilities))
	for _, c := range cfg.Tools.Capabilities {
		capabilities = append(capabilities, tools.Capability(c))
	}

	registry, err := tools.DefaultRegistry(sc, tools.Options{
		CaptureSnapshots: cfg.Snapshot.Capture,
		Capabilities:     capabilities,
		StabilizeWait:    cfg.Browser.StabilizeWait,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build action registry: %w", err)
	}

	m := mcpserver.NewMCPServer(cfg.Server.Name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	registry.Install(m)

	return &Server{
		cfg:      cfg,
		logger:   logger,
		sc:       sc,
		registry: registry,
		mcp:      m,
	}, nil
}

// SessionContext exposes the session context, chiefly for tests.
func (s *Server) SessionContext() *session.Context { return s.sc }

// Registry exposes the action registry, chiefly for tests.
func (s *Server) Registry() *tools.Registry { return s.registry }

// Run serves until ctx is cancelled, then tears the session down. With no
// listen address configured it speaks MCP over stdio; stdout belongs to the
// protocol, which is why logs go to stderr.
func (s *Server) Run(ctx context.Context) error {
	var err error
	if s.cfg.Server.ListenAddr == "" {
		err = s.runStdio(ctx)
	} else {
		err = s.runHTTP(ctx)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if closeErr := s.sc.Close(closeCtx); closeErr != nil {
		s.logger.Error("Session teardown failed during shutdown.", zap.Error(closeErr))
		if err == nil {
			err = closeErr
		}
	}
	s.logger.Info("Server stopped.")
	return err
}

func (s *Server) runStdio(ctx context.Context) error {
	s.logger.Info("Serving MCP over stdio.", zap.String("name", s.cfg.Server.Name))
	stdio := mcpserver.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport failed: %w", err)
	}
	return nil
}

func (s *Server) runHTTP(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.router(),
	}
	s.logger.Info("Serving MCP over HTTP.",
		zap.String("name", s.cfg.Server.Name),
		zap.String("address", s.cfg.Server.ListenAddr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http transport failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error.", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// router builds the HTTP surface: a health probe plus the streamable MCP
// endpoint mounted under /mcp.
func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	streamable := mcpserver.NewStreamableHTTPServer(s.mcp)
	r.Mount("/mcp", streamable)
	return r
}
