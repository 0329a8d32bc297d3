package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/kiosk/pkg/adapters/http"
	"github.com/aretw0/kiosk/pkg/adapters/mcp"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Options
	Addr string
}

// NewServer builds the HTTP server and the runtime behind it.
// The stream manager is registered as a feed publisher so SSE clients see
// the same events as Redis.
func NewServer(opts ServeOptions) (*http.Server, *Runtime, error) {
	logger := CreateLogger(opts.LogLevel, opts.Debug)
	streams := httpAdapter.NewStreamManager(logger)

	rt, err := BuildShop(opts.Options, logger, streams)
	if err != nil {
		return nil, nil, err
	}

	handler, err := httpAdapter.NewHandler(rt.Shop,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetrics(rt.Metrics.Handler()),
	)
	if err != nil {
		_ = rt.Close()
		return nil, nil, fmt.Errorf("failed to build handler: %w", err)
	}

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}, rt, nil
}

// RunServe serves HTTP until ctx is cancelled, then shuts down gracefully.
func RunServe(ctx context.Context, opts ServeOptions) error {
	srv, rt, err := NewServer(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("Starting HTTP server", "addr", srv.Addr, "catalog", opts.CatalogPath)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		rt.Logger.Info("Shutting down HTTP server", "cause", shutdownCause(ctx))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	Options
	Transport string
	Port      int
}

// RunMCP serves the shop as MCP tools over stdio or SSE.
func RunMCP(ctx context.Context, opts MCPOptions) error {
	logger := CreateLogger(opts.LogLevel, opts.Debug)
	rt, err := BuildShop(opts.Options, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	srv := mcp.NewServer(rt.Shop, mcp.WithLogger(logger))
	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting MCP server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		if ctx.Err() != nil {
			logger.Info("MCP server stopped", "cause", shutdownCause(ctx))
		}
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", opts.Transport)
	}
}
