package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waftester/scanreport/pkg/defaults"
	"github.com/waftester/scanreport/pkg/mcpserver"
)

// runMCP starts the MCP (Model Context Protocol) server.
// Supports two transport modes:
//   - stdio (default): For IDE integrations (VS Code, Claude Desktop, Cursor)
//   - -http <addr>:    For remote/Docker deployments with session management
//
// -transport http without -http listens on the configured mcp.addr.
func runMCP(args []string) error {
	var (
		transport string
		httpAddr  string
		limit     float64
	)
	a, _, err := setup("mcp", args, func(fs *flag.FlagSet) {
		fs.StringVar(&transport, "transport", "stdio", "Transport: stdio or http")
		fs.StringVar(&httpAddr, "http", "", "HTTP address to listen on (e.g. "+defaults.MCPAddr+"). Implies -transport http.")
		fs.Float64Var(&limit, "rate", -1, "HTTP requests per second across clients, 0 disables (default from config)")
	})
	if err != nil {
		return err
	}
	defer a.close()

	// Allow env var override for HTTP address (useful in Docker/K8s)
	if httpAddr == "" {
		httpAddr = os.Getenv("SCANREPORT_HTTP_ADDR")
	}
	switch {
	case httpAddr != "":
	case transport == "http":
		httpAddr = a.cfg.MCP.Addr
	case transport != "stdio":
		return fmt.Errorf("%w: unknown transport %q (want stdio or http)", errUsage, transport)
	}
	if limit < 0 {
		limit = a.cfg.MCP.RateLimit
	}

	// Progress is pushed to clients per call; no terminal output here.
	srv, err := mcpserver.New(mcpserver.Config{
		Orchestrator: a.orchestrator(nil),
		Service:      a.svc,
		Branding:     a.branding,
		RateLimit:    limit,
		Logger:       a.logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if httpAddr == "" {
		return srv.RunStdio(ctx)
	}

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           srv.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// WriteTimeout stays 0: SSE streams are long-lived and any
		// non-zero value sets an absolute deadline on them.
		IdleTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
		defer shutdownCancel()
		fmt.Fprintf(os.Stderr, "%s shutting down gracefully\n", defaults.UserAgent("mcp"))
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("mcp: shutdown", "error", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "%s MCP server listening on %s (HTTP transport)\n", defaults.UserAgent("mcp"), httpAddr)
	srv.MarkReady()
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
