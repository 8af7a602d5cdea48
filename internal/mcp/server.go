// Package mcp provides an MCP (Model Context Protocol) server that lets agents
// inspect a SpineML model and its build output without running the toolchain.
package mcp

import (
	"context"
	"fmt"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/spineml2genn/internal/pathutil"
	"github.com/nvandessel/spineml2genn/internal/ratelimit"
	"github.com/nvandessel/spineml2genn/internal/staging"
)

// Server wraps the MCP SDK server.
type Server struct {
	server      *sdk.Server
	modelDir    string
	layout      staging.Layout
	limiters    ratelimit.ToolLimiters
	auditLogger *AuditLogger
}

// Config holds server configuration.
type Config struct {
	Name      string // Server name (e.g., "spineml2genn")
	Version   string // Server version
	ModelDir  string // SpineML model source directory
	OutputDir string // Output root of earlier runs
}

// NewServer creates a new MCP server with the SpineML tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.ModelDir == "" || cfg.OutputDir == "" {
		return nil, fmt.Errorf("model and output directories are required")
	}
	if info, err := os.Stat(cfg.ModelDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", staging.ErrSourceMissing, pathutil.RedactPath(cfg.ModelDir))
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{})

	layout := staging.Layout{Root: cfg.OutputDir}
	s := &Server{
		server:      mcpServer,
		modelDir:    cfg.ModelDir,
		layout:      layout,
		limiters:    ratelimit.NewToolLimiters(),
		auditLogger: NewAuditLogger(layout.StateDir()),
	}

	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled,
// or the process receives an interrupt.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log.
func (s *Server) Close() error {
	return s.auditLogger.Close()
}
