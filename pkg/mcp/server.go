// Package mcp exposes the integration catalog to AI assistants over the
// Model Context Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/mcplog"
	"github.com/gnana997/intcat/pkg/searchlog"
)

const serverVersion = "0.1.0"

// Server serves catalog tools. It reads the current snapshot from a
// catalog.Store on every call, so hot reloads are picked up without a restart.
type Server struct {
	mcpServer *server.MCPServer
	store     *catalog.Store
	searches  *searchlog.Store // nil when search logging is off
	toolLog   *mcplog.Logger   // nil when tool call logging is off
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSearchLog records filter_integrations queries and enables
// top_missed_searches.
func WithSearchLog(s *searchlog.Store) Option {
	return func(srv *Server) { srv.searches = s }
}

// WithToolLog writes one JSONL entry per tool call.
func WithToolLog(l *mcplog.Logger) Option {
	return func(srv *Server) { srv.toolLog = l }
}

func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		if logger != nil {
			srv.logger = logger
		}
	}
}

// NewServer creates a server over store.
func NewServer(store *catalog.Store, opts ...Option) *Server {
	s := &Server{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	serverOpts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.requestMiddleware()),
	}

	s.mcpServer = server.NewMCPServer("intcat", serverVersion, serverOpts...)
	s.mcpServer.AddTools(
		server.ServerTool{Tool: listCategoriesTool(), Handler: s.handleListCategories},
		server.ServerTool{Tool: filterIntegrationsTool(), Handler: s.handleFilterIntegrations},
		server.ServerTool{Tool: getIntegrationTool(), Handler: s.handleGetIntegration},
		server.ServerTool{Tool: listPopularTool(), Handler: s.handleListPopular},
		server.ServerTool{Tool: topMissedSearchesTool(), Handler: s.handleTopMissedSearches},
	)

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp server listening on stdio", "tool_log", s.toolLog.Path())
	return server.ServeStdio(s.mcpServer)
}
