package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/intcat/pkg/mcplog"
)

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestMiddleware tags each tool call with a request id, writes the JSONL
// tool log entry and emits a debug line.
func (s *Server) requestMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id := uuid.NewString()
			ctx = context.WithValue(ctx, requestIDKey{}, id)

			start := mcplog.Now()
			result, err := next(ctx, req)

			entry := mcplog.NewEntry(id, req, start, result, err)
			_ = s.toolLog.Write(entry)

			s.logger.Debug("tool call",
				"request_id", id,
				"tool", entry.Tool,
				"duration_ms", entry.DurationMs,
				"is_error", entry.IsError,
			)
			return result, err
		}
	}
}
