package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/searchlog"
)

type filterResponse struct {
	catalog.FilterResult
	Category string `json:"category"`
	Query    string `json:"query"`
}

func (s *Server) handleListCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Current().CategoryCounts())
}

func (s *Server) handleFilterIntegrations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := catalog.DefaultFilterState()
	if category := req.GetString("category", ""); category != "" {
		state = state.WithCategory(category)
	}
	state = state.WithQuery(req.GetString("query", ""))

	res := s.store.Current().Filter(state)
	s.recordSearch(ctx, state, res.Count)

	return jsonResult(filterResponse{FilterResult: res, Category: state.Category, Query: state.Query})
}

func (s *Server) handleGetIntegration(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	rec, ok := s.store.Current().GetIntegration(strings.TrimSpace(id))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("integration %q not found", id)), nil
	}
	return jsonResult(rec)
}

func (s *Server) handleListPopular(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Current().Popular())
}

func (s *Server) handleTopMissedSearches(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.searches == nil {
		return mcp.NewToolResultError("search log is disabled"), nil
	}

	missed, err := s.searches.TopMissed(ctx, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(missed)
}

// recordSearch logs a search. Failures are logged and otherwise ignored.
func (s *Server) recordSearch(ctx context.Context, state catalog.FilterState, count int) {
	if s.searches == nil {
		return
	}
	err := s.searches.Record(ctx, searchlog.Entry{
		Source:      searchlog.SourceMCP,
		Category:    state.Category,
		Query:       state.Query,
		ResultCount: count,
	})
	if err != nil {
		s.logger.Warn("failed to record search", "error", err, "request_id", requestID(ctx))
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
