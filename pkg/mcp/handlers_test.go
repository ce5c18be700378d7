package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/intcat/pkg/catalog"
	"github.com/gnana997/intcat/pkg/mcplog"
	"github.com/gnana997/intcat/pkg/searchlog"
	"github.com/gnana997/intcat/pkg/util"
)

// --- helpers ---

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Name:    "test",
		Version: "1.0",
		Integrations: []catalog.Integration{
			{ID: "salesforce", Name: "Salesforce", Category: "CRM", Description: "Sync leads and calls", KeyFeatures: []string{"Lead sync"}, Popular: true},
			{ID: "hubspot", Name: "HubSpot", Category: "CRM", Description: "Contacts and deals"},
			{ID: "calendly", Name: "Calendly", Category: "Scheduling", Description: "Book meetings from calls", Popular: true},
		},
	}
}

func testServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cat := testCatalog()
	qs := catalog.NewQueryService(cat, cat.BuildIndex())
	opts = append([]Option{WithLogger(util.NopLogger())}, opts...)
	return NewServer(catalog.NewStore(qs), opts...)
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "list_categories":
		handler = s.handleListCategories
	case "filter_integrations":
		handler = s.handleFilterIntegrations
	case "get_integration":
		handler = s.handleGetIntegration
	case "list_popular":
		handler = s.handleListPopular
	case "top_missed_searches":
		handler = s.handleTopMissedSearches
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

type filterPayload struct {
	Results  []catalog.Integration `json:"results"`
	Count    int                   `json:"count"`
	Category string                `json:"category"`
	Query    string                `json:"query"`
}

func decodeFilter(t *testing.T, result *mcp.CallToolResult) filterPayload {
	t.Helper()
	var p filterPayload
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &p))
	return p
}

// --- list_categories ---

func TestHandleListCategories(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("list_categories", nil))
	assert.False(t, result.IsError)

	var cats []catalog.CategoryCount
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &cats))
	assert.Equal(t, []catalog.CategoryCount{
		{Name: "All", Count: 3},
		{Name: "CRM", Count: 2},
		{Name: "Scheduling", Count: 1},
	}, cats)
}

// --- filter_integrations ---

func TestHandleFilterIntegrations_Defaults(t *testing.T) {
	s := testServer(t)
	p := decodeFilter(t, callTool(t, s, makeRequest("filter_integrations", nil)))

	assert.Equal(t, "All", p.Category)
	assert.Equal(t, 3, p.Count)
	assert.Len(t, p.Results, 3)
}

func TestHandleFilterIntegrations_CategoryAndQuery(t *testing.T) {
	s := testServer(t)
	p := decodeFilter(t, callTool(t, s, makeRequest("filter_integrations", map[string]any{
		"category": "CRM",
		"query":    "  LEAD ",
	})))

	require.Equal(t, 1, p.Count)
	assert.Equal(t, "salesforce", p.Results[0].ID)
	assert.Equal(t, "CRM", p.Category)
	assert.Equal(t, "  LEAD ", p.Query)
}

func TestHandleFilterIntegrations_UnknownCategory(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("filter_integrations", map[string]any{"category": "Payments"}))
	assert.False(t, result.IsError)

	p := decodeFilter(t, result)
	assert.Equal(t, 0, p.Count)
	assert.NotNil(t, p.Results)
}

func TestHandleFilterIntegrations_CategoryIsExact(t *testing.T) {
	s := testServer(t)
	for _, category := range []string{"CRM ", "crm", " "} {
		p := decodeFilter(t, callTool(t, s, makeRequest("filter_integrations", map[string]any{"category": category})))
		assert.Equal(t, 0, p.Count, "category %q", category)
		assert.Equal(t, category, p.Category)
	}
}

func TestHandleFilterIntegrations_RecordsSearch(t *testing.T) {
	log, err := searchlog.Open(searchlog.MemoryPath)
	require.NoError(t, err)
	defer log.Close()

	s := testServer(t, WithSearchLog(log))
	callTool(t, s, makeRequest("filter_integrations", map[string]any{"query": "quickbooks"}))
	callTool(t, s, makeRequest("filter_integrations", map[string]any{"query": "Calendly"}))
	callTool(t, s, makeRequest("filter_integrations", nil))

	stats, err := log.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Searches)
	assert.Equal(t, 1, stats.ZeroResult)
}

// --- get_integration ---

func TestHandleGetIntegration(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("get_integration", map[string]any{"id": "calendly"}))
	assert.False(t, result.IsError)

	var rec catalog.Integration
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &rec))
	assert.Equal(t, "Calendly", rec.Name)
}

func TestHandleGetIntegration_NotFound(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("get_integration", map[string]any{"id": "nope"}))
	assert.True(t, result.IsError)
}

func TestHandleGetIntegration_MissingID(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("get_integration", nil))
	assert.True(t, result.IsError)
}

// --- list_popular ---

func TestHandleListPopular(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("list_popular", nil))

	var recs []catalog.Integration
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "salesforce", recs[0].ID)
	assert.Equal(t, "calendly", recs[1].ID)
}

// --- top_missed_searches ---

func TestHandleTopMissedSearches_Disabled(t *testing.T) {
	s := testServer(t)
	result := callTool(t, s, makeRequest("top_missed_searches", nil))
	assert.True(t, result.IsError)
}

func TestHandleTopMissedSearches(t *testing.T) {
	log, err := searchlog.Open(searchlog.MemoryPath)
	require.NoError(t, err)
	defer log.Close()

	s := testServer(t, WithSearchLog(log))
	for _, q := range []string{"zoho", "Zoho ", "pipedrive"} {
		callTool(t, s, makeRequest("filter_integrations", map[string]any{"query": q}))
	}

	result := callTool(t, s, makeRequest("top_missed_searches", map[string]any{"limit": float64(1)}))
	assert.False(t, result.IsError)

	var missed []searchlog.MissedQuery
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &missed))
	require.Len(t, missed, 1)
	assert.Equal(t, "zoho", missed[0].Query)
	assert.Equal(t, 2, missed[0].Searches)
}

// --- hot reload ---

func TestHandlersFollowStoreSwap(t *testing.T) {
	s := testServer(t)

	cat := &catalog.Catalog{Name: "v2", Version: "2", Integrations: []catalog.Integration{
		{ID: "clio", Name: "Clio", Category: "Legal"},
	}}
	s.store.Swap(catalog.NewQueryService(cat, cat.BuildIndex()))

	p := decodeFilter(t, callTool(t, s, makeRequest("filter_integrations", nil)))
	require.Equal(t, 1, p.Count)
	assert.Equal(t, "clio", p.Results[0].ID)
}

// --- middleware ---

func TestRequestMiddleware_WritesToolLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.jsonl")
	toolLog, err := mcplog.Open(path)
	require.NoError(t, err)

	s := testServer(t, WithToolLog(toolLog))

	var seenID string
	handler := s.requestMiddleware()(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		seenID = requestID(ctx)
		return s.handleGetIntegration(ctx, req)
	})

	_, err = handler(context.Background(), makeRequest("get_integration", map[string]any{"id": "nope"}))
	require.NoError(t, err)
	require.NoError(t, toolLog.Close())

	entries, err := mcplog.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "get_integration", entries[0].Tool)
	assert.Equal(t, seenID, entries[0].RequestID)
	assert.NotEmpty(t, seenID)
	assert.True(t, entries[0].IsError)
	assert.Equal(t, "nope", entries[0].Params["id"])
}

func TestRequestMiddleware_NoToolLog(t *testing.T) {
	s := testServer(t)
	handler := s.requestMiddleware()(s.handleListPopular)

	result, err := handler(context.Background(), makeRequest("list_popular", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
