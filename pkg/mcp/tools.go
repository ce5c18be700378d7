package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/intcat/pkg/catalog"
)

func listCategoriesTool() mcp.Tool {
	return mcp.NewTool("list_categories",
		mcp.WithDescription("List category selector labels in display order with the number of integrations in each. \""+catalog.AllCategory+"\" comes first and counts every integration."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func filterIntegrationsTool() mcp.Tool {
	return mcp.NewTool("filter_integrations",
		mcp.WithDescription("Filter the integration catalog by category and free-text search. The search is case-insensitive and matches name, description and key features."),
		mcp.WithString("category",
			mcp.Description("Category label from list_categories. Defaults to \""+catalog.AllCategory+"\"."),
		),
		mcp.WithString("query",
			mcp.Description("Search text. Blank means no text filter."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func getIntegrationTool() mcp.Tool {
	return mcp.NewTool("get_integration",
		mcp.WithDescription("Get one integration by id."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Integration id, e.g. \"salesforce\"."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func listPopularTool() mcp.Tool {
	return mcp.NewTool("list_popular",
		mcp.WithDescription("List the integrations flagged as popular, in catalog order."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func topMissedSearchesTool() mcp.Tool {
	return mcp.NewTool("top_missed_searches",
		mcp.WithDescription("List the most frequent searches that returned no integrations. Requires the search log."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (default 10, max 100)."),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}
