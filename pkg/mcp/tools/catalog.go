package tools

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
)

// SearchCatalog performs a basic full-text search over catalog entities.
func (h *Handler) SearchCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Query string   `json:"query"`
		Types []string `json:"types"`
		Limit int      `json:"limit"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	client, err := h.cm.RestClient(config.SurfaceCatalog)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{"query": []string{args.Query}}
	for _, t := range args.Types {
		query.Add("types", t)
	}
	if args.Limit > 0 {
		query.Set("limit", strconv.Itoa(args.Limit))
	}

	var out map[string]any
	if err := client.Get(ctx, "/catalog/v1/search/basic", query, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search catalog: %v", err)), nil
	}
	return structuredResult(out)
}

// ListTags lists the tag definitions available in the catalog.
func (h *Handler) ListTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := h.cm.RestClient(config.SurfaceCatalog)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out []map[string]any
	if err := client.Get(ctx, "/catalog/v1/types/tagdefs", nil, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
	}
	return structuredResult(map[string]any{"tags": out})
}
