package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
)

// ListSubjects lists the subjects registered in the Schema Registry.
func (h *Handler) ListSubjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := h.cm.RestClient(config.SurfaceSchemaRegistry)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var subjects []string
	if err := client.Get(ctx, "/subjects", nil, &subjects); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list subjects: %v", err)), nil
	}
	return structuredResult(map[string]any{"subjects": subjects})
}

// GetLatestSchema returns the latest registered version of a subject's schema.
func (h *Handler) GetLatestSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Subject string `json:"subject"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Subject == "" {
		return mcp.NewToolResultError("subject is required"), nil
	}

	client, err := h.cm.RestClient(config.SurfaceSchemaRegistry)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out struct {
		Subject    string `json:"subject"`
		ID         int    `json:"id"`
		Version    int    `json:"version"`
		SchemaType string `json:"schemaType,omitempty"`
		Schema     string `json:"schema"`
	}
	path := "/subjects/" + url.PathEscape(args.Subject) + "/versions/latest"
	if err := client.Get(ctx, path, nil, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get latest schema for %s: %v", args.Subject, err)), nil
	}
	return structuredResult(out)
}
