package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
)

// ListClusters lists the Kafka clusters visible through the control plane.
func (h *Handler) ListClusters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		EnvironmentID string `json:"environment_id"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := h.cm.RestClient(config.SurfaceControlPlane)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var query url.Values
	if args.EnvironmentID != "" {
		query = url.Values{"environment": []string{args.EnvironmentID}}
	}

	var out map[string]any
	if err := client.Get(ctx, "/cmk/v2/clusters", query, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list clusters: %v", err)), nil
	}
	return structuredResult(out)
}

// ListConnectors lists the connectors deployed on the Connect cluster.
func (h *Handler) ListConnectors(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := h.cm.RestClient(config.SurfaceControlPlane)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var names []string
	if err := client.Get(ctx, "/connectors", nil, &names); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list connectors: %v", err)), nil
	}
	return structuredResult(map[string]any{"connectors": names})
}

// GetConnector returns one connector's configuration and status.
func (h *Handler) GetConnector(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Name string `json:"name"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	client, err := h.cm.RestClient(config.SurfaceControlPlane)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out map[string]any
	if err := client.Get(ctx, "/connectors/"+url.PathEscape(args.Name), nil, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get connector %s: %v", args.Name, err)), nil
	}
	return structuredResult(out)
}
