package tools

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
)

const flinkStatementsPath = "/sql/v1/statements"

// ListFlinkStatements lists the SQL statements known to the Flink surface.
func (h *Handler) ListFlinkStatements(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := h.cm.RestClient(config.SurfaceFlink)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out map[string]any
	if err := client.Get(ctx, flinkStatementsPath, nil, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list statements: %v", err)), nil
	}
	return structuredResult(out)
}

// CreateFlinkStatement submits a SQL statement. When no name is given one is
// generated, since statement names are the deletion handle.
func (h *Handler) CreateFlinkStatement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Statement  string            `json:"statement"`
		Name       string            `json:"name"`
		Properties map[string]string `json:"properties"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Statement == "" {
		return mcp.NewToolResultError("statement is required"), nil
	}

	name := args.Name
	if name == "" {
		name = "stmt-" + uuid.New().String()
	}

	client, err := h.cm.RestClient(config.SurfaceFlink)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]any{
		"name": name,
		"spec": map[string]any{
			"statement":  args.Statement,
			"properties": args.Properties,
		},
	}
	var out map[string]any
	if err := client.Post(ctx, flinkStatementsPath, body, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create statement %s: %v", name, err)), nil
	}
	return structuredResult(out)
}

// DeleteFlinkStatement deletes a SQL statement by name.
func (h *Handler) DeleteFlinkStatement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Name string `json:"name"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	client, err := h.cm.RestClient(config.SurfaceFlink)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.Delete(ctx, flinkStatementsPath+"/"+url.PathEscape(args.Name)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete statement %s: %v", args.Name, err)), nil
	}
	return structuredResult(map[string]any{"name": args.Name, "deleted": true})
}
