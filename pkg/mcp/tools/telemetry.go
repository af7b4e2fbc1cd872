package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
)

// QueryMetrics runs a telemetry query against the metrics API.
func (h *Handler) QueryMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Metric      string            `json:"metric"`
		ResourceIDs map[string]string `json:"resource_ids"`
		Interval    string            `json:"interval"`
		Granularity string            `json:"granularity"`
		Limit       int               `json:"limit"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Metric == "" {
		return mcp.NewToolResultError("metric is required"), nil
	}
	if args.Interval == "" {
		return mcp.NewToolResultError("interval is required"), nil
	}

	client, err := h.cm.RestClient(config.SurfaceTelemetry)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	granularity := args.Granularity
	if granularity == "" {
		granularity = "PT1M"
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 100
	}

	body := map[string]any{
		"aggregations": []map[string]any{{"metric": args.Metric}},
		"granularity":  granularity,
		"intervals":    []string{args.Interval},
		"limit":        limit,
	}
	if len(args.ResourceIDs) > 0 {
		filters := make([]map[string]any, 0, len(args.ResourceIDs))
		for field, value := range args.ResourceIDs {
			filters = append(filters, map[string]any{"op": "EQ", "field": field, "value": value})
		}
		filter := map[string]any{"op": "AND", "filters": filters}
		if len(filters) == 1 {
			filter = filters[0]
		}
		body["filter"] = filter
	}

	var out map[string]any
	if err := client.Post(ctx, "/v2/metrics/cloud/query", body, &out); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to query metrics: %v", err)), nil
	}
	return structuredResult(out)
}
