package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/config"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/confluent"
)

func newHandlerWithSurface(t *testing.T, surface string, backend http.Handler) *Handler {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ClientID:      "test",
		ConsumerGroup: "test",
		Endpoints: map[string]config.Endpoint{
			surface: {BaseURL: srv.URL},
		},
	}
	return NewHandler(confluent.NewManager(cfg))
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestListSubjects(t *testing.T) {
	t.Parallel()

	h := newHandlerWithSurface(t, config.SurfaceSchemaRegistry,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/subjects", r.URL.Path)
			w.Write([]byte(`["orders-value","payments-value"]`))
		}))

	res, err := h.ListSubjects(context.Background(), callRequest("list_subjects", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "orders-value")
}

func TestGetLatestSchema(t *testing.T) {
	t.Parallel()

	h := newHandlerWithSurface(t, config.SurfaceSchemaRegistry,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/subjects/orders-value/versions/latest", r.URL.Path)
			w.Write([]byte(`{"subject":"orders-value","id":12,"version":3,"schema":"{\"type\":\"record\"}"}`))
		}))

	res, err := h.GetLatestSchema(context.Background(),
		callRequest("get_latest_schema", map[string]any{"subject": "orders-value"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"version": 3`)

	// Missing argument is a tool error, not a Go error.
	res, err = h.GetLatestSchema(context.Background(), callRequest("get_latest_schema", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestGetConnector(t *testing.T) {
	t.Parallel()

	h := newHandlerWithSurface(t, config.SurfaceControlPlane,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/connectors/s3-sink", r.URL.Path)
			w.Write([]byte(`{"name":"s3-sink","config":{"connector.class":"S3Sink"}}`))
		}))

	res, err := h.GetConnector(context.Background(),
		callRequest("get_connector", map[string]any{"name": "s3-sink"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "S3Sink")
}

func TestCreateFlinkStatementGeneratesName(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	h := newHandlerWithSurface(t, config.SurfaceFlink,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, &gotBody))
			w.Write([]byte(`{"name":"accepted"}`))
		}))

	res, err := h.CreateFlinkStatement(context.Background(),
		callRequest("create_flink_statement", map[string]any{"statement": "SELECT 1"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	name, _ := gotBody["name"].(string)
	assert.NotEmpty(t, name, "a statement name is generated when none is given")
	spec, ok := gotBody["spec"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", spec["statement"])
}

func TestQueryMetricsBuildsFilter(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	h := newHandlerWithSurface(t, config.SurfaceTelemetry,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/metrics/cloud/query", r.URL.Path)
			data, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(data, &gotBody))
			w.Write([]byte(`{"data":[]}`))
		}))

	res, err := h.QueryMetrics(context.Background(), callRequest("query_metrics", map[string]any{
		"metric":       "io.confluent.kafka.server/received_bytes",
		"interval":     "2026-08-23T00:00:00Z/2026-08-23T01:00:00Z",
		"resource_ids": map[string]any{"resource.kafka.id": "lkc-123"},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	filter, ok := gotBody["filter"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EQ", filter["op"])
	assert.Equal(t, "lkc-123", filter["value"])
	assert.Equal(t, "PT1M", gotBody["granularity"], "granularity defaults apply")
}

func TestToolFailsFastOnUnconfiguredSurface(t *testing.T) {
	t.Parallel()

	h := NewHandler(confluent.NewManager(&config.Config{ClientID: "test", ConsumerGroup: "test"}))

	res, err := h.ListSubjects(context.Background(), callRequest("list_subjects", nil))
	require.NoError(t, err)
	require.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not configured")
}
