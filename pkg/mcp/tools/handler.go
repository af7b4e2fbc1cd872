// Package tools implements the MCP tool handlers for the streaming platform.
//
// Every handler follows the same shape: bind and validate arguments, call the
// backend through the connection manager, format the result. Backend errors
// come back as tool errors, never as protocol errors, so a misconfigured
// surface doesn't tear down the client conversation.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/confluent"
)

// Handler holds the backend access every tool shares.
type Handler struct {
	cm *confluent.Manager
}

// NewHandler creates the tool handler layer over a connection manager.
func NewHandler(cm *confluent.Manager) *Handler {
	return &Handler{cm: cm}
}

// structuredResult returns v both as structured content and as a JSON text
// fallback for clients that only render text.
func structuredResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultStructured(v, string(data)), nil
}
