// Package mcp assembles the MCP server: protocol handling from mcp-go plus
// the tool layer bound to the backend connection manager.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/confluent"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/mcp/tools"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/versions"
)

// ServerName identifies this server in the MCP initialize handshake.
const ServerName = "mcp-confluent"

// NewServer creates the MCP server with every tool registered. The returned
// server satisfies the transport layer's message-handler interface; the
// transports own session management, so none of mcp-go's serving wrappers are
// used.
func NewServer(cm *confluent.Manager) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		versions.GetVersionInfo().Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	registerTools(s, tools.NewHandler(cm))
	return s
}
