// Package types provides common types and interfaces for the transport
// package used in communication between MCP clients and the server.
package types

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/errors"
)

// TransportType represents the type of transport to use.
//
//nolint:revive // Intentionally named TransportType despite package name
type TransportType string

const (
	// TransportTypeStdio is the pipe transport on process stdin/stdout.
	TransportTypeStdio TransportType = "stdio"

	// TransportTypeSSE is the long-lived streaming transport.
	TransportTypeSSE TransportType = "sse"

	// TransportTypeStreamableHTTP is the session-ful request/response
	// transport.
	TransportTypeStreamableHTTP TransportType = "streamable-http"
)

// String returns the string representation of the transport type.
func (t TransportType) String() string {
	return string(t)
}

// SessionFul reports whether the transport kind correlates requests to a
// logical client conversation and therefore needs the shared HTTP listener.
func (t TransportType) SessionFul() bool {
	return t == TransportTypeSSE || t == TransportTypeStreamableHTTP
}

// ParseTransportType parses a string into a transport type.
func ParseTransportType(s string) (TransportType, error) {
	switch s {
	case "stdio", "STDIO":
		return TransportTypeStdio, nil
	case "sse", "SSE":
		return TransportTypeSSE, nil
	case "streamable-http", "STREAMABLE-HTTP":
		return TransportTypeStreamableHTTP, nil
	default:
		return "", errors.ErrUnsupportedTransport
	}
}

// Transport is one way of reaching the MCP server. Session-ful transports
// register their routes on the shared listener during Connect; Disconnect
// drains and closes their sessions.
type Transport interface {
	// Kind returns the transport kind.
	Kind() TransportType

	// Connect prepares the transport: registers routes or begins reading the
	// pipe. For session-ful transports the shared listener is not accepting
	// yet when Connect runs.
	Connect(ctx context.Context) error

	// Disconnect gracefully shuts the transport down.
	Disconnect(ctx context.Context) error
}

// MessageHandler processes a single raw JSON-RPC message and returns the
// response, or nil for notifications. *server.MCPServer from the protocol
// SDK satisfies this.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage
}
