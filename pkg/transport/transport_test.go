package transport

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/auth"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/transport/session"
)

// fakeHandler records every message it sees and echoes a canned response.
// Messages decoding as notifications (no id) yield nil, like the real server.
type fakeHandler struct {
	mu         sync.Mutex
	messages   []string
	sessionIDs []string
}

type fakeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Result  string `json:"result"`
}

func (h *fakeHandler) HandleMessage(ctx context.Context, msg json.RawMessage) mcp.JSONRPCMessage {
	h.mu.Lock()
	h.messages = append(h.messages, string(msg))
	id, _ := session.IDFromContext(ctx)
	h.sessionIDs = append(h.sessionIDs, id)
	h.mu.Unlock()

	var probe struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(msg, &probe); err != nil || probe.ID == nil {
		return nil // notification
	}
	return fakeResponse{JSONRPC: "2.0", ID: *probe.ID, Result: "ok"}
}

func (h *fakeHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

func (h *fakeHandler) seenSessionIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.sessionIDs...)
}

// newTestServer builds a shared listener with a permissive gate for tests that
// exercise transports, not authentication.
func newTestServer() *Server {
	gate := auth.NewGate(auth.Config{
		Enabled:      false,
		AllowedHosts: []string{"localhost", "127.0.0.1", "example.com"},
	}, nil)
	return NewServer("127.0.0.1", 0, gate, nil, nil)
}
