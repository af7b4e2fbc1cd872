// Package healthcheck provides the /health endpoint for the shared listener.
// The probe is independent of session state and of key-based auth; only the
// listener's Host check applies to it.
package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
	"github.com/confluentinc/mcp-confluent-sub000/pkg/versions"
)

// Status is the health probe response body.
type Status struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Handler serves the health probe.
type Handler struct {
	name    string
	started time.Time
}

// NewHandler creates a health handler for the named server.
func NewHandler(name string) *Handler {
	return &Handler{name: name, started: time.Now()}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := Status{
		Status:  "ok",
		Name:    h.name,
		Version: versions.GetVersionInfo().Version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.Warnf("failed to write health response: %v", err)
	}
}
