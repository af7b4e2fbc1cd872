// Package auth provides the request guard for the shared HTTP listener:
// DNS-rebinding protection via Host-header validation, plus optional
// pre-shared-key authentication with a constant-time comparison.
package auth

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/confluentinc/mcp-confluent-sub000/pkg/logger"
)

// APIKeyHeader is the request header carrying the pre-shared key.
const APIKeyHeader = "X-MCP-API-Key"

// Rejection reasons, used for audit logging and metrics only. External
// responses stay generic so a caller can't tell which check failed.
const (
	ReasonHostMissing  = "host-missing"
	ReasonHostMismatch = "host-mismatch"
	ReasonKeyMissing   = "key-missing"
	ReasonKeyMismatch  = "key-mismatch"
)

// Config is the immutable configuration for a Gate, constructed once from
// startup configuration.
type Config struct {
	// APIKey is the expected pre-shared key. May be empty when Enabled is
	// false.
	APIKey string

	// Enabled gates API-key validation. Host validation always runs
	// regardless: DNS rebinding targets the listener whether or not key auth
	// is configured, whereas key auth is an operator opt-out for local
	// development only.
	Enabled bool

	// AllowedHosts holds lowercase bare hostnames and optional host:port
	// pairs accepted in the Host header.
	AllowedHosts []string
}

// Gate validates every request on the shared listener. It is stateless: a
// pure function of the Config plus the inbound request.
type Gate struct {
	cfg      Config
	allowed  map[string]struct{}
	onReject func(reason string)
}

// NewGate builds a Gate. onReject is invoked once per rejected request with
// the internal reason; it may be nil.
func NewGate(cfg Config, onReject func(reason string)) *Gate {
	allowed := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			allowed[h] = struct{}{}
		}
	}
	return &Gate{cfg: cfg, allowed: allowed, onReject: onReject}
}

// exemptFromKeyCheck lists paths that skip key validation. They remain
// subject to the Host check.
var exemptFromKeyCheck = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Middleware returns the request guard to install on the listener before any
// transport registers its routes.
func (g *Gate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reason, ok := g.checkHost(r.Host); !ok {
				g.reject(w, r, reason, http.StatusForbidden)
				return
			}

			if g.cfg.Enabled {
				if _, exempt := exemptFromKeyCheck[r.URL.Path]; !exempt {
					if reason, ok := g.checkKey(r.Header.Get(APIKeyHeader)); !ok {
						g.reject(w, r, reason, http.StatusUnauthorized)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkHost validates the Host header against the allow-list. Both the bare
// hostname (port stripped, IPv6 brackets handled) and the full host:port
// string are accepted, case-insensitively.
func (g *Gate) checkHost(hostHeader string) (string, bool) {
	if hostHeader == "" {
		return ReasonHostMissing, false
	}

	full := strings.ToLower(hostHeader)
	if _, ok := g.allowed[full]; ok {
		return "", true
	}

	bare := full
	if host, _, err := net.SplitHostPort(full); err == nil {
		bare = host
	} else {
		// No port present. SplitHostPort rejects "[::1]" without a port, so
		// strip brackets by hand.
		bare = strings.TrimSuffix(strings.TrimPrefix(full, "["), "]")
	}
	if bare == "" {
		return ReasonHostMissing, false
	}

	if _, ok := g.allowed[bare]; ok {
		return "", true
	}
	return ReasonHostMismatch, false
}

// checkKey compares the presented key against the configured secret in
// constant time. When the lengths differ a dummy comparison of equal cost
// still runs, so timing doesn't leak the secret's length.
func (g *Gate) checkKey(presented string) (string, bool) {
	if presented == "" {
		return ReasonKeyMissing, false
	}

	secret := []byte(g.cfg.APIKey)
	candidate := []byte(presented)

	if len(candidate) != len(secret) {
		subtle.ConstantTimeCompare(secret, secret)
		return ReasonKeyMismatch, false
	}
	if subtle.ConstantTimeCompare(candidate, secret) != 1 {
		return ReasonKeyMismatch, false
	}
	return "", true
}

// reject writes a generic response. The distinct reason goes to the audit log
// and metrics only; it never reaches the caller, and the secret is never
// logged.
func (g *Gate) reject(w http.ResponseWriter, r *http.Request, reason string, status int) {
	logger.Warnw("request rejected",
		"reason", reason,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)
	if g.onReject != nil {
		g.onReject(reason)
	}
	if status == http.StatusUnauthorized {
		http.Error(w, "unauthorized", status)
		return
	}
	http.Error(w, "forbidden", status)
}
