// Package config holds the startup configuration for the MCP server.
//
// The configuration is read once at startup (flags first, environment
// variables as fallback) into an explicit Config struct that is passed by
// pointer into the connection manager and the transport orchestrator. There
// is deliberately no ambient global configuration state.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variables read by Load.
const EnvPrefix = "MCP"

// Surface names for the independently-addressable HTTP API backends.
const (
	SurfaceControlPlane   = "controlplane"
	SurfaceFlink          = "flink"
	SurfaceSchemaRegistry = "schemaregistry"
	SurfaceCatalog        = "catalog"
	SurfaceTelemetry      = "telemetry"
)

// Surfaces lists every REST surface the connection manager can serve.
var Surfaces = []string{
	SurfaceControlPlane,
	SurfaceFlink,
	SurfaceSchemaRegistry,
	SurfaceCatalog,
	SurfaceTelemetry,
}

// Endpoint is the base URL and credential pair for one REST surface.
type Endpoint struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// Config is the full startup configuration. It is constructed once by Load
// and treated as immutable afterwards; runtime endpoint rebinding goes
// through the connection manager, not through this struct.
type Config struct {
	// Transports are the transport kinds to serve ("stdio", "sse",
	// "streamable-http").
	Transports []string

	// HTTPHost and HTTPPort are the bind address for the shared listener.
	// Required when any session-ful transport is requested.
	HTTPHost string
	HTTPPort int

	// AuthEnabled gates API-key validation. Host validation is always on.
	AuthEnabled bool
	// APIKey is the pre-shared key expected in the auth header.
	APIKey string
	// AllowedHosts is the Host-header allow-list, normalized to lowercase.
	AllowedHosts []string

	// Kafka broker settings.
	BootstrapServers []string
	SASLUsername     string
	SASLPassword     string
	ClientID         string
	// ConsumerGroup is the base consumer-group id; per-session consumers
	// append the session id to it.
	ConsumerGroup string

	// Endpoints maps a surface name to its base URL and credentials.
	// A surface with no entry fails fast on first use.
	Endpoints map[string]Endpoint
}

// Load reads configuration from the environment via viper. Flags bound to the
// same viper keys by the CLI take precedence over environment variables.
func Load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("transports", []string{"stdio"})
	v.SetDefault("http-host", "")
	v.SetDefault("http-port", 0)
	v.SetDefault("auth-enabled", true)
	v.SetDefault("allowed-hosts", []string{"localhost", "127.0.0.1"})
	v.SetDefault("client-id", "mcp-confluent")
	v.SetDefault("consumer-group", "mcp-confluent")

	cfg := &Config{
		Transports:       splitList(v.GetString("transports"), v.GetStringSlice("transports")),
		HTTPHost:         v.GetString("http-host"),
		HTTPPort:         v.GetInt("http-port"),
		AuthEnabled:      v.GetBool("auth-enabled"),
		APIKey:           v.GetString("api-key"),
		AllowedHosts:     normalizeHosts(splitList(v.GetString("allowed-hosts"), v.GetStringSlice("allowed-hosts"))),
		BootstrapServers: splitList(v.GetString("bootstrap-servers"), v.GetStringSlice("bootstrap-servers")),
		SASLUsername:     v.GetString("sasl-username"),
		SASLPassword:     v.GetString("sasl-password"),
		ClientID:         v.GetString("client-id"),
		ConsumerGroup:    v.GetString("consumer-group"),
		Endpoints:        make(map[string]Endpoint),
	}

	for _, surface := range Surfaces {
		ep := Endpoint{
			BaseURL:   v.GetString(surface + "-url"),
			APIKey:    v.GetString(surface + "-api-key"),
			APISecret: v.GetString(surface + "-api-secret"),
		}
		if ep.BaseURL != "" {
			cfg.Endpoints[surface] = ep
		}
	}

	return cfg, nil
}

// Validate checks the invariants that must hold before the server starts.
// Missing per-surface endpoints are not startup errors; they fail fast on
// first use instead.
func (c *Config) Validate() error {
	if len(c.Transports) == 0 {
		return fmt.Errorf("at least one transport must be enabled")
	}

	sessionful := false
	for _, t := range c.Transports {
		switch t {
		case "stdio":
		case "sse", "streamable-http":
			sessionful = true
		default:
			return fmt.Errorf("unknown transport %q", t)
		}
	}

	if sessionful {
		if c.HTTPHost == "" {
			return fmt.Errorf("http-host is required when serving %v", c.Transports)
		}
		if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
			return fmt.Errorf("http-port is required when serving %v", c.Transports)
		}
		if len(c.AllowedHosts) == 0 {
			return fmt.Errorf("allowed-hosts must not be empty for HTTP transports")
		}
		if c.AuthEnabled && c.APIKey == "" {
			return fmt.Errorf("api-key is required when auth is enabled; set auth-enabled=false to opt out for local development")
		}
	}

	return nil
}

// Endpoint returns the endpoint for a surface, reporting whether one was
// configured.
func (c *Config) Endpoint(surface string) (Endpoint, bool) {
	ep, ok := c.Endpoints[surface]
	return ep, ok
}

// splitList accepts either a native string slice (from flags) or a
// comma-separated string (from an env var). Slice elements may themselves
// contain commas: viper splits env strings on whitespace, so "a, b" arrives as
// ["a,", "b"].
func splitList(raw string, slice []string) []string {
	parts := slice
	if len(parts) == 0 && raw != "" {
		parts = []string{raw}
	}

	var out []string
	for _, s := range parts {
		for _, p := range strings.Split(s, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, strings.ToLower(strings.TrimSpace(h)))
	}
	return out
}
