package confluent

import "errors"

// Configuration errors surfaced on first use of a backend surface. These are
// never silently defaulted.
var (
	// ErrBrokerNotConfigured means no bootstrap servers were supplied.
	ErrBrokerNotConfigured = errors.New("kafka broker not configured: bootstrap servers are required")

	// ErrSurfaceNotConfigured means a REST surface has no base URL.
	ErrSurfaceNotConfigured = errors.New("surface not configured: base URL is required")
)
