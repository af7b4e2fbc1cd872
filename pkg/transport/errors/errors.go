// Package errors provides error types and constants for the transport
// package.
package errors

import "errors"

// Common transport errors
var (
	ErrUnsupportedTransport = errors.New("unsupported transport type")
	ErrAlreadyStarted       = errors.New("orchestrator already started")
	ErrListenerNotConfigured = errors.New(
		"host and port are required when a session-ful transport is requested")
	ErrUnknownSession = errors.New("unknown session")
	ErrSessionExists  = errors.New("session already exists")
	ErrSessionClosed  = errors.New("session closed")
	ErrStreamFull     = errors.New("session stream is full")
)
