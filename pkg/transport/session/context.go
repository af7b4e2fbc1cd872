package session

import "context"

type contextKey struct{}

// WithID returns a context carrying the session id, for tool handlers that
// scope backend state (e.g. consumer groups) per session.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session id carried by the context, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
