package logger

import "context"

// contextKey keeps the request-id value private to this package.
type contextKey struct{}

var requestIDKey = contextKey{}

// WithRequestID stores a request id in the context so handlers and services
// emit correlatable log lines for the same call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id carried by ctx, or "" when none is set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
