// Package requestctx carries the authenticated caller through a request.
package requestctx

import "context"

type callerKey struct{}

// Caller is the session owner behind a request.
type Caller struct {
	Email string
	Token string
}

// WithCaller stores caller in ctx.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored in ctx, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
