package auth

import "context"

type contextKey int

const ownerContextKey contextKey = iota

// ContextWithOwner stores the authenticated owner identifier in the context.
// Set by the auth middleware, read by every handler.
func ContextWithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// OwnerFromContext returns the owner set by the auth middleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerContextKey).(string)
	return owner, ok && owner != ""
}
