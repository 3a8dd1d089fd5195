package tasktrack

import (
	"context"

	"github.com/goliatone/go-router"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentityContext sets the Identity in the given context. Only fully
// resolved identities are ever installed; callers that fail resolution
// must leave the context untouched.
func WithIdentityContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// ClearIdentityContext removes any installed Identity. Contexts without
// one come back unchanged.
func ClearIdentityContext(ctx context.Context) context.Context {
	if _, ok := IdentityFromContext(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, identityCtxKey, nil)
}

// IdentityFromContext finds the identity in the standard context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// IdentityFromRouterContext extracts the Identity from the router context,
// checking router locals first and falling back to the standard context.
func IdentityFromRouterContext(ctx router.Context, key string) (Identity, bool) {
	if key == "" {
		key = "identity"
	}
	if raw := ctx.Locals(key); raw != nil {
		if identity, ok := raw.(Identity); ok {
			return identity, true
		}
	}
	return IdentityFromContext(ctx.Context())
}
