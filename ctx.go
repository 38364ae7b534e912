package auth

import (
	"context"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the AuthenticatedIdentity in the given context
func WithIdentity(ctx context.Context, identity *AuthenticatedIdentity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context.
func IdentityFromContext(ctx context.Context) (*AuthenticatedIdentity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(*AuthenticatedIdentity)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// PrincipalFromContext returns the principal of an authenticated identity.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || !identity.IsAuthenticated() {
		return Principal{}, false
	}
	return identity.Principal(), true
}
