package auth

import "context"

// identityKey is the context key for the resolved Identity.
type identityKey struct{}

// WithIdentity returns a copy of ctx carrying ident.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFromContext returns the Identity attached by the auth gate, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	ident, _ := ctx.Value(identityKey{}).(*Identity) //nolint:errcheck // nil on missing or wrong type
	return ident
}
