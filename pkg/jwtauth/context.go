package jwtauth

import (
	"context"
	"net/http"
)

type (
	tokenKey  struct{}
	claimsKey struct{}
)

// WithToken returns ctx carrying the raw token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the raw token stored by the middleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok
}

// WithClaims returns ctx carrying verified claims.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(Claims)
	return claims, ok && claims != nil
}

// Values exposes the request claims as flat external auth values. Pass it to
// tenant.WithValues for the external principal strategy.
func Values(r *http.Request) map[string]any {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return claims
}

// Subject returns the sub claim of the request, for tenant.WithCurrentUser.
func Subject(r *http.Request) any {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok || claims.Subject() == "" {
		return nil
	}
	return claims.Subject()
}
