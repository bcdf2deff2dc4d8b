// ABOUTME: Request-context propagation of the verified principal
// ABOUTME: Populated by the bearer guard and read back by protected handlers

package auth

import (
	"context"

	"github.com/2389/authbridge/internal/identity"
)

// principalContextKey is the key type for storing a principal in context.Context.
type principalContextKey struct{}

// WithPrincipal returns a new context with the verified principal attached.
func WithPrincipal(ctx context.Context, p *identity.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext retrieves the verified principal, returning nil if the request
// did not pass the bearer guard.
func FromContext(ctx context.Context) *identity.Principal {
	p, ok := ctx.Value(principalContextKey{}).(*identity.Principal)
	if !ok {
		return nil
	}
	return p
}

// MustFromContext retrieves the verified principal, panicking if not present.
// Handlers mounted behind the bearer guard use this: a missing principal
// there is a wiring defect, not a request condition.
func MustFromContext(ctx context.Context) *identity.Principal {
	p := FromContext(ctx)
	if p == nil {
		panic("auth: principal not found in context")
	}
	return p
}
