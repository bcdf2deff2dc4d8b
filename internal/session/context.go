// ABOUTME: Context propagation for the session store handle
// ABOUTME: MustFromContext fails fast on wiring defects instead of returning zero values

package session

import "context"

// storeContextKey is the key type for storing a *Store in context.Context.
type storeContextKey struct{}

// WithStore returns a new context carrying the store handle. Owning scopes
// attach the store once at startup; consumers retrieve it instead of reaching
// for a global.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext retrieves the store from the context, returning nil if not present.
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(storeContextKey{}).(*Store)
	if !ok {
		return nil
	}
	return s
}

// MustFromContext retrieves the store from the context, panicking if not
// present. A missing store is a startup-time wiring defect, not a runtime
// condition, so this fails hard rather than degrading.
func MustFromContext(ctx context.Context) *Store {
	s := FromContext(ctx)
	if s == nil {
		panic("session: store not found in context")
	}
	return s
}
