// Package auth propagates the verified principal through request contexts.
//
// The bridge's bearer guard verifies tokens against the identity backend and
// attaches the resulting principal with WithPrincipal; downstream handlers
// read it back with FromContext or MustFromContext. Nothing here verifies
// tokens itself — verification is always a backend round trip.
package auth
