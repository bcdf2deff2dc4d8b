// ABOUTME: Bearer-token guard middleware for protected endpoints
// ABOUTME: Extracts the Authorization header and verifies it against the backend per request

package bridge

import (
	"net/http"
	"strings"

	"github.com/2389/authbridge/internal/auth"
)

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "Missing Authorization header"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
		return "", "Missing token"
	}
	return token, ""
}

// bearerGuard verifies the request's bearer token against the identity
// backend before invoking next with the verified principal in context.
// Verification is remote on every call: there is no local validity cache, so
// each request costs one backend round trip.
func (b *Bridge) bearerGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
		if errMsg != "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": errMsg})
			return
		}

		principal, err := b.backend.VerifyToken(r.Context(), token)
		if err != nil || principal == nil {
			// Any backend failure, transport included, reads as an
			// unauthorized request to the caller. No detail leaks.
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid or expired token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// recoverer coerces unexpected handler panics into a structured 500 instead
// of a raw stack trace reaching the caller.
func (b *Bridge) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				b.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
