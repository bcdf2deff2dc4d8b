// ABOUTME: HTTP handlers bridging client-held tokens into cookies and gating protected data
// ABOUTME: Fixed JSON bodies on every branch; no internal detail ever leaks

package bridge

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2389/authbridge/internal/auth"
)

// Cookie names for the issued token pair. A server-rendering layer reads
// these without access to client-side storage.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// cookieMaxAge is seven days, in seconds.
const cookieMaxAge = 604800

// SetSessionRequest is the JSON request body for POST /auth/set-session.
type SetSessionRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// handleSetSession converts a token pair into HTTP session cookies. It is
// stateless and idempotent: repeated calls overwrite the cookie values.
func (b *Bridge) handleSetSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "Method not allowed"})
		return
	}

	var req SetSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" || req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing tokens"})
		return
	}

	setTokenCookie(w, AccessTokenCookie, req.AccessToken)
	setTokenCookie(w, RefreshTokenCookie, req.RefreshToken)

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func setTokenCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
		HttpOnly: true,
	})
}

// handleProtected responds with the principal the bearer guard verified.
// Mounted behind bearerGuard, so a missing principal is a wiring defect.
func (b *Bridge) handleProtected(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": principal})
}

// handleHealth reports process liveness.
func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleReady reports whether an identity backend is configured. A degraded
// process still serves traffic; its guarded endpoints just reject everything.
func (b *Bridge) handleReady(w http.ResponseWriter, r *http.Request) {
	if !b.cfg.IsConfigured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("writing response body", "error", err)
	}
}
