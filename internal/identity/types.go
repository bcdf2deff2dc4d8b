// ABOUTME: Core types mirroring records owned by the remote identity backend
// ABOUTME: Principals and sessions are produced and retired by the backend only

package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated identity record as issued by the backend.
// Immutable once issued; this core only mirrors it.
type Principal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// Session is a token pair plus expiry bound to a Principal. It exists only
// while the principal is authenticated.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Principal    *Principal `json:"principal"`
}

// Change event names as delivered by the backend's notification stream.
const (
	EventSignedIn       = "signed_in"
	EventSignedOut      = "signed_out"
	EventTokenRefreshed = "token_refreshed"
	EventInitial        = "initial"
)

// Change is one notification from the backend's change stream. A nil Session
// means the principal is signed out.
type Change struct {
	Event   string   `json:"event"`
	Session *Session `json:"session"`
}

// Backend is the capability set of the remote identity service. This core
// never reimplements any of it; the interface exists so the session store and
// credential operations can be tested against a fake.
type Backend interface {
	// CurrentSession returns the backend's current session snapshot.
	// A (nil, nil) return means no principal is signed in.
	CurrentSession(ctx context.Context) (*Session, error)

	// Subscribe opens the change-notification stream. The returned channel
	// delivers changes in backend order and is closed when ctx is cancelled
	// or the stream ends. No notification delivered after Subscribe returns
	// is lost while the channel is drained.
	Subscribe(ctx context.Context) (<-chan Change, error)

	// Register creates a new identity. displayName, when non-empty, is mapped
	// into the backend's profile-metadata field.
	Register(ctx context.Context, email, password, displayName string) (*Session, error)

	// SignInWithPassword performs a password-grant exchange.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// RevokeSession asks the backend to revoke the session behind accessToken.
	// State clearing happens asynchronously via the change stream.
	RevokeSession(ctx context.Context, accessToken string) error

	// AuthorizeURL constructs the provider consent URL for an OAuth redirect.
	// Pure; the caller performs the navigation.
	AuthorizeURL(provider, redirectTo string) (string, error)

	// VerifyToken verifies a bearer token remotely and returns its principal.
	VerifyToken(ctx context.Context, token string) (*Principal, error)
}

// tokenExpiry extracts the exp claim from an access token without verifying
// its signature. The backend is the authority on validity; the decoded expiry
// is best-effort metadata for callers that want to display or sort sessions.
func tokenExpiry(accessToken string) time.Time {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
