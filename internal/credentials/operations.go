// ABOUTME: Facade over identity backend credential operations
// ABOUTME: Every call is config-guarded and performs zero I/O when unconfigured

package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/authbridge/internal/config"
	"github.com/2389/authbridge/internal/identity"
)

// CallbackPath is appended to the configured public origin to form the OAuth
// redirect target.
const CallbackPath = "/auth/callback"

// Operations bundles the credential mutations a caller can request. It holds
// no session state of its own: sign-in and sign-out take effect in the
// session store only when the backend's notification arrives.
type Operations struct {
	cfg     *config.Config
	backend identity.Backend
	logger  *slog.Logger
}

// NewOperations creates the facade. Pass nil logger for the default.
func NewOperations(cfg *config.Config, backend identity.Backend, logger *slog.Logger) *Operations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operations{
		cfg:     cfg,
		backend: backend,
		logger:  logger.With("component", "credentials"),
	}
}

// guard short-circuits every operation when no backend is configured.
func (o *Operations) guard() error {
	if !o.cfg.IsConfigured() {
		return identity.ErrNotConfigured
	}
	return nil
}

// Register creates a new identity. displayName, when non-empty, travels in
// the backend's profile-metadata field. A nil session with nil error means
// the backend requires confirmation before issuing tokens.
func (o *Operations) Register(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	if err := o.guard(); err != nil {
		return nil, err
	}

	sess, err := o.backend.Register(ctx, email, password, displayName)
	if err != nil {
		o.logger.Warn("registration failed", "email", email, "error", err)
		return nil, err
	}
	return sess, nil
}

// SignIn performs a password-grant exchange and returns the issued session.
// Credential rejections surface as identity.ErrValidation, transport
// failures as identity.ErrNetwork.
func (o *Operations) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if err := o.guard(); err != nil {
		return nil, err
	}

	sess, err := o.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		o.logger.Warn("sign-in failed", "email", email, "error", err)
		return nil, err
	}
	return sess, nil
}

// SignOut requests revocation of the session behind accessToken. A nil
// return means the backend accepted the revocation, not that local state is
// already cleared: the session store clears when it observes the resulting
// notification.
func (o *Operations) SignOut(ctx context.Context, accessToken string) error {
	if err := o.guard(); err != nil {
		return err
	}

	if err := o.backend.RevokeSession(ctx, accessToken); err != nil {
		o.logger.Warn("sign-out failed", "error", err)
		return err
	}
	return nil
}

// Verify checks an access token against the backend and returns the
// principal it belongs to. Always a remote round trip; like every other
// operation it short-circuits when no backend is configured.
func (o *Operations) Verify(ctx context.Context, accessToken string) (*identity.Principal, error) {
	if err := o.guard(); err != nil {
		return nil, err
	}

	principal, err := o.backend.VerifyToken(ctx, accessToken)
	if err != nil {
		o.logger.Warn("token verification failed", "error", err)
		return nil, err
	}
	return principal, nil
}

// AuthorizationURL computes the provider consent URL for an OAuth sign-in,
// scoped to the configured public origin plus CallbackPath. Pure: the caller
// performs the navigation, keeping this core testable without one.
func (o *Operations) AuthorizationURL(provider string) (string, error) {
	if err := o.guard(); err != nil {
		return "", err
	}
	if provider == "" {
		return "", fmt.Errorf("%w: empty provider", identity.ErrProtocol)
	}

	redirectTo := ""
	if origin := o.cfg.Server.PublicOrigin; origin != "" {
		redirectTo = strings.TrimRight(origin, "/") + CallbackPath
	}
	return o.backend.AuthorizeURL(provider, redirectTo)
}
