// ABOUTME: Error taxonomy for identity backend interactions
// ABOUTME: Sentinel errors wrapped with %w so call sites branch via errors.Is

package identity

import "errors"

// Taxonomy errors. Callers branch with errors.Is; backend-reported detail is
// carried by wrapping, never by parsing message strings.
var (
	// ErrNotConfigured means no identity backend is configured. Operations
	// return it immediately without any network I/O.
	ErrNotConfigured = errors.New("identity backend not configured")

	// ErrValidation means the backend rejected the credentials or input.
	// The backend's own message is preserved in the wrapping error.
	ErrValidation = errors.New("backend rejected input")

	// ErrNetwork means the transport to the backend failed.
	ErrNetwork = errors.New("backend unreachable")

	// ErrUnauthorized means a token failed remote verification.
	ErrUnauthorized = errors.New("token not authorized")

	// ErrProtocol means a request or response was malformed.
	ErrProtocol = errors.New("protocol error")
)

// IsValidation reports whether err is a backend input rejection.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

// IsUnauthorized reports whether err is a verification failure.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
