// Package identity defines the capability surface of the remote identity
// backend and provides the one real HTTP/JSON implementation of it.
//
// # Capability Set
//
// The backend owns credentials, tokens and OAuth flows end to end. This
// package exposes exactly what the rest of the core needs:
//
//   - CurrentSession: snapshot of the signed-in session, if any
//   - Subscribe: ordered change-notification stream
//   - Register, SignInWithPassword, RevokeSession: credential mutations
//   - AuthorizeURL: pure consent-URL construction for provider sign-in
//   - VerifyToken: per-request remote bearer verification
//
// Nothing here caches validity, retries, or backs off: every call is one
// independent round trip, and any failure surfaces immediately as one of the
// taxonomy errors (ErrNotConfigured, ErrValidation, ErrNetwork,
// ErrUnauthorized, ErrProtocol).
//
// # Fakes
//
// Backend is an interface so the session store and credential operations test
// against channel-backed fakes instead of a live service.
package identity
