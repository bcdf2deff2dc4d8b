// Package credentials fronts the identity backend's mutating operations:
// register, password sign-in, sign-out, and provider sign-in URL computation.
//
// Calls never mutate local state directly. Their effects arrive at the
// session store asynchronously through the backend's change stream, so a
// caller that needs to see the result of a sign-out waits for the store, not
// for SignOut's return.
//
// In unconfigured environments every call returns identity.ErrNotConfigured
// immediately and performs no network I/O.
package credentials
