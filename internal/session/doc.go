// Package session keeps a reactive, ordered mirror of the identity backend's
// authentication state.
//
// # Synchronization Protocol
//
// A configured store subscribes to the backend's change stream before
// requesting the current snapshot, so nothing published after creation is
// lost. All writes funnel through one apply goroutine: notifications are
// applied strictly in delivery order, last write wins, and a change that
// lands before the snapshot resolves makes the late snapshot moot.
//
// The Loading flag starts true and flips to false exactly once, on the first
// resolution, whichever path delivers it.
//
// # Unconfigured Environments
//
// Without a backend the store settles synchronously to signed-out and never
// performs I/O.
//
// # Teardown
//
// Close cancels the subscription and waits for the apply goroutine before
// returning, which is what guarantees no observer sees a state afterward.
package session
