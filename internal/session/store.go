// ABOUTME: Reactive holder of the current principal/session pair
// ABOUTME: Subscribes to backend change notifications and fans state out to observers

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/authbridge/internal/config"
	"github.com/2389/authbridge/internal/identity"
)

// observerBufferSize is the channel buffer for each observer. Matches the
// identity change-stream buffer (64 events).
const observerBufferSize = 64

// State is the store's view of "is this principal authenticated".
// Principal and Session are either both present or both absent. Loading is
// true only before the first resolution (snapshot or first change) lands; it
// transitions to false exactly once for the lifetime of the store.
type State struct {
	Principal *identity.Principal
	Session   *identity.Session
	Loading   bool
}

// Authenticated reports whether a principal is currently signed in.
func (s State) Authenticated() bool {
	return s.Principal != nil
}

// Store mirrors the backend's session state. All writes happen on a single
// apply goroutine in arrival order (last write wins, no coalescing); reads go
// through a mutex-guarded snapshot and are safe from any goroutine.
type Store struct {
	mu        sync.RWMutex
	state     State
	observers map[string]chan State
	closed    bool

	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

// NewStore creates a store and starts its synchronization with the backend.
//
// When cfg reports unconfigured, the store settles synchronously to a
// signed-out, non-loading state and never touches the backend. Otherwise it
// subscribes to the change stream before requesting the snapshot, so no
// notification published after creation can be lost.
func NewStore(cfg *config.Config, backend identity.Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		observers: make(map[string]chan State),
		done:      make(chan struct{}),
		logger:    logger.With("component", "session"),
	}

	if !cfg.IsConfigured() {
		s.state = State{}
		close(s.done)
		return s
	}

	s.state = State{Loading: true}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// Subscribe first. A change published between here and the snapshot
	// request sits in the channel and is applied in order.
	changes, err := backend.Subscribe(ctx)
	if err != nil {
		s.logger.Warn("change subscription failed, relying on snapshot only", "error", err)
		changes = nil
	}

	go s.run(ctx, backend, changes)
	return s
}

// run is the single apply goroutine. It owns every state write, which is what
// makes "arrival order, last write wins" hold without further locking.
func (s *Store) run(ctx context.Context, backend identity.Backend, changes <-chan identity.Change) {
	defer close(s.done)

	type snapshot struct {
		session *identity.Session
		err     error
	}
	snapCh := make(chan snapshot, 1)
	go func() {
		sess, err := backend.CurrentSession(ctx)
		snapCh <- snapshot{session: sess, err: err}
	}()

	resolved := false

	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			resolved = true
			s.apply(change.Session)

		case snap := <-snapCh:
			snapCh = nil
			if resolved {
				// A change already landed; the stream is newer by
				// definition, so the late snapshot is discarded.
				continue
			}
			if snap.err != nil {
				s.logger.Warn("session snapshot failed", "error", snap.err)
				s.apply(nil)
				continue
			}
			s.apply(snap.session)
		}
	}
}

// apply writes the next state and fans it out to observers in apply order.
// A session without a principal counts as signed out, preserving the
// principal-absent ⟺ session-absent pairing.
func (s *Store) apply(sess *identity.Session) {
	next := State{}
	if sess != nil && sess.Principal != nil {
		next = State{Principal: sess.Principal, Session: sess}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.state = next

	// Fan-out stays under the lock so Unwatch cannot close a channel
	// mid-send. The select never blocks, so the hold is brief.
	for _, ch := range s.observers {
		select {
		case ch <- next:
		default:
			// Observer channel full — drop this state for that observer.
			s.logger.Debug("dropped state for slow observer")
		}
	}
}

// Current returns the state as of the most recent apply. Safe at any time,
// including after Close.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Watch registers an observer of state changes. States arrive in the same
// order the store applies them. Returns the channel and an observer ID for
// Unwatch; the registration is also cleaned up when ctx is cancelled.
func (s *Store) Watch(ctx context.Context) (<-chan State, string) {
	id := uuid.New().String()
	ch := make(chan State, observerBufferSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, id
	}
	s.observers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Unwatch(id)
	}()

	return ch, id
}

// Unwatch removes an observer and closes its channel.
func (s *Store) Unwatch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.observers[id]
	if !ok {
		return
	}
	delete(s.observers, id)
	close(ch)
}

// Close tears the store down deterministically: the backend subscription is
// cancelled, the apply goroutine is waited out, and every observer channel is
// closed. After Close returns no observer sees another state. Safe to call
// more than once.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.observers {
		delete(s.observers, id)
		close(ch)
	}
}
