// ABOUTME: Tests for the reactive session store
// ABOUTME: Covers init ordering, loading flag, observer fan-out, and teardown guarantees

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/authbridge/internal/config"
	"github.com/2389/authbridge/internal/identity"
)

// fakeBackend drives the store from the test. The snapshot call blocks until
// the test releases it, which makes snapshot-vs-change races deterministic.
type fakeBackend struct {
	changes  chan identity.Change
	snapshot chan snapResult
	calls    atomic.Int64
}

type snapResult struct {
	session *identity.Session
	err     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		changes:  make(chan identity.Change, 16),
		snapshot: make(chan snapResult, 1),
	}
}

func (f *fakeBackend) CurrentSession(ctx context.Context) (*identity.Session, error) {
	f.calls.Add(1)
	select {
	case res := <-f.snapshot:
		return res.session, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeBackend) Subscribe(ctx context.Context) (<-chan identity.Change, error) {
	f.calls.Add(1)
	return f.changes, nil
}

func (f *fakeBackend) Register(ctx context.Context, email, password, displayName string) (*identity.Session, error) {
	f.calls.Add(1)
	return nil, nil
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	f.calls.Add(1)
	return nil, nil
}

func (f *fakeBackend) RevokeSession(ctx context.Context, accessToken string) error {
	f.calls.Add(1)
	return nil
}

func (f *fakeBackend) AuthorizeURL(provider, redirectTo string) (string, error) {
	f.calls.Add(1)
	return "", nil
}

func (f *fakeBackend) VerifyToken(ctx context.Context, token string) (*identity.Principal, error) {
	f.calls.Add(1)
	return nil, nil
}

func sessionFor(userID string) *identity.Session {
	return &identity.Session{
		AccessToken:  "at-" + userID,
		RefreshToken: "rt-" + userID,
		ExpiresAt:    time.Now().Add(time.Hour),
		Principal:    &identity.Principal{ID: userID, Email: userID + "@example.com"},
	}
}

func configured() *config.Config {
	return &config.Config{Backend: config.BackendConfig{
		URL: "https://identity.example.com",
		Key: "key",
	}}
}

// testContext mirrors t.Context (Go 1.24+): a context canceled at test end.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func waitState(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case st, ok := <-ch:
		require.True(t, ok, "observer channel closed while waiting for a state")
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for state")
		return State{}
	}
}

func TestStore_UnconfiguredSettlesSynchronouslyWithoutIO(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(&config.Config{}, backend, nil)
	defer s.Close()

	st := s.Current()
	assert.Nil(t, st.Principal)
	assert.Nil(t, st.Session)
	assert.False(t, st.Loading)
	assert.Equal(t, int64(0), backend.calls.Load(), "no backend call in an unconfigured environment")
}

func TestStore_LoadingUntilSnapshotResolves(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	assert.True(t, s.Current().Loading)

	ch, _ := s.Watch(testContext(t))
	backend.snapshot <- snapResult{session: sessionFor("user-1")}

	st := waitState(t, ch)
	assert.False(t, st.Loading)
	require.NotNil(t, st.Principal)
	assert.Equal(t, "user-1", st.Principal.ID)
	assert.Equal(t, "at-user-1", st.Session.AccessToken)
}

func TestStore_SnapshotFailureStillResolvesLoading(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, _ := s.Watch(testContext(t))
	backend.snapshot <- snapResult{err: identity.ErrNetwork}

	st := waitState(t, ch)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Principal)
	assert.Nil(t, st.Session)
}

func TestStore_ChangeBeforeSnapshotWinsOverLateSnapshot(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, _ := s.Watch(testContext(t))

	// A notification lands while the snapshot request is still in flight.
	backend.changes <- identity.Change{Event: identity.EventSignedIn, Session: sessionFor("user-2")}

	st := waitState(t, ch)
	require.NotNil(t, st.Principal)
	assert.Equal(t, "user-2", st.Principal.ID)
	assert.False(t, st.Loading, "first change resolves loading")

	// The stale snapshot resolves afterwards and must be discarded.
	backend.snapshot <- snapResult{session: sessionFor("stale-user")}

	assert.Eventually(t, func() bool {
		return s.Current().Principal != nil && s.Current().Principal.ID == "user-2"
	}, 2*time.Second, 10*time.Millisecond, "late snapshot must not overwrite applied change")

	select {
	case st := <-ch:
		t.Fatalf("observer saw unexpected state from stale snapshot: %+v", st)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStore_NotificationsApplyInOrderLastWriteWins(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, _ := s.Watch(testContext(t))
	backend.snapshot <- snapResult{}
	waitState(t, ch) // signed-out snapshot

	backend.changes <- identity.Change{Event: identity.EventSignedIn, Session: sessionFor("user-1")}
	backend.changes <- identity.Change{Event: identity.EventTokenRefreshed, Session: sessionFor("user-1b")}
	backend.changes <- identity.Change{Event: identity.EventSignedOut}

	first := waitState(t, ch)
	second := waitState(t, ch)
	third := waitState(t, ch)

	require.NotNil(t, first.Principal)
	assert.Equal(t, "user-1", first.Principal.ID)
	require.NotNil(t, second.Principal)
	assert.Equal(t, "user-1b", second.Principal.ID)
	assert.Nil(t, third.Principal)
	assert.Nil(t, third.Session)

	st := s.Current()
	assert.Nil(t, st.Principal, "last write wins")
}

func TestStore_SignOutNotificationClearsBothFields(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, _ := s.Watch(testContext(t))
	backend.snapshot <- snapResult{session: sessionFor("user-1")}
	waitState(t, ch)

	backend.changes <- identity.Change{Event: identity.EventSignedOut}
	st := waitState(t, ch)

	assert.Nil(t, st.Principal)
	assert.Nil(t, st.Session)
	assert.False(t, st.Loading)
}

func TestStore_SessionWithoutPrincipalCountsAsSignedOut(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, _ := s.Watch(testContext(t))
	backend.snapshot <- snapResult{session: &identity.Session{AccessToken: "orphan"}}

	st := waitState(t, ch)
	assert.Nil(t, st.Principal)
	assert.Nil(t, st.Session, "principal and session stay paired")
}

func TestStore_LoadingNeverReturnsTrue(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, _ := s.Watch(testContext(t))
	backend.snapshot <- snapResult{}
	waitState(t, ch)

	for i := 0; i < 5; i++ {
		backend.changes <- identity.Change{Event: identity.EventSignedIn, Session: sessionFor("user-1")}
		st := waitState(t, ch)
		assert.False(t, st.Loading)
		backend.changes <- identity.Change{Event: identity.EventSignedOut}
		st = waitState(t, ch)
		assert.False(t, st.Loading)
	}
}

func TestStore_UnwatchStopsDelivery(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	ch, id := s.Watch(context.Background())
	backend.snapshot <- snapResult{}
	waitState(t, ch)

	s.Unwatch(id)

	_, ok := <-ch
	assert.False(t, ok, "channel closes on unwatch")
}

func TestStore_CloseStopsAllDelivery(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)

	ch, _ := s.Watch(context.Background())
	backend.snapshot <- snapResult{session: sessionFor("user-1")}
	waitState(t, ch)

	s.Close()

	// Notifications after Close must never reach the store's state or
	// any observer.
	select {
	case backend.changes <- identity.Change{Event: identity.EventSignedOut}:
	default:
	}

	for {
		st, ok := <-ch
		if !ok {
			break
		}
		require.NotNil(t, st.Principal, "no signed-out state may be observed after Close")
	}

	st := s.Current()
	require.NotNil(t, st.Principal, "state frozen at teardown")
	assert.Equal(t, "user-1", st.Principal.ID)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)

	backend.snapshot <- snapResult{}
	s.Close()
	s.Close()
}

func TestStore_ConcurrentWatchUnwatchDuringFanOut(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(configured(), backend, nil)
	defer s.Close()

	backend.snapshot <- snapResult{}

	// Observers churn while notifications stream in. A send on a channel
	// an unwatch just closed would panic the apply goroutine.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				ctx, cancel := context.WithCancel(context.Background())
				ch, id := s.Watch(ctx)
				cancel()
				s.Unwatch(id)
				for range ch {
					// Drain states that landed before the unwatch.
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		backend.changes <- identity.Change{Event: identity.EventSignedIn, Session: sessionFor("user-1")}
		backend.changes <- identity.Change{Event: identity.EventSignedOut}
	}

	close(done)
	wg.Wait()

	assert.Eventually(t, func() bool {
		return s.Current().Principal == nil
	}, 2*time.Second, 10*time.Millisecond, "last write wins after churn")
}

func TestStore_WatchAfterCloseYieldsClosedChannel(t *testing.T) {
	backend := newFakeBackend()
	s := NewStore(&config.Config{}, backend, nil)
	s.Close()

	ch, _ := s.Watch(context.Background())
	_, ok := <-ch
	assert.False(t, ok)
}
