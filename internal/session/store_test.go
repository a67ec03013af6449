package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refrainhq/refrain-cli/internal/identity"
)

// fakeProvider is a controllable identity.Provider. The restore can be
// held open with the release channel to exercise the pending state.
type fakeProvider struct {
	mu          sync.Mutex
	restored    *identity.Session
	restoreErr  error
	release     chan struct{}
	subscribers []func(*identity.Session)
	unsubs      int

	signInSession *identity.Session
	signInErr     error
	signOutErr    error
	setSession    *identity.Session
	setSessionErr error
}

func (p *fakeProvider) GetSession(ctx context.Context) (*identity.Session, error) {
	if p.release != nil {
		<-p.release
	}
	return p.restored, p.restoreErr
}

func (p *fakeProvider) OnSessionChange(fn func(*identity.Session)) identity.Unsubscribe {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.unsubs++
		p.subscribers = nil
	}
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	return p.signInSession, p.signInErr
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	return p.signOutErr
}

func (p *fakeProvider) SetSession(ctx context.Context, pair identity.TokenPair) (*identity.Session, error) {
	return p.setSession, p.setSessionErr
}

func (p *fakeProvider) push(sess *identity.Session) {
	p.mu.Lock()
	fns := append([](func(*identity.Session))(nil), p.subscribers...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn(sess)
	}
}

func sessionFor(userID string) *identity.Session {
	return &identity.Session{
		UserID:       userID,
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func TestStore_Bootstrap(t *testing.T) {
	t.Run("pending until restore resolves", func(t *testing.T) {
		provider := &fakeProvider{
			restored: sessionFor("u1"),
			release:  make(chan struct{}),
		}

		store := New(provider)
		defer store.Close()

		assert.Equal(t, BootstrapPending, store.Bootstrap())
		_, ok := store.Current()
		assert.False(t, ok)

		close(provider.release)

		require.Eventually(t, func() bool {
			return store.Bootstrap() == BootstrapSignedIn
		}, time.Second, 5*time.Millisecond)

		sess, ok := store.Current()
		require.True(t, ok)
		assert.Equal(t, "u1", sess.UserID)
	})

	t.Run("resolves absent when nothing persisted", func(t *testing.T) {
		store := New(&fakeProvider{})
		defer store.Close()

		require.Eventually(t, func() bool {
			return store.Bootstrap() == BootstrapSignedOut
		}, time.Second, 5*time.Millisecond)

		_, ok := store.Current()
		assert.False(t, ok)
	})

	t.Run("restore error resolves absent", func(t *testing.T) {
		store := New(&fakeProvider{restoreErr: errors.New("provider down")})
		defer store.Close()

		require.Eventually(t, func() bool {
			return store.Bootstrap() == BootstrapSignedOut
		}, time.Second, 5*time.Millisecond)
	})
}

func TestStore_LastWriteWins(t *testing.T) {
	// A change notification delivered before the restore resolves must not
	// be clobbered by the restore result.
	provider := &fakeProvider{
		restored: sessionFor("from-restore"),
		release:  make(chan struct{}),
	}

	store := New(provider)
	defer store.Close()

	provider.push(sessionFor("from-notification"))

	sess, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, "from-notification", sess.UserID)
	assert.Equal(t, BootstrapSignedIn, store.Bootstrap())

	close(provider.release)

	// The restore result is discarded.
	require.Never(t, func() bool {
		sess, _ := store.Current()
		return sess.UserID == "from-restore"
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestStore_Notifications(t *testing.T) {
	t.Run("overwrite the current session", func(t *testing.T) {
		provider := &fakeProvider{restored: sessionFor("u1")}
		store := New(provider)
		defer store.Close()

		require.Eventually(t, func() bool {
			return store.Bootstrap() != BootstrapPending
		}, time.Second, 5*time.Millisecond)

		provider.push(sessionFor("u2"))

		sess, ok := store.Current()
		require.True(t, ok)
		assert.Equal(t, "u2", sess.UserID)
	})

	t.Run("nil notification signs out", func(t *testing.T) {
		provider := &fakeProvider{restored: sessionFor("u1")}
		store := New(provider)
		defer store.Close()

		require.Eventually(t, func() bool {
			return store.Bootstrap() == BootstrapSignedIn
		}, time.Second, 5*time.Millisecond)

		provider.push(nil)

		_, ok := store.Current()
		assert.False(t, ok)
		assert.Equal(t, BootstrapSignedOut, store.Bootstrap())
	})

	t.Run("ignored after Close", func(t *testing.T) {
		provider := &fakeProvider{}
		store := New(provider)

		require.Eventually(t, func() bool {
			return store.Bootstrap() != BootstrapPending
		}, time.Second, 5*time.Millisecond)

		store.Close()
		assert.Equal(t, 1, provider.unsubs)

		provider.push(sessionFor("late"))
		_, ok := store.Current()
		assert.False(t, ok)
	})
}

func TestStore_SignIn(t *testing.T) {
	t.Run("installs the session", func(t *testing.T) {
		provider := &fakeProvider{signInSession: sessionFor("u1")}
		store := New(provider)
		defer store.Close()

		sess, err := store.SignIn(context.Background(), "me@example.com", "secret")
		require.NoError(t, err)
		assert.Equal(t, "u1", sess.UserID)

		current, ok := store.Current()
		require.True(t, ok)
		assert.Equal(t, "u1", current.UserID)
	})

	t.Run("propagates auth errors", func(t *testing.T) {
		provider := &fakeProvider{signInErr: identity.ErrAuth}
		store := New(provider)
		defer store.Close()

		_, err := store.SignIn(context.Background(), "me@example.com", "wrong")
		require.ErrorIs(t, err, identity.ErrAuth)

		_, ok := store.Current()
		assert.False(t, ok)
	})
}

func TestStore_SignOut(t *testing.T) {
	t.Run("clears local state even when revoke fails", func(t *testing.T) {
		provider := &fakeProvider{
			restored:   sessionFor("u1"),
			signOutErr: errors.New("revoke unavailable"),
		}
		store := New(provider)
		defer store.Close()

		require.Eventually(t, func() bool {
			return store.Bootstrap() == BootstrapSignedIn
		}, time.Second, 5*time.Millisecond)

		err := store.SignOut(context.Background())
		require.Error(t, err)

		_, ok := store.Current()
		assert.False(t, ok)
		assert.Equal(t, BootstrapSignedOut, store.Bootstrap())
	})
}

func TestStore_ApplyExternalSession(t *testing.T) {
	t.Run("installs the minted session", func(t *testing.T) {
		provider := &fakeProvider{setSession: sessionFor("handoff-user")}
		store := New(provider)
		defer store.Close()

		pair := identity.TokenPair{AccessToken: "a", RefreshToken: "b"}
		sess, err := store.ApplyExternalSession(context.Background(), pair)
		require.NoError(t, err)
		assert.Equal(t, "handoff-user", sess.UserID)

		current, ok := store.Current()
		require.True(t, ok)
		assert.Equal(t, "handoff-user", current.UserID)
		assert.Equal(t, BootstrapSignedIn, store.Bootstrap())
	})

	t.Run("rejected pair leaves state untouched", func(t *testing.T) {
		provider := &fakeProvider{setSessionErr: identity.ErrAuth}
		store := New(provider)
		defer store.Close()

		require.Eventually(t, func() bool {
			return store.Bootstrap() == BootstrapSignedOut
		}, time.Second, 5*time.Millisecond)

		_, err := store.ApplyExternalSession(context.Background(), identity.TokenPair{AccessToken: "a", RefreshToken: "b"})
		require.ErrorIs(t, err, identity.ErrAuth)

		_, ok := store.Current()
		assert.False(t, ok)
	})
}
