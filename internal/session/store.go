// Package session owns the single source of truth for who is signed in.
// The store is the only writer of the current session; everything else
// reads it or proposes candidates through ApplyExternalSession.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refrainhq/refrain-cli/internal/identity"
)

// BootstrapState describes whether the store has completed its initial
// restore of persisted session state.
type BootstrapState int

const (
	// BootstrapPending means the initial restore has not resolved yet.
	BootstrapPending BootstrapState = iota
	// BootstrapSignedIn means the restore resolved with a session present.
	BootstrapSignedIn
	// BootstrapSignedOut means the restore resolved with no session.
	BootstrapSignedOut
)

func (s BootstrapState) String() string {
	switch s {
	case BootstrapPending:
		return "pending"
	case BootstrapSignedIn:
		return "signed-in"
	case BootstrapSignedOut:
		return "signed-out"
	default:
		return "unknown"
	}
}

// Store owns the current session. On construction it registers exactly one
// provider change subscription and issues exactly one asynchronous restore
// of persisted state; a change notification delivered before the restore
// resolves always wins over the restore result.
type Store struct {
	provider identity.Provider

	mu        sync.Mutex
	current   *identity.Session
	bootstrap BootstrapState
	gen       uint64 // bumped on every applied update; the restore applies only at gen 0

	notify      chan struct{}
	unsubscribe identity.Unsubscribe
	closeOnce   sync.Once
}

// New creates a store bound to the provider and starts the bootstrap.
func New(provider identity.Provider) *Store {
	s := &Store{
		provider:  provider,
		bootstrap: BootstrapPending,
		notify:    make(chan struct{}, 1),
	}

	s.unsubscribe = provider.OnSessionChange(s.applyNotification)
	go s.restore()

	return s
}

// Close releases the provider subscription.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

// Current returns the latest known session.
func (s *Store) Current() (identity.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return identity.Session{}, false
	}
	return *s.current, true
}

// Bootstrap returns the restore state.
func (s *Store) Bootstrap() BootstrapState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bootstrap
}

// Notify returns a coalesced wake-up channel. A receive means the session
// or bootstrap state may have changed since the last look.
func (s *Store) Notify() <-chan struct{} {
	return s.notify
}

// SignIn exchanges credentials for a session and installs it.
func (s *Store) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return identity.Session{}, err
	}

	s.apply(sess)

	return *sess, nil
}

// SignOut clears the session and propagates the absent state to all
// consumers. Local state is cleared even when the provider's revoke call
// fails; the returned error only reports the revoke outcome.
func (s *Store) SignOut(ctx context.Context) error {
	s.apply(nil)

	if err := s.provider.SignOut(ctx); err != nil {
		log.Warn().Err(err).Msg("remote sign-out failed, local session cleared anyway")
		return err
	}

	return nil
}

// ApplyExternalSession installs a session minted from a token pair. Used by
// the handoff handler; the store remains the only writer of the session.
func (s *Store) ApplyExternalSession(ctx context.Context, pair identity.TokenPair) (identity.Session, error) {
	sess, err := s.provider.SetSession(ctx, pair)
	if err != nil {
		return identity.Session{}, err
	}

	s.apply(sess)

	return *sess, nil
}

// restore resolves the bootstrap. Runs exactly once, on its own goroutine.
func (s *Store) restore() {
	sess, err := s.provider.GetSession(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("session restore failed")
		sess = nil
	}

	s.mu.Lock()
	// A notification that arrived first wins over the restore result.
	if s.gen == 0 {
		s.current = sess
	}
	if s.bootstrap == BootstrapPending {
		s.bootstrap = resolvedFor(s.current)
	}
	s.mu.Unlock()

	s.wake()
}

// applyNotification handles a provider change notification. Notifications
// may arrive at any time, including before the restore resolves.
func (s *Store) applyNotification(sess *identity.Session) {
	s.apply(sess)
}

func (s *Store) apply(sess *identity.Session) {
	s.mu.Lock()
	s.gen++
	s.current = sess
	s.bootstrap = resolvedFor(sess)
	s.mu.Unlock()

	s.wake()
}

func (s *Store) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func resolvedFor(sess *identity.Session) BootstrapState {
	if sess != nil {
		return BootstrapSignedIn
	}
	return BootstrapSignedOut
}
