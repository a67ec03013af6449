package identity

import (
	"context"
	"time"
)

// TokenPair is raw credential material: the URL handoff parameter carries
// one, and the provider mints sessions from one.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Session is the live authenticated identity for the current user.
// It is owned by the session store once resolved; consumers treat it as
// read-only.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired returns true if the access token has expired.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Unsubscribe releases a change-notification subscription.
type Unsubscribe func()

// Provider is the external identity backend. It persists session state,
// mints sessions from credentials or token pairs, and pushes change
// notifications to subscribers whenever its own state changes.
type Provider interface {
	// GetSession restores the persisted session, refreshing it when the
	// access token has expired. Returns (nil, nil) when no session exists
	// or the persisted state could not be revived.
	GetSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a callback invoked with the new session
	// (nil on sign-out) after every provider state change.
	OnSessionChange(fn func(*Session)) Unsubscribe

	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignOut revokes the session with the provider and clears persisted
	// state. Persisted state is cleared even when revocation fails.
	SignOut(ctx context.Context) error

	// SetSession installs a session minted from a token pair, refreshing
	// through the provider when the access token has expired.
	SetSession(ctx context.Context, pair TokenPair) (*Session, error)
}
