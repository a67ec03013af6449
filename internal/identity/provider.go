package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Config holds the HTTP provider configuration.
type Config struct {
	// BaseURL is the identity service root, e.g. https://auth.refrain.ing
	BaseURL string

	// SessionFile is where the session is persisted.
	// Empty uses ~/.refrain/session.json
	SessionFile string

	// HTTPClient overrides the client used for token requests.
	HTTPClient *http.Client
}

// HTTPProvider implements Provider against an OAuth2-style token endpoint:
// password grant for sign-in, refresh grant for reviving expired sessions.
type HTTPProvider struct {
	baseURL string
	oauth   *oauth2.Config
	http    *http.Client
	file    *sessionFile

	mu          sync.Mutex
	subscribers map[int]func(*Session)
	nextSubID   int
}

// NewHTTPProvider creates an HTTP identity provider.
func NewHTTPProvider(cfg Config) (*HTTPProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("identity base URL is required")
	}

	file, err := newSessionFile(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	return &HTTPProvider{
		baseURL: baseURL,
		oauth: &oauth2.Config{
			ClientID: "refrain-cli",
			Endpoint: oauth2.Endpoint{
				TokenURL: baseURL + "/auth/v1/token",
			},
		},
		http:        httpClient,
		file:        file,
		subscribers: make(map[int]func(*Session)),
	}, nil
}

// GetSession restores the persisted session, refreshing it through the
// provider when the access token has expired. An unrevivable persisted
// state is cleared and reported as absent, not as an error.
func (p *HTTPProvider) GetSession(ctx context.Context) (*Session, error) {
	sess, err := p.file.Load()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}

	if !sess.IsExpired() {
		return sess, nil
	}

	refreshed, err := p.refresh(ctx, sess.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("persisted session could not be refreshed, clearing")
		if err := p.file.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := p.file.Save(refreshed); err != nil {
		return nil, err
	}

	return refreshed, nil
}

// OnSessionChange registers a change-notification callback.
func (p *HTTPProvider) OnSessionChange(fn func(*Session)) Unsubscribe {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// SignInWithPassword exchanges credentials for a session via the password
// grant.
func (p *HTTPProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	tok, err := p.oauth.PasswordCredentialsToken(p.oauthContext(ctx), email, password)
	if err != nil {
		return nil, authErr("sign in", err)
	}

	sess, err := sessionFromToken(tok)
	if err != nil {
		return nil, authErr("sign in", err)
	}

	if err := p.install(sess); err != nil {
		return nil, err
	}

	log.Debug().Str("user_id", sess.UserID).Msg("signed in")

	return sess, nil
}

// SignOut revokes the session with the provider and clears persisted state.
// Local state is cleared even when revocation fails.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	sess, loadErr := p.file.Load()

	if err := p.file.Clear(); err != nil {
		return err
	}
	p.notify(nil)

	if loadErr != nil || sess == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return authErr("sign out", err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return authErr("sign out", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return authErr("sign out", fmt.Errorf("revoke returned status %d", resp.StatusCode))
	}

	return nil
}

// SetSession installs a session minted from a token pair. An expired access
// token is exchanged through the refresh grant; a pair the provider rejects
// fails with ErrAuth.
func (p *HTTPProvider) SetSession(ctx context.Context, pair TokenPair) (*Session, error) {
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, authErr("set session", errors.New("incomplete token pair"))
	}

	subject, email, expiresAt, err := tokenClaims(pair.AccessToken)
	if err != nil {
		return nil, authErr("set session", err)
	}

	sess := &Session{
		UserID:       subject,
		Email:        email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    expiresAt,
	}

	if sess.IsExpired() {
		sess, err = p.refresh(ctx, pair.RefreshToken)
		if err != nil {
			return nil, authErr("set session", err)
		}
	}

	if err := p.install(sess); err != nil {
		return nil, err
	}

	log.Debug().Str("user_id", sess.UserID).Msg("session installed from token pair")

	return sess, nil
}

// refresh exchanges a refresh token for a fresh session.
func (p *HTTPProvider) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	ts := p.oauth.TokenSource(p.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := ts.Token()
	if err != nil {
		return nil, err
	}

	return sessionFromToken(tok)
}

// install persists the session and notifies subscribers.
func (p *HTTPProvider) install(sess *Session) error {
	if err := p.file.Save(sess); err != nil {
		return err
	}
	p.notify(sess)
	return nil
}

// notify fans a state change out to subscribers. Callbacks run outside the
// provider lock.
func (p *HTTPProvider) notify(sess *Session) {
	p.mu.Lock()
	fns := make([]func(*Session), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// oauthContext routes oauth2 token requests through the configured client.
func (p *HTTPProvider) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.http)
}

// sessionFromToken builds a Session from a token endpoint response.
func sessionFromToken(tok *oauth2.Token) (*Session, error) {
	subject, email, expiresAt, err := tokenClaims(tok.AccessToken)
	if err != nil {
		return nil, err
	}

	if !tok.Expiry.IsZero() {
		expiresAt = tok.Expiry
	}

	return &Session{
		UserID:       subject,
		Email:        email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
