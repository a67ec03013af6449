// Package handoff consumes a one-time credential pair delivered in the
// page URL and exchanges it for a live session, exactly once per handler.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refrainhq/refrain-cli/internal/identity"
)

// Param is the query parameter carrying the URL-encoded token pair.
const Param = "auth"

// ErrMalformedHandoff is recorded when the URL parameter cannot be decoded
// into a token pair. It is never fatal: the URL is scrubbed and the guard
// falls through to its normal decision.
var ErrMalformedHandoff = errors.New("malformed handoff data")

// State of a handler instance.
type State int

const (
	// StateIdle means no exchange has been attempted.
	StateIdle State = iota
	// StateInFlight means an exchange is running; the guard must not
	// redirect while the user may be about to become authenticated.
	StateInFlight
	// StateDone means the exchange settled, successfully or not. The
	// token is single-use per handler: later detections are ignored.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in-flight"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// SessionSource is the slice of the session store the handler consumes.
type SessionSource interface {
	Current() (identity.Session, bool)
	ApplyExternalSession(ctx context.Context, pair identity.TokenPair) (identity.Session, error)
}

// Surface is the navigation collaborator the handler scrubs tokens from.
type Surface interface {
	Current() *url.URL
	Replace(path string)
}

// Handler detects a token pair in the current URL and exchanges it for a
// session. One exchange per handler instance, however many render passes
// call Detect.
type Handler struct {
	store   SessionSource
	surface Surface
	path    string // canonical guarded path the URL is scrubbed to

	mu    sync.Mutex
	state State
	err   error

	notify chan struct{}
}

// New creates a handler. canonicalPath is where the URL is rewritten to
// once the token is consumed, e.g. "/dashboard".
func New(store SessionSource, surface Surface, canonicalPath string) *Handler {
	return &Handler{
		store:   store,
		surface: surface,
		path:    canonicalPath,
		notify:  make(chan struct{}, 1),
	}
}

// State returns the handler state.
func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the error recorded by a settled exchange, nil on success.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Notify returns a coalesced wake-up channel signalled when an exchange
// settles.
func (h *Handler) Notify() <-chan struct{} {
	return h.notify
}

// Detect inspects the current URL for a handoff token and, at most once
// per handler, starts an exchange. Safe to call on every render
// opportunity: re-detection while in flight or after settling is a no-op,
// as is detection while a session is already present.
func (h *Handler) Detect(ctx context.Context) {
	h.mu.Lock()
	if h.state != StateIdle {
		h.mu.Unlock()
		return
	}

	if _, ok := h.store.Current(); ok {
		h.mu.Unlock()
		return
	}

	raw, ok := rawParam(h.surface.Current(), Param)
	if !ok {
		h.mu.Unlock()
		return
	}

	h.state = StateInFlight
	h.mu.Unlock()

	log.Debug().Msg("processing handoff token from URL")

	go h.exchange(ctx, raw)
}

// exchange decodes the raw parameter and applies the token pair. The URL
// is scrubbed on every outcome so a refresh can never replay the token.
func (h *Handler) exchange(ctx context.Context, raw string) {
	defer h.wake()

	pair, err := decodePair(raw)
	if err != nil {
		log.Warn().Err(err).Msg("discarding malformed handoff token")
		h.surface.Replace(h.path)
		h.settle(err)
		return
	}

	_, err = h.store.ApplyExternalSession(ctx, pair)
	h.surface.Replace(h.path) // never leak the token back into history
	if err != nil {
		log.Warn().Err(err).Msg("handoff exchange rejected")
		h.settle(err)
		return
	}

	log.Debug().Msg("handoff exchange succeeded")
	h.settle(nil)
}

// settle records the outcome. A successful exchange clears the handler's
// own error only; unrelated errors elsewhere are not suppressed.
func (h *Handler) settle(err error) {
	h.mu.Lock()
	h.state = StateDone
	h.err = err
	h.mu.Unlock()
}

func (h *Handler) wake() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// TokenInURL reports whether the URL still carries an unconsumed handoff
// parameter. Used by the guard to hold its redirect until the handler has
// had a chance to run.
func TokenInURL(u *url.URL) bool {
	_, ok := rawParam(u, Param)
	return ok
}

// rawParam extracts a query parameter without decoding it, so that invalid
// percent-encoding is detected by the handler instead of being silently
// dropped during query parsing.
func rawParam(u *url.URL, key string) (string, bool) {
	for _, part := range strings.Split(u.RawQuery, "&") {
		k, v, _ := strings.Cut(part, "=")
		if k == key && v != "" {
			return v, true
		}
	}
	return "", false
}

// decodePair URL-decodes and parses the parameter into a token pair.
func decodePair(raw string) (identity.TokenPair, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return identity.TokenPair{}, fmt.Errorf("%w: %v", ErrMalformedHandoff, err)
	}

	var pair identity.TokenPair
	if err := json.Unmarshal([]byte(decoded), &pair); err != nil {
		return identity.TokenPair{}, fmt.Errorf("%w: %v", ErrMalformedHandoff, err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return identity.TokenPair{}, fmt.Errorf("%w: missing token fields", ErrMalformedHandoff)
	}

	return pair, nil
}
