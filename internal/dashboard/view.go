// Package dashboard is the profile and call-history view: it loads data
// once per resolved session, supports the edit-and-save cycle and the
// optional call-initiation action.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refrainhq/refrain-cli/internal/api"
	"github.com/refrainhq/refrain-cli/internal/identity"
)

// ErrCallInitiationDisabled is returned when the call action is invoked
// without the feature being enabled in configuration.
var ErrCallInitiationDisabled = errors.New("call initiation is not enabled")

// Backend is the REST surface the view consumes.
type Backend interface {
	GetProfile(ctx context.Context) (*api.Profile, error)
	UpdateProfile(ctx context.Context, id string, upd api.ProfileUpdate) (*api.Profile, error)
	InitiateCall(ctx context.Context, participantID string) (*api.InitiationResult, error)
	CallHistory(ctx context.Context, participantID string) ([]api.CallRecord, error)
}

// SessionReader is the slice of the session store the view consumes.
type SessionReader interface {
	Current() (identity.Session, bool)
}

// Config holds view configuration.
type Config struct {
	// EnableCallInitiation switches the manual call action on. Off by
	// default; the shipped variant shows a phone number instead.
	EnableCallInitiation bool
}

type loadStatus int

const (
	loadInFlight loadStatus = iota + 1
	loadDone
)

// View is the profile/call-history view model. Results of in-flight
// fetches are tagged with the session identity they were fetched for and
// discarded when the identity has changed by the time they resolve.
type View struct {
	backend Backend
	session SessionReader
	cfg     Config

	mu      sync.Mutex
	loads   map[string]loadStatus // keyed by session user id; a new identity re-arms the load
	profile *api.Profile
	calls   []api.CallRecord
	editing bool
	saving  bool
	form    api.ProfileUpdate

	profileErr string
	historyErr string
	saveErr    string
	callErr    string

	notify chan struct{}
}

// Snapshot is an immutable copy of the view state for rendering.
type Snapshot struct {
	Profile *api.Profile
	Calls   []api.CallRecord
	Loading bool
	Editing bool
	Saving  bool
	Form    api.ProfileUpdate

	ProfileErr string
	HistoryErr string
	SaveErr    string
	CallErr    string

	CallInitiation bool
}

// New creates a view bound to the backend and session store.
func New(backend Backend, session SessionReader, cfg Config) *View {
	return &View{
		backend: backend,
		session: session,
		cfg:     cfg,
		loads:   make(map[string]loadStatus),
		notify:  make(chan struct{}, 1),
	}
}

// Notify returns a coalesced wake-up channel signalled when an async load
// settles.
func (v *View) Notify() <-chan struct{} {
	return v.notify
}

// Sync arms the one-shot load for the current session identity. Safe to
// call on every render opportunity: repeated calls for the same identity
// are no-ops, a new identity triggers exactly one new load.
func (v *View) Sync(ctx context.Context) {
	sess, ok := v.session.Current()
	if !ok {
		return
	}

	v.mu.Lock()
	if _, armed := v.loads[sess.UserID]; armed {
		v.mu.Unlock()
		return
	}
	v.loads[sess.UserID] = loadInFlight
	v.mu.Unlock()

	log.Debug().Str("user_id", sess.UserID).Msg("loading dashboard data")

	go v.load(ctx, sess.UserID)
}

// load fetches the profile and then the call history. The two sections
// fail independently: a history failure never blocks profile editing.
func (v *View) load(ctx context.Context, userID string) {
	defer v.wake()
	defer func() {
		v.mu.Lock()
		v.loads[userID] = loadDone
		v.mu.Unlock()
	}()

	profile, err := v.backend.GetProfile(ctx)

	v.mu.Lock()
	if !v.live(userID) {
		v.mu.Unlock()
		return
	}
	if err != nil {
		v.profileErr = "Failed to load your profile"
		v.mu.Unlock()
		log.Warn().Err(err).Msg("profile fetch failed")
		return
	}
	v.profile = profile
	v.profileErr = ""
	v.mu.Unlock()

	calls, err := v.backend.CallHistory(ctx, profile.ID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.live(userID) {
		return
	}
	if err != nil {
		v.historyErr = "Failed to load call history"
		log.Warn().Err(err).Msg("history fetch failed")
		return
	}
	v.calls = calls
	v.historyErr = ""
}

// live reports whether results fetched for userID still apply. Callers
// hold the lock.
func (v *View) live(userID string) bool {
	sess, ok := v.session.Current()
	return ok && sess.UserID == userID
}

// BeginEdit enters edit mode, seeding the form from the loaded profile.
func (v *View) BeginEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.profile == nil || v.editing {
		return
	}
	v.editing = true
	v.form = api.ProfileUpdate{
		ParticipantName:   v.profile.ParticipantName,
		Email:             v.profile.Email,
		RecoveryNotes:     v.profile.RecoveryNotes,
		PreferredCallTime: v.profile.PreferredCallTime,
	}
}

// SetForm replaces the edited fields.
func (v *View) SetForm(form api.ProfileUpdate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.editing {
		v.form = form
	}
}

// Cancel leaves edit mode, discarding edits.
func (v *View) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editing = false
	v.saveErr = ""
}

// Save sends the edited subset of fields. On success the local profile is
// replaced with the server's response and edit mode ends; on failure the
// view stays in edit mode with a recoverable error.
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()
	if !v.editing || v.profile == nil || v.saving {
		v.mu.Unlock()
		return nil
	}
	v.saving = true
	id := v.profile.ID
	form := v.form
	v.mu.Unlock()

	updated, err := v.backend.UpdateProfile(ctx, id, form)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.saving = false
	if err != nil {
		v.saveErr = "Failed to save changes"
		log.Warn().Err(err).Msg("profile save failed")
		return err
	}
	v.profile = updated
	v.editing = false
	v.saveErr = ""
	return nil
}

// InitiateCall requests an outbound call and, on success, re-fetches the
// history so server-assigned fields are never guessed at. On failure the
// history is left untouched.
func (v *View) InitiateCall(ctx context.Context) error {
	if !v.cfg.EnableCallInitiation {
		return ErrCallInitiationDisabled
	}

	v.mu.Lock()
	if v.profile == nil {
		v.mu.Unlock()
		return nil
	}
	id := v.profile.ID
	v.mu.Unlock()

	result, err := v.backend.InitiateCall(ctx, id)
	if err != nil {
		v.mu.Lock()
		v.callErr = "Failed to start the call"
		v.mu.Unlock()
		log.Warn().Err(err).Msg("call initiation failed")
		return err
	}

	log.Info().Str("call_id", result.CallID).Str("status", result.Status).Msg("call initiated")

	calls, err := v.backend.CallHistory(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.callErr = ""
	if err != nil {
		v.historyErr = "Failed to load call history"
		return err
	}
	v.calls = calls
	v.historyErr = ""
	return nil
}

// Snapshot copies the state for rendering.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		Editing:        v.editing,
		Saving:         v.saving,
		Form:           v.form,
		ProfileErr:     v.profileErr,
		HistoryErr:     v.historyErr,
		SaveErr:        v.saveErr,
		CallErr:        v.callErr,
		CallInitiation: v.cfg.EnableCallInitiation,
	}

	if v.profile != nil {
		p := *v.profile
		snap.Profile = &p
	}
	snap.Calls = append([]api.CallRecord(nil), v.calls...)

	if sess, ok := v.session.Current(); ok {
		if status := v.loads[sess.UserID]; status == loadInFlight {
			snap.Loading = true
		}
	}

	return snap
}

func (v *View) wake() {
	select {
	case v.notify <- struct{}{}:
	default:
	}
}
