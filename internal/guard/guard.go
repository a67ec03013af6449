// Package guard decides whether protected content renders, a redirect
// occurs, or the client keeps waiting. The decision is a pure function of
// the bootstrap state, the handoff state and the URL, so the race between
// session restore and token detection is settled in one place.
package guard

import (
	"github.com/refrainhq/refrain-cli/internal/handoff"
	"github.com/refrainhq/refrain-cli/internal/session"
)

// Decision is the guard's verdict for one render pass.
type Decision int

const (
	// ShowPending renders the pending indicator; no pass/redirect decision
	// is made.
	ShowPending Decision = iota
	// RenderContent renders the protected content.
	RenderContent
	// RedirectToLogin replaces the current history entry with the sign-in
	// view, so back-navigation cannot re-enter the guarded page.
	RedirectToLogin
)

func (d Decision) String() string {
	switch d {
	case ShowPending:
		return "pending"
	case RenderContent:
		return "content"
	case RedirectToLogin:
		return "redirect"
	default:
		return "unknown"
	}
}

// PendingReason distinguishes the two wait states for display.
type PendingReason int

const (
	// ReasonNone accompanies non-pending decisions.
	ReasonNone PendingReason = iota
	// ReasonLoading means the session restore has not resolved.
	ReasonLoading
	// ReasonLoggingIn means a handoff exchange is in flight or the URL
	// carries a token the handler has not consumed yet.
	ReasonLoggingIn
)

func (r PendingReason) String() string {
	switch r {
	case ReasonLoading:
		return "Loading..."
	case ReasonLoggingIn:
		return "Logging you in..."
	default:
		return ""
	}
}

// Inputs are the state machines the guard combines.
type Inputs struct {
	Bootstrap      session.BootstrapState
	Handoff        handoff.State
	TokenInURL     bool
	SessionPresent bool
}

// Decide maps the combined state to a verdict. It never redirects while
// the restore is pending or while a handoff could still succeed.
func Decide(in Inputs) (Decision, PendingReason) {
	switch {
	case in.Handoff == handoff.StateInFlight:
		return ShowPending, ReasonLoggingIn

	case in.Bootstrap == session.BootstrapPending:
		return ShowPending, ReasonLoading

	case in.SessionPresent:
		return RenderContent, ReasonNone

	case in.TokenInURL && in.Handoff == handoff.StateIdle:
		// The URL carries a token the handler has not had a chance to
		// consume; redirecting now would lose the sign-in.
		return ShowPending, ReasonLoggingIn

	default:
		return RedirectToLogin, ReasonNone
	}
}
