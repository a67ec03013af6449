package identity

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrAuth is the base error for all provider failures. Callers match
	// the whole family with errors.Is(err, ErrAuth).
	ErrAuth = errors.New("authentication failed")

	// ErrNoSession is returned internally when no persisted session exists.
	ErrNoSession = errors.New("no session")
)

// authErr wraps a provider failure so callers can match ErrAuth.
func authErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrAuth, err)
}
