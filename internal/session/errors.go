package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Store when no session record exists
	ErrNotFound = errors.New("session not found")
	// ErrNotAuthenticated is returned when an operation needs a current session
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'rentalx login' first")
	// ErrSessionMismatch is returned when an update targets a different user
	ErrSessionMismatch = errors.New("session belongs to a different user")
	// ErrMalformedSession is returned when the API issues a session without user id or token
	ErrMalformedSession = errors.New("issued session is missing user id or token")
)

// AuthenticationError reports a failed sign-in: bad credentials, a network
// failure, or an unusable response. It is never retried.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("login failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a local store failure. Session state is left unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s session: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
