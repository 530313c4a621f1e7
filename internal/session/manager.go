// Package session keeps track of who is logged in on this client. A Manager
// bridges the remote sessions API and a local Store and arms the shared HTTP
// client with the current bearer token.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Manager is the single source of truth for the current session.
// It is safe for concurrent use. Store writes and the in-memory commit that
// follows them are serialised, so memory, store and credential always agree
// once a call returns; racing SignIn calls resolve last-write-wins.
type Manager struct {
	store       Store
	auth        Authenticator
	credentials Credentials
	logger      zerolog.Logger

	// writeMu is held across a store write and the commit of its result
	writeMu sync.Mutex

	mu        sync.RWMutex
	current   Session
	listeners map[int]func(Session)
	nextID    int
}

// NewManager creates a signed-out manager. Call Restore to pick up a persisted session.
func NewManager(store Store, auth Authenticator, credentials Credentials, logger zerolog.Logger) *Manager {
	return &Manager{
		store:       store,
		auth:        auth,
		credentials: credentials,
		logger:      logger.With().Str("component", "session").Logger(),
		listeners:   make(map[int]func(Session)),
	}
}

// Restore loads the persisted session, if any, without contacting the API
func (m *Manager) Restore(ctx context.Context) error {
	m.writeMu.Lock()

	stored, err := m.store.Get(ctx)
	if err != nil {
		m.writeMu.Unlock()
		if errors.Is(err, ErrNotFound) {
			m.logger.Debug().Msg("No persisted session")
			return nil
		}
		return &PersistenceError{Op: "restore", Err: err}
	}

	if !stored.IsAuthenticated() {
		m.writeMu.Unlock()
		m.logger.Debug().Str("user_id", stored.UserID).Msg("Persisted session has no token, ignoring")
		return nil
	}

	listeners := m.commit(*stored)
	m.writeMu.Unlock()
	notify(listeners, *stored)

	m.logger.Debug().Str("user_id", stored.UserID).Msg("Session restored")
	return nil
}

// SignIn authenticates against the API and replaces any prior session.
// On failure the previous session, record and credential are left untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Session, error) {
	issued, err := m.auth.CreateSession(ctx, email, password)
	if err != nil {
		m.logger.Info().Err(err).Str("email", email).Msg("Sign in rejected")
		return Session{}, &AuthenticationError{Err: err}
	}
	if issued == nil || issued.UserID == "" || !issued.IsAuthenticated() {
		return Session{}, &AuthenticationError{Err: ErrMalformedSession}
	}

	m.writeMu.Lock()
	if err := m.store.Put(ctx, *issued); err != nil {
		m.writeMu.Unlock()
		m.logger.Error().Err(err).Str("user_id", issued.UserID).Msg("Failed to persist session")
		return Session{}, &PersistenceError{Op: "save", Err: err}
	}
	listeners := m.commit(*issued)
	m.writeMu.Unlock()
	notify(listeners, *issued)

	m.logger.Info().Str("user_id", issued.UserID).Str("email", issued.Email).Msg("Signed in")
	return *issued, nil
}

// UpdateUser replaces the mutable profile fields (name, driver license, avatar)
// of the current session. Identity and token always come from the current session.
func (m *Manager) UpdateUser(ctx context.Context, update Session) (Session, error) {
	m.writeMu.Lock()

	current := m.Current()
	if !current.IsAuthenticated() {
		m.writeMu.Unlock()
		return Session{}, ErrNotAuthenticated
	}
	if update.UserID != "" && update.UserID != current.UserID {
		m.writeMu.Unlock()
		return Session{}, ErrSessionMismatch
	}

	next := current
	next.Name = update.Name
	next.DriverLicense = update.DriverLicense
	next.Avatar = update.Avatar

	if err := m.store.Put(ctx, next); err != nil {
		m.writeMu.Unlock()
		m.logger.Error().Err(err).Str("user_id", current.UserID).Msg("Failed to persist profile update")
		return Session{}, &PersistenceError{Op: "update", Err: err}
	}

	listeners := m.commit(next)
	m.writeMu.Unlock()
	notify(listeners, next)

	m.logger.Info().Str("user_id", next.UserID).Msg("Profile updated")
	return next, nil
}

// SignOut clears the session from memory and the store. It never fails;
// a store error is only logged. An update or sign-in whose store write is in
// flight completes first and is then signed out.
func (m *Manager) SignOut(ctx context.Context) {
	m.writeMu.Lock()

	previous := m.Current()
	listeners := m.commit(Session{})

	if err := m.store.Delete(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to delete persisted session")
	}

	m.writeMu.Unlock()
	notify(listeners, Session{})

	if previous.IsAuthenticated() {
		m.logger.Info().Str("user_id", previous.UserID).Msg("Signed out")
	}
}

// Current returns a copy of the current session, the zero value when signed out
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsAuthenticated reports whether a session with a token is current
func (m *Manager) IsAuthenticated() bool {
	return m.Current().IsAuthenticated()
}

// Subscribe registers fn to be called with the new session after every change.
// The returned func removes the listener.
func (m *Manager) Subscribe(fn func(Session)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// commit arms the credential with s.Token and makes s current in one step.
// It returns the listeners to notify once every lock is released.
func (m *Manager) commit(s Session) []func(Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credentials.SetToken(s.Token)
	m.current = s

	listeners := make([]func(Session), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

// notify runs outside the locks so listeners may call back into the manager
func notify(listeners []func(Session), s Session) {
	for _, fn := range listeners {
		fn(s)
	}
}
