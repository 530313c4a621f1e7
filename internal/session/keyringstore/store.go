package keyringstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/zalando/go-keyring"

	"github.com/rentalx-dev/rentalx/internal/session"
)

const (
	// DefaultService is the keychain service name used by the CLI
	DefaultService = "rentalx-cli"

	entryKey = "session"
)

// Store keeps the session as a single JSON entry in the OS keychain/credential manager
type Store struct {
	service string
}

// New creates a keychain store under the given service name
func New(service string) *Store {
	if service == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

// Get loads the session from the keychain
func (s *Store) Get(ctx context.Context) (*session.Session, error) {
	data, err := keyring.Get(s.service, entryKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Put persists the session, overwriting any existing entry
func (s *Store) Put(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := keyring.Set(s.service, entryKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes the session from the keychain
func (s *Store) Delete(ctx context.Context) error {
	if err := keyring.Delete(s.service, entryKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
