package session

import "context"

// Session is the authenticated identity and credential held by the client for the current user
type Session struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	DriverLicense string `json:"driver_license,omitempty"`
	Avatar        string `json:"avatar,omitempty"` // URI or blob id of the profile image
	Token         string `json:"token"`
}

// IsAuthenticated reports whether the session carries a bearer token
func (s Session) IsAuthenticated() bool {
	return s.Token != ""
}

// Store persists the single local session record.
// Get returns ErrNotFound when nothing is stored. Put replaces the record
// atomically and Delete is a no-op on an empty store.
type Store interface {
	Get(ctx context.Context) (*Session, error)
	Put(ctx context.Context, s Session) error
	Delete(ctx context.Context) error
}

// Authenticator exchanges credentials for an issued session with the remote API
type Authenticator interface {
	CreateSession(ctx context.Context, email, password string) (*Session, error)
}

// Credentials is the shared HTTP client whose default Authorization header
// carries the current token. An empty token disarms it.
type Credentials interface {
	SetToken(token string)
}
