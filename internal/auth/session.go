package auth

// SessionData represents the authenticated caller of a request
type SessionData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
