package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/rentalx-dev/rentalx/internal/session"
)

// DefaultTimeout bounds every request made by the client
const DefaultTimeout = 30 * time.Second

// ErrMalformedResponse is returned when a response body is not the expected JSON shape
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for any non-2xx response
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Message)
}

// Client is the shared HTTP client for the rentalx API. The bearer token set
// with SetToken is attached to every outgoing request.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger

	mu    sync.RWMutex
	token string
}

// New creates a new API client
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		logger: logger.With().Str("component", "api").Logger(),
	}

	c.http = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetLogger(restyLogger{c.logger}).
		OnBeforeRequest(c.attachToken).
		OnAfterResponse(c.logResponse)

	return c
}

// SetToken arms (or, with an empty token, disarms) the default Authorization header
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently armed bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) attachToken(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get("Authorization") != "" {
		return nil
	}
	if token := c.Token(); token != "" {
		r.SetAuthToken(token)
	}
	return nil
}

func (c *Client) logResponse(_ *resty.Client, resp *resty.Response) error {
	c.logger.Debug().
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("HTTP request")
	return nil
}

// User is a user as returned by the API
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	DriverLicense string `json:"driver_license"`
	Avatar        string `json:"avatar"`
}

// parseUser reads a user object; numeric ids are normalised to their decimal string
func parseUser(r gjson.Result) User {
	return User{
		ID:            r.Get("id").String(),
		Name:          r.Get("name").String(),
		Email:         r.Get("email").String(),
		DriverLicense: r.Get("driver_license").String(),
		Avatar:        r.Get("avatar").String(),
	}
}

// credentials is the POST /sessions request body
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateSession exchanges email and password for a user and bearer token.
// It does not arm the client; that is left to the session manager.
func (c *Client) CreateSession(ctx context.Context, email, password string) (*session.Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(credentials{Email: email, Password: password}).
		Post("/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}

	user := gjson.GetBytes(body, "user")
	token := gjson.GetBytes(body, "token").String()
	if !user.IsObject() || user.Get("id").String() == "" || token == "" {
		return nil, fmt.Errorf("%w: expected user.id and token", ErrMalformedResponse)
	}

	u := parseUser(user)
	return &session.Session{
		UserID:        u.ID,
		Name:          u.Name,
		Email:         u.Email,
		DriverLicense: u.DriverLicense,
		Avatar:        u.Avatar,
		Token:         token,
	}, nil
}

// CreateUserRequest is the POST /users request body
type CreateUserRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// CreateUser registers a new account
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/users")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return decodeUser(resp.Body())
}

// Profile returns the user the armed token belongs to
func (c *Client) Profile(ctx context.Context) (*User, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/users/profile")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return decodeUser(resp.Body())
}

func decodeUser(body []byte) (*User, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	result := gjson.ParseBytes(body)
	if result.Get("id").String() == "" {
		return nil, fmt.Errorf("%w: expected id", ErrMalformedResponse)
	}
	u := parseUser(result)
	return &u, nil
}

func checkStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	message := strings.TrimSpace(resp.String())
	if msg := gjson.GetBytes(resp.Body(), "error"); msg.Exists() {
		message = msg.String()
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return &StatusError{StatusCode: resp.StatusCode(), Message: message}
}

// restyLogger routes resty's own diagnostics into zerolog
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
