package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/rentalx-dev/rentalx/internal/config"
	"github.com/rentalx-dev/rentalx/internal/forms"
	"github.com/rentalx-dev/rentalx/internal/server"
	"github.com/rentalx-dev/rentalx/internal/session"
)

// setupTestEnvironment isolates HOME and the RENTALX_* variables and starts a
// real API server backed by a temporary database
func setupTestEnvironment(t *testing.T) *httptest.Server {
	t.Helper()

	for _, key := range []string{
		"RENTALX_EMAIL", "RENTALX_PASSWORD", "RENTALX_SESSION_STORE", "RENTALX_KEYRING_SERVICE",
		"RENTALX_REDIS_KEY", "RENTALX_REDIS_ADDRESS", "RENTALX_HTTP_TIMEOUT", "RENTALX_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RENTALX_DB_PATH", filepath.Join(t.TempDir(), "session.sqlite"))

	cfg := &config.Config{
		Server: config.ServerConfig{
			JWTSecret:   "test-secret",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: config.DatabaseConfig{URL: filepath.Join(t.TempDir(), "api.sqlite")},
	}
	srv, err := server.New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	t.Setenv("RENTALX_API_URL", ts.URL)

	return ts
}

// run executes one CLI invocation, like a fresh process would
func run(t *testing.T, opts *Options, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	opts.Out = &out
	opts.ErrOut = io.Discard

	root := &cobra.Command{Use: "rentalx", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		NewLoginCmd(opts),
		NewLogoutCmd(opts),
		NewWhoamiCmd(opts),
		NewProfileCmd(opts),
		NewSignupCmd(opts),
		NewConfigCmd(opts),
	)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func signupAndLogin(t *testing.T, opts *Options) {
	t.Helper()

	_, err := run(t, opts, "signup", "--name", "Jane Doe", "--email", "jane@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := run(t, opts, "login", "--email", "jane@example.com", "--password", "secret1")
	require.NoError(t, err)
	require.Contains(t, out, "Login successful")
}

func TestSessionLifecycle(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}

	out, err := run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	out, err = run(t, opts, "signup", "--name", "Jane Doe", "--email", "jane@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created for Jane Doe (jane@example.com)")

	out, err = run(t, opts, "login", "--email", "jane@example.com", "--password", "secret1")
	require.NoError(t, err)
	assert.Contains(t, out, "User: Jane Doe (jane@example.com)")

	// Restored from the store in a new invocation, token accepted by the API
	out, err = run(t, opts, "whoami", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "User: Jane Doe (jane@example.com)")
	assert.Contains(t, out, "API: verified as jane@example.com")

	out, err = run(t, opts, "profile", "update", "--name", "Jane Smith", "--driver-license", "DL-9")
	require.NoError(t, err)
	assert.Contains(t, out, "Profile updated")

	out, err = run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "User: Jane Smith (jane@example.com)")
	assert.Contains(t, out, "Driver license: DL-9")

	out, err = run(t, opts, "logout", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLogin_WrongPasswordKeepsPriorSession(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}
	signupAndLogin(t, opts)

	_, err := run(t, opts, "login", "--email", "jane@example.com", "--password", "wrong-password")
	var authErr *session.AuthenticationError
	require.True(t, errors.As(err, &authErr), "expected AuthenticationError, got %v", err)
	assert.Contains(t, err.Error(), "login failed")

	out, err := run(t, opts, "whoami", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "User: Jane Doe (jane@example.com)")
}

func TestLogin_MissingEmail(t *testing.T) {
	setupTestEnvironment(t)

	_, err := run(t, &Options{}, "login", "--password", "secret1")
	require.Error(t, err)
	assert.Equal(t, "email is required (use --email flag or RENTALX_EMAIL env var)", err.Error())
}

func TestLogin_InvalidEmail(t *testing.T) {
	setupTestEnvironment(t)

	_, err := run(t, &Options{}, "login", "--email", "jane", "--password", "secret1")
	var verr *forms.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email is invalid", err.Error())
}

func TestLogin_FromEnvAndPrompt(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}
	_, err := run(t, opts, "signup", "--name", "Jane Doe", "--email", "jane@example.com", "--password", "secret1")
	require.NoError(t, err)

	t.Setenv("RENTALX_EMAIL", "jane@example.com")

	var prompts []string
	opts.ReadPassword = func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "secret1", nil
	}

	out, err := run(t, opts, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
	assert.Equal(t, []string{"Password: "}, prompts)
}

func TestLogout_Cancelled(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}
	signupAndLogin(t, opts)

	var asked string
	opts.Confirm = func(label string) (bool, error) {
		asked = label
		return false, nil
	}

	out, err := run(t, opts, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")
	assert.Equal(t, signOutPrompt, asked)

	out, err = run(t, opts, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
}

func TestLogout_Confirmed(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}
	signupAndLogin(t, opts)

	opts.Confirm = func(string) (bool, error) { return true, nil }

	out, err := run(t, opts, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, opts, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestProfileUpdate(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		setupTestEnvironment(t)

		_, err := run(t, &Options{}, "profile", "update", "--name", "X", "--driver-license", "Y")
		assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	})

	t.Run("driver license is required", func(t *testing.T) {
		setupTestEnvironment(t)
		opts := &Options{}
		signupAndLogin(t, opts)

		_, err := run(t, opts, "profile", "update", "--name", "Jane Smith")
		require.Error(t, err)
		assert.Equal(t, "driver license is required", err.Error())

		out, err := run(t, opts, "whoami")
		require.NoError(t, err)
		assert.Contains(t, out, "Jane Doe")
	})

	t.Run("unchanged flags keep current values", func(t *testing.T) {
		setupTestEnvironment(t)
		opts := &Options{}
		signupAndLogin(t, opts)

		_, err := run(t, opts, "profile", "update", "--driver-license", "DL-1", "--avatar", "http://img/a.png")
		require.NoError(t, err)

		out, err := run(t, opts, "whoami")
		require.NoError(t, err)
		assert.Contains(t, out, "User: Jane Doe (jane@example.com)")
		assert.Contains(t, out, "Avatar: http://img/a.png")
	})
}

func TestSignup_Validation(t *testing.T) {
	setupTestEnvironment(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short password", []string{"--name", "J", "--email", "j@example.com", "--password", "123"}, "password must be at least 6 characters"},
		{"mismatch", []string{"--name", "J", "--email", "j@example.com", "--password", "secret1", "--password-confirmation", "secret2"}, "passwords must match"},
		{"invalid email", []string{"--name", "J", "--email", "nope", "--password", "secret1"}, "email is invalid"},
		{"missing name", []string{"--email", "j@example.com", "--password", "secret1"}, "name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, &Options{}, append([]string{"signup"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}

	_, err := run(t, opts, "signup", "--name", "Jane", "--email", "jane@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, err = run(t, opts, "signup", "--name", "Jane", "--email", "jane@example.com", "--password", "secret1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}

func TestAlternativeStores(t *testing.T) {
	t.Run("keyring", func(t *testing.T) {
		setupTestEnvironment(t)
		keyring.MockInit()

		opts := &Options{Store: config.StoreKeyring}
		signupAndLogin(t, opts)

		out, err := run(t, opts, "whoami", "--remote")
		require.NoError(t, err)
		assert.Contains(t, out, "API: verified as jane@example.com")

		// The sqlite store was never written
		out, err = run(t, &Options{}, "whoami")
		require.NoError(t, err)
		assert.Contains(t, out, "Not logged in")
	})

	t.Run("redis", func(t *testing.T) {
		setupTestEnvironment(t)
		mr := miniredis.RunT(t)
		t.Setenv("RENTALX_REDIS_ADDRESS", mr.Addr())

		opts := &Options{Store: config.StoreRedis}
		signupAndLogin(t, opts)
		assert.True(t, mr.Exists("rentalx:session"))

		_, err := run(t, opts, "logout", "--yes")
		require.NoError(t, err)
		assert.False(t, mr.Exists("rentalx:session"))
	})

	t.Run("unknown", func(t *testing.T) {
		setupTestEnvironment(t)

		_, err := run(t, &Options{Store: "memcached"}, "whoami")
		assert.ErrorContains(t, err, "unknown session store 'memcached'")
	})
}

func TestConfigCommand(t *testing.T) {
	setupTestEnvironment(t)
	t.Setenv("RENTALX_API_URL", "")
	opts := &Options{}

	out, err := run(t, opts, "config", "set", "api_url", "http://rentalx.example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url = http://rentalx.example.com")

	_, err = run(t, opts, "config", "set", "session_store", "keyring")
	require.NoError(t, err)

	out, err = run(t, opts, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url:       http://rentalx.example.com")
	assert.Contains(t, out, "session_store: keyring")

	// Environment wins over the file
	t.Setenv("RENTALX_SESSION_STORE", "redis")
	out, err = run(t, opts, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "session_store: redis")

	_, err = run(t, opts, "config", "set", "session_store", "memcached")
	assert.Error(t, err)

	_, err = run(t, opts, "config", "set", "selected_server", "x")
	assert.ErrorContains(t, err, "unknown config key")
}

func TestConfigGet(t *testing.T) {
	setupTestEnvironment(t)
	opts := &Options{}

	out, err := run(t, opts, "config", "get")
	require.NoError(t, err)
	assert.Equal(t, "api_url: (not set)\nsession_store: (not set)\n", out)

	_, err = run(t, opts, "config", "set", "session_store", "Keyring")
	require.NoError(t, err)

	out, err = run(t, opts, "config", "get", "session_store")
	require.NoError(t, err)
	assert.Equal(t, "keyring\n", out)

	out, err = run(t, opts, "config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "session_store: keyring")

	_, err = run(t, opts, "config", "get", "selected_server")
	assert.ErrorContains(t, err, "unknown config key")
}

func TestStoreFlag_IsCaseInsensitive(t *testing.T) {
	setupTestEnvironment(t)

	opts := &Options{Store: " SQLite "}
	signupAndLogin(t, opts)

	// Same backend as the lower-case default
	out, err := run(t, &Options{}, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe")
}
