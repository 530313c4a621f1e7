package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RENTALX_API_URL", "RENTALX_SESSION_STORE", "RENTALX_DB_PATH", "RENTALX_HTTP_TIMEOUT",
		"RENTALX_LOG_LEVEL", "RENTALX_KEYRING_SERVICE", "RENTALX_REDIS_KEY", "RENTALX_REDIS_ADDRESS",
		"PORT", "JWT_SECRET", "CORS_ORIGINS", "DATABASE_URL", "REDIS_ADDRESS", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3333", cfg.Client.APIURL)
	assert.Equal(t, StoreSQLite, cfg.Client.SessionStore)
	assert.Equal(t, filepath.Join(home, ".config", "rentalx", "session.sqlite"), cfg.Client.DBPath)
	assert.Equal(t, 30*time.Second, cfg.Client.HTTPTimeout)
	assert.Equal(t, "warn", cfg.Client.LogLevel)
	assert.Equal(t, "3333", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	// File values beat built-in defaults
	cfg, err := Load(WithFileDefaults("https://api.from-file.test", StoreKeyring))
	require.NoError(t, err)
	assert.Equal(t, "https://api.from-file.test", cfg.Client.APIURL)
	assert.Equal(t, StoreKeyring, cfg.Client.SessionStore)

	// Environment beats file values
	t.Setenv("RENTALX_API_URL", "https://api.from-env.test")
	t.Setenv("RENTALX_SESSION_STORE", "REDIS")
	cfg, err = Load(WithFileDefaults("https://api.from-file.test", StoreKeyring))
	require.NoError(t, err)
	assert.Equal(t, "https://api.from-env.test", cfg.Client.APIURL)
	assert.Equal(t, StoreRedis, cfg.Client.SessionStore)
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("RENTALX_SESSION_STORE", "etcd")

		_, err := Load()
		assert.EqualError(t, err, "unknown session store 'etcd', must be one of: sqlite, keyring, redis")
	})

	t.Run("bad timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HOME", t.TempDir())
		t.Setenv("RENTALX_HTTP_TIMEOUT", "soon")

		_, err := Load()
		assert.ErrorContains(t, err, "invalid RENTALX_HTTP_TIMEOUT")
	})
}

func TestLoad_CORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
}

func TestLoad_RedisAddress(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	t.Setenv("REDIS_ADDRESS", "shared:6379")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "shared:6379", cfg.Redis.Address)

	t.Setenv("RENTALX_REDIS_ADDRESS", "cli:6380")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "cli:6380", cfg.Redis.Address)
}
