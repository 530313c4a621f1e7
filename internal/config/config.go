package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	StoreSQLite  = "sqlite"
	StoreKeyring = "keyring"
	StoreRedis   = "redis"
)

const defaultAPIURL = "http://localhost:3333"

// Config holds all configuration for the CLI and the API server
type Config struct {
	// Client Configuration (rentalx CLI)
	Client ClientConfig

	// Server Configuration (reference sessions API)
	Server ServerConfig

	// Database Configuration (server)
	Database DatabaseConfig

	// Redis Configuration (redis session store)
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ClientConfig holds session client configuration
type ClientConfig struct {
	APIURL         string
	SessionStore   string // sqlite, keyring, redis
	DBPath         string // sqlite session database
	KeyringService string
	RedisKey       string
	HTTPTimeout    time.Duration
	LogLevel       string
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Port        string
	JWTSecret   string // Generated and persisted on first start when empty
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Option changes the fallbacks used when an environment variable is unset
type Option func(*fallbacks)

type fallbacks struct {
	apiURL       string
	sessionStore string
}

// WithFileDefaults makes values from the user config file take precedence over
// built-in defaults, while environment variables still win
func WithFileDefaults(apiURL, sessionStore string) Option {
	return func(f *fallbacks) {
		if apiURL != "" {
			f.apiURL = apiURL
		}
		if sessionStore != "" {
			f.sessionStore = sessionStore
		}
	}
}

// Load loads configuration from environment variables
func Load(opts ...Option) (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	fb := fallbacks{apiURL: defaultAPIURL, sessionStore: StoreSQLite}
	for _, opt := range opts {
		opt(&fb)
	}

	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}

	timeout, err := time.ParseDuration(getEnv("RENTALX_HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RENTALX_HTTP_TIMEOUT: %w", err)
	}

	store := strings.ToLower(getEnv("RENTALX_SESSION_STORE", fb.sessionStore))
	if err := ValidateStore(store); err != nil {
		return nil, err
	}

	var origins []string
	for _, origin := range strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return &Config{
		Client: ClientConfig{
			APIURL:         getEnv("RENTALX_API_URL", fb.apiURL),
			SessionStore:   store,
			DBPath:         getEnv("RENTALX_DB_PATH", filepath.Join(dataDir, "session.sqlite")),
			KeyringService: getEnv("RENTALX_KEYRING_SERVICE", "rentalx-cli"),
			RedisKey:       getEnv("RENTALX_REDIS_KEY", "rentalx:session"),
			HTTPTimeout:    timeout,
			// CLI output stays clean unless asked otherwise
			LogLevel: getEnv("RENTALX_LOG_LEVEL", "warn"),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "3333"),
			JWTSecret:   os.Getenv("JWT_SECRET"),
			CORSOrigins: origins,
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "rentalx.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnv("RENTALX_REDIS_ADDRESS", getEnv("REDIS_ADDRESS", "localhost:6379")),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

// ValidateStore rejects unknown session store backends
func ValidateStore(store string) error {
	switch store {
	case StoreSQLite, StoreKeyring, StoreRedis:
		return nil
	default:
		return fmt.Errorf("unknown session store '%s', must be one of: sqlite, keyring, redis", store)
	}
}

// DataDir returns ~/.config/rentalx, where the CLI keeps its files
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "rentalx"), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
