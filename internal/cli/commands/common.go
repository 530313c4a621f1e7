package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/rentalx-dev/rentalx/internal/api"
	"github.com/rentalx-dev/rentalx/internal/cli/userconfig"
	"github.com/rentalx-dev/rentalx/internal/config"
	"github.com/rentalx-dev/rentalx/internal/logger"
	"github.com/rentalx-dev/rentalx/internal/session"
	"github.com/rentalx-dev/rentalx/internal/session/keyringstore"
	"github.com/rentalx-dev/rentalx/internal/session/redisstore"
	"github.com/rentalx-dev/rentalx/internal/session/sqlstore"
)

// Options carries what every command shares. Zero fields fall back to the
// terminal and to the configured session store.
type Options struct {
	// Persistent flag overrides
	APIURL string
	Store  string

	Out    io.Writer
	ErrOut io.Writer

	// SessionStore replaces the configured backend
	SessionStore session.Store
	// ReadPassword prompts for a secret without echo
	ReadPassword func(prompt string) (string, error)
	// Confirm asks a yes/no question
	Confirm func(label string) (bool, error)
}

func (o *Options) out() io.Writer {
	if o.Out != nil {
		return o.Out
	}
	return os.Stdout
}

func (o *Options) errOut() io.Writer {
	if o.ErrOut != nil {
		return o.ErrOut
	}
	return os.Stderr
}

func (o *Options) readPassword(prompt string) (string, error) {
	if o.ReadPassword != nil {
		return o.ReadPassword(prompt)
	}

	// Check if stdin is a terminal (not piped)
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or RENTALX_PASSWORD env var)")
	}

	fmt.Fprint(o.out(), prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(o.out()) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

func (o *Options) confirm(label string) (bool, error) {
	if o.Confirm != nil {
		return o.Confirm(label)
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	return true, nil
}

// loadConfig resolves configuration: defaults < user file < environment < flags
func (o *Options) loadConfig() (*config.Config, error) {
	uc, err := userconfig.Load()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.WithFileDefaults(uc.APIURL, uc.SessionStore))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if o.APIURL != "" {
		cfg.Client.APIURL = o.APIURL
	}
	if o.Store != "" {
		store := strings.ToLower(strings.TrimSpace(o.Store))
		if err := config.ValidateStore(store); err != nil {
			return nil, err
		}
		cfg.Client.SessionStore = store
	}

	return cfg, nil
}

// runtime is the wired session stack for one command invocation
type runtime struct {
	cfg     *config.Config
	client  *api.Client
	manager *session.Manager
	logger  zerolog.Logger
	closers []func() error
}

// open wires config, API client, store and session manager, then restores
// the persisted session. Callers must Close the runtime.
func (o *Options) open(ctx context.Context) (*runtime, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(o.errOut(), cfg.Client.LogLevel, "console")

	rt := &runtime{
		cfg:    cfg,
		client: api.New(cfg.Client.APIURL, cfg.Client.HTTPTimeout, log),
		logger: log,
	}

	store := o.SessionStore
	if store == nil {
		store, err = rt.openStore()
		if err != nil {
			return nil, err
		}
	}

	rt.manager = session.NewManager(store, rt.client, rt.client, log)
	// An unreadable record must not lock the user out of login/logout
	if err := rt.manager.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to restore session, continuing signed out")
	}

	return rt, nil
}

func (rt *runtime) openStore() (session.Store, error) {
	switch rt.cfg.Client.SessionStore {
	case config.StoreKeyring:
		return keyringstore.New(rt.cfg.Client.KeyringService), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: rt.cfg.Redis.Address})
		rt.closers = append(rt.closers, rdb.Close)
		return redisstore.New(rdb, rt.cfg.Client.RedisKey), nil
	default:
		store, err := sqlstore.Open(rt.cfg.Client.DBPath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, store.Close)
		return store, nil
	}
}

// Close releases store connections
func (rt *runtime) Close() {
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			rt.logger.Warn().Err(err).Msg("Failed to close session store")
		}
	}
}

func printSession(w io.Writer, s session.Session) {
	fmt.Fprintf(w, "  User: %s (%s)\n", s.Name, s.Email)
	fmt.Fprintf(w, "  ID: %s\n", s.UserID)
	if s.DriverLicense != "" {
		fmt.Fprintf(w, "  Driver license: %s\n", s.DriverLicense)
	}
	if s.Avatar != "" {
		fmt.Fprintf(w, "  Avatar: %s\n", s.Avatar)
	}
}
