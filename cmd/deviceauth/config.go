package main

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// cliConfig is read from the environment (after an optional .env file) and
// then overridden by flags.
type cliConfig struct {
	DataDir       string        `env:"DEVICEAUTH_DATA_DIR" envDefault:".deviceauth"`
	Store         string        `env:"DEVICEAUTH_STORE" envDefault:"bolt"`
	RedisAddr     string        `env:"DEVICEAUTH_REDIS_ADDR"`
	RedisPrefix   string        `env:"DEVICEAUTH_REDIS_PREFIX" envDefault:"deviceauth"`
	KeyPrefix     string        `env:"DEVICEAUTH_KEY_PREFIX"`
	DeviceSecret  string        `env:"DEVICEAUTH_DEVICE_SECRET"`
	Passcode      string        `env:"DEVICEAUTH_PASSCODE"`
	MetricsAddr   string        `env:"DEVICEAUTH_METRICS_ADDR"`
	AuditLog      string        `env:"DEVICEAUTH_AUDIT_LOG"`
	LogLevel      string        `env:"DEVICEAUTH_LOG_LEVEL" envDefault:"warn"`
	MaxAttempts   int           `env:"DEVICEAUTH_MAX_ATTEMPTS" envDefault:"5"`
	Lockout       time.Duration `env:"DEVICEAUTH_LOCKOUT" envDefault:"15m"`
	SessionTTL    time.Duration `env:"DEVICEAUTH_SESSION_TTL" envDefault:"24h"`
	EnforceFormat bool          `env:"DEVICEAUTH_ENFORCE_FORMAT" envDefault:"true"`
	SaveOnLogin   bool          `env:"DEVICEAUTH_SAVE_ON_LOGIN" envDefault:"true"`
	SessionKeyID  string        `env:"DEVICEAUTH_SESSION_KEY_ID"`
}

func loadConfig(args []string) (cliConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cliConfig{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg cliConfig
	if err := env.Parse(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("parse env: %w", err)
	}

	fsFlags := flag.NewFlagSet("deviceauth", flag.ContinueOnError)
	fsFlags.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory for the state, user and vault files")
	fsFlags.StringVar(&cfg.Store, "store", cfg.Store, "key-value backend: bolt, redis or memory")
	fsFlags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "redis address for -store=redis")
	fsFlags.StringVar(&cfg.KeyPrefix, "key-prefix", cfg.KeyPrefix, "prefix for every state key")
	fsFlags.StringVar(&cfg.Passcode, "passcode", cfg.Passcode, "device passcode for the terminal biometric prompt; empty disables it")
	fsFlags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve /metrics on this address")
	fsFlags.StringVar(&cfg.AuditLog, "audit-log", cfg.AuditLog, "append audit events as JSON lines to this file")
	fsFlags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fsFlags.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "failed logins before lockout")
	fsFlags.DurationVar(&cfg.Lockout, "lockout", cfg.Lockout, "lockout duration")
	fsFlags.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "session lifetime")
	fsFlags.BoolVar(&cfg.EnforceFormat, "enforce-format", cfg.EnforceFormat, "reject malformed registration fields")
	fsFlags.BoolVar(&cfg.SaveOnLogin, "save-on-login", cfg.SaveOnLogin, "keep credentials in the vault for biometric login")
	fsFlags.StringVar(&cfg.SessionKeyID, "session-key-id", cfg.SessionKeyID, "sign sessions with session-<id>.key; other session key files stay valid for restore")
	if err := fsFlags.Parse(args); err != nil {
		return cliConfig{}, err
	}

	switch cfg.Store {
	case "bolt", "memory":
	case "redis":
		if cfg.RedisAddr == "" {
			return cliConfig{}, errors.New("-store=redis requires -redis-addr or DEVICEAUTH_REDIS_ADDR")
		}
	default:
		return cliConfig{}, fmt.Errorf("unknown store %q", cfg.Store)
	}
	if strings.ContainsAny(cfg.SessionKeyID, `/\. `) {
		return cliConfig{}, fmt.Errorf("session key id %q must not contain path characters", cfg.SessionKeyID)
	}
	return cfg, nil
}

func (c cliConfig) level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// loadOrCreateSecret returns the contents of name inside dir, creating it
// with n random bytes and 0600 permissions when missing.
func loadOrCreateSecret(dir, name string, n int) ([]byte, error) {
	path := filepath.Join(dir, name)
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(b) < n {
			return nil, fmt.Errorf("%s: want %d bytes, have %d", path, n, len(b))
		}
		return b, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	b = make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return nil, err
	}
	return b, nil
}

// unkeyedSessionKid names session.key when it is kept as a retired key.
const unkeyedSessionKid = "default"

// loadSessionKeys returns the signing key for keyID and every other session
// key file in dir as a retired key. An empty keyID signs with session.key.
func loadSessionKeys(dir, keyID string) ([]byte, map[string][]byte, error) {
	name := "session.key"
	if keyID != "" {
		name = "session-" + keyID + ".key"
	}
	current, err := loadOrCreateSecret(dir, name, 32)
	if err != nil {
		return nil, nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "session*.key"))
	if err != nil {
		return nil, nil, err
	}
	retired := map[string][]byte{}
	for _, path := range matches {
		base := filepath.Base(path)
		if base == name {
			continue
		}
		kid := unkeyedSessionKid
		if base != "session.key" {
			kid = strings.TrimSuffix(strings.TrimPrefix(base, "session-"), ".key")
		}
		if kid == "" || kid == keyID {
			continue
		}
		key, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if len(key) < 32 {
			return nil, nil, fmt.Errorf("%s: want 32 bytes, have %d", path, len(key))
		}
		retired[kid] = key
	}
	if len(retired) == 0 {
		retired = nil
	}
	return current, retired, nil
}
