package deviceauth

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by deviceauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Lockout      LockoutConfig
	Session      SessionConfig
	Registration RegistrationConfig
	Storage      StorageConfig
	Vault        VaultConfig
	Biometric    BiometricConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the failed-login lockout state machine.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and token signing.
type SessionConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	// KeyID names PrivateKey in the kid header of new session tokens.
	KeyID string
	// VerifyKeys keeps retired signing keys by kid so sessions persisted
	// before a key rotation still restore.
	VerifyKeys map[string][]byte
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig controls Register.
type RegistrationConfig struct {
	// EnforceFormat runs ValidateRegistration inside Register. When false only
	// email, username and password presence is checked.
	EnforceFormat bool
}

// StorageConfig controls the kv key layout.
type StorageConfig struct {
	// KeyPrefix is prepended to every kv key. Empty keeps the bare names
	// (session, login_attempts, ...).
	KeyPrefix string
}

// VaultConfig controls credential retention.
type VaultConfig struct {
	// SaveOnLogin stores the identifier/password pair after each successful
	// login so BiometricLogin can replay it.
	SaveOnLogin bool
}

// BiometricConfig controls the biometric prompt.
type BiometricConfig struct {
	DefaultReason string
}

// AuditConfig defines a public type used by deviceauth APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// SinkTimeout bounds each sink call so a stalled sink cannot hold up Close.
	SinkTimeout time.Duration
}

// MetricsConfig defines a public type used by deviceauth APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	keySession           = "session"
	keyRegistrationDraft = "registration_draft"
	keyLoginAttempts     = "login_attempts"
	keyLockoutUntil      = "lockout_until"
	keyThemeMode         = "theme_mode"
)

// DefaultConfig returns the standard device policy: 5 attempts, 15 minute
// lockout, 24 hour sessions signed with HS256. Session.PrivateKey must still
// be supplied.
func DefaultConfig() Config {
	return Config{
		Lockout: LockoutConfig{
			MaxAttempts: 5,
			Duration:    15 * time.Minute,
		},
		Session: SessionConfig{
			TTL:           24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "deviceauth",
		},
		Vault: VaultConfig{
			SaveOnLogin: true,
		},
		Biometric: BiometricConfig{
			DefaultReason: "Authenticate to access your account",
		},
		Audit: AuditConfig{
			Enabled:     false,
			BufferSize:  256,
			DropIfFull:  true,
			SinkTimeout: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.PrivateKey = cloneBytes(cfg.Session.PrivateKey)
	out.Session.PublicKey = cloneBytes(cfg.Session.PublicKey)
	if cfg.Session.VerifyKeys != nil {
		out.Session.VerifyKeys = make(map[string][]byte, len(cfg.Session.VerifyKeys))
		for kid, key := range cfg.Session.VerifyKeys {
			out.Session.VerifyKeys[kid] = cloneBytes(key)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c Config) key(name string) string {
	return c.Storage.KeyPrefix + name
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Lockout.MaxAttempts <= 0 {
		return errors.New("Lockout MaxAttempts must be > 0")
	}
	if c.Lockout.Duration < time.Second {
		return errors.New("Lockout Duration must be >= 1s")
	}

	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	switch strings.ToLower(c.Session.SigningMethod) {
	case "hs256":
		if len(c.Session.PrivateKey) < 32 {
			return errors.New("Session hs256 key must be at least 256 bits")
		}
	case "ed25519":
		if len(c.Session.PrivateKey) == 0 {
			return errors.New("Session ed25519 requires PrivateKey")
		}
		if len(c.Session.PublicKey) == 0 {
			return errors.New("Session ed25519 requires PublicKey")
		}
	default:
		return errors.New("Session SigningMethod must be hs256 or ed25519")
	}
	for kid := range c.Session.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return errors.New("Session VerifyKeys must not contain an empty kid")
		}
		if kid == c.Session.KeyID {
			return errors.New("Session KeyID must not also be a retired VerifyKeys entry")
		}
		if strings.EqualFold(c.Session.SigningMethod, "hs256") && len(c.Session.VerifyKeys[kid]) < 32 {
			return errors.New("Session hs256 retired keys must be at least 256 bits")
		}
	}

	if strings.ContainsAny(c.Storage.KeyPrefix, " \t\n") {
		return errors.New("Storage KeyPrefix must not contain whitespace")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}
	if c.Audit.SinkTimeout < 0 {
		return errors.New("Audit SinkTimeout must be >= 0")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
