package deviceauth

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/MrEthical07/deviceauth/biometric"
	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/internal/audit"
	"github.com/MrEthical07/deviceauth/internal/limiters"
	"github.com/MrEthical07/deviceauth/internal/metrics"
	"github.com/MrEthical07/deviceauth/jwt"
	"github.com/MrEthical07/deviceauth/kv"
	"github.com/MrEthical07/deviceauth/session"
	"github.com/MrEthical07/deviceauth/vault"
)

// Builder defines a public type used by deviceauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store     kv.Store
	directory directory.Directory
	vault     vault.Vault
	biometric *biometric.Prompt
	clock     Clock
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New starts from DefaultConfig. Build fails until a kv store and a session
// signing key are supplied.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the key-value persistence port. Required.
func (b *Builder) WithStore(store kv.Store) *Builder {
	b.store = store
	return b
}

// WithDirectory sets the user directory. Defaults to an empty in-memory directory.
func (b *Builder) WithDirectory(dir directory.Directory) *Builder {
	b.directory = dir
	return b
}

// WithVault sets the credential vault. Defaults to an in-memory vault.
func (b *Builder) WithVault(v vault.Vault) *Builder {
	b.vault = v
	return b
}

// WithBiometric sets the biometric prompt. Without one, biometric login is unavailable.
func (b *Builder) WithBiometric(p *biometric.Prompt) *Builder {
	b.biometric = p
	return b
}

// WithClock overrides the time source.
func (b *Builder) WithClock(c Clock) *Builder {
	b.clock = c
	return b
}

// WithLogger sets the structured logger for swallowed faults. Defaults to discard.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink sets the sink and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	if !enabled {
		b.config.Metrics.EnableLatencyHistograms = false
	}
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("kv store required")
	}

	cfg := cloneConfig(b.config)
	if cfg.Session.SigningMethod == "" {
		cfg.Session.SigningMethod = "hs256"
	}
	cfg.Session.SigningMethod = strings.ToLower(cfg.Session.SigningMethod)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.Session.TTL,
		SigningMethod: jwt.SigningMethod(cfg.Session.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Session.PrivateKey),
		PublicKey:     cloneBytes(cfg.Session.PublicKey),
		Issuer:        cfg.Session.Issuer,
		Audience:      cfg.Session.Audience,
		KeyID:         cfg.Session.KeyID,
		VerifyKeys:    cfg.Session.VerifyKeys,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		store:     b.store,
		directory: b.directory,
		vault:     b.vault,
		biometric: b.biometric,
		clock:     b.clock,
		logger:    b.logger,
		tokens:    tokens,
	}
	if engine.directory == nil {
		engine.directory = directory.NewMemory()
	}
	if engine.vault == nil {
		engine.vault = vault.NewMemory(nil)
	}
	if engine.clock == nil {
		engine.clock = systemClock{}
	}
	if engine.logger == nil {
		engine.logger = slog.New(slog.DiscardHandler)
	}

	engine.sessions = session.NewStore(b.store, cfg.key(keySession))
	engine.lockout = limiters.NewLockoutLimiter(b.store, limiters.LockoutConfig{
		MaxAttempts: cfg.Lockout.MaxAttempts,
		Duration:    cfg.Lockout.Duration,
		AttemptsKey: cfg.key(keyLoginAttempts),
		LockoutKey:  cfg.key(keyLockoutUntil),
	})
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		DropIfFull:  cfg.Audit.DropIfFull,
		SinkTimeout: cfg.Audit.SinkTimeout,
	}, b.auditSink)
	engine.metrics = metrics.New(metrics.Config{
		Enabled:                 cfg.Metrics.Enabled,
		EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
	})

	b.built = true

	return engine, nil
}
