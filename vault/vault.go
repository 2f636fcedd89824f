package vault

import (
	"context"
	"errors"
	"sync"
)

// DefaultService is the logical name the credential pair is stored under.
const DefaultService = "app_credentials"

var (
	// ErrVaultLocked is returned while the device-unlock gate is closed.
	ErrVaultLocked = errors.New("vault locked")
	// ErrCorrupt is returned when a sealed record cannot be opened.
	ErrCorrupt = errors.New("vault record corrupt")
	// ErrUnavailable wraps storage faults.
	ErrUnavailable = errors.New("vault storage unavailable")
)

// Credentials is the saved login pair.
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// Vault retains at most one Credentials value; Save overwrites.
type Vault interface {
	Save(ctx context.Context, creds Credentials) error
	// Get returns (nil, nil) when nothing is stored.
	Get(ctx context.Context) (*Credentials, error)
	Clear(ctx context.Context) error
}

// Locker reports the device-unlock state gating vault access.
type Locker interface {
	Unlocked(ctx context.Context) bool
}

// LockerFunc adapts a function to Locker.
type LockerFunc func(ctx context.Context) bool

func (f LockerFunc) Unlocked(ctx context.Context) bool { return f(ctx) }

func checkUnlocked(ctx context.Context, l Locker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l != nil && !l.Unlocked(ctx) {
		return ErrVaultLocked
	}
	return nil
}

// Memory is an in-process Vault.
type Memory struct {
	mu     sync.Mutex
	creds  *Credentials
	locker Locker
}

// NewMemory returns an empty in-memory vault gated by locker (may be nil).
func NewMemory(locker Locker) *Memory {
	return &Memory{locker: locker}
}

func (m *Memory) Save(ctx context.Context, creds Credentials) error {
	if err := checkUnlocked(ctx, m.locker); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := creds
	m.creds = &c
	return nil
}

func (m *Memory) Get(ctx context.Context) (*Credentials, error) {
	if err := checkUnlocked(ctx, m.locker); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := checkUnlocked(ctx, m.locker); err != nil {
		return err
	}
	m.mu.Lock()
	m.creds = nil
	m.mu.Unlock()
	return nil
}
