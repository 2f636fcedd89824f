package deviceauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/deviceauth/biometric"
	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/kv"
	"github.com/MrEthical07/deviceauth/vault"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Emit(_ context.Context, e AuditEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEvent(nil), s.events...)
}

func (s *recordingSink) Types() []string {
	var out []string
	for _, e := range s.Events() {
		out = append(out, e.EventType)
	}
	return out
}

// failingStore wraps a kv.Store and fails operations selected by fail.
type failingStore struct {
	kv.Store
	mu   sync.Mutex
	fail func(op, key string) bool
}

func (f *failingStore) should(op, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail != nil && f.fail(op, key)
}

func (f *failingStore) setFail(fn func(op, key string) bool) {
	f.mu.Lock()
	f.fail = fn
	f.mu.Unlock()
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.should("get", key) {
		return nil, kv.ErrUnavailable
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.should("set", key) {
		return kv.ErrUnavailable
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.should("delete", key) {
		return kv.ErrUnavailable
	}
	return f.Store.Delete(ctx, key)
}

func (f *failingStore) Incr(ctx context.Context, key string) (int64, error) {
	if f.should("incr", key) {
		return 0, kv.ErrUnavailable
	}
	return f.Store.Incr(ctx, key)
}

type testEnv struct {
	engine *Engine
	store  kv.Store
	dir    directory.Directory
	vault  *vault.Memory
	sensor *biometric.Static
	clock  *fakeClock
	sink   *recordingSink
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Session.PrivateKey = append([]byte(nil), testSigningKey...)
	return cfg
}

type envOption func(*testEnv, *Builder)

func withStore(s kv.Store) envOption {
	return func(env *testEnv, _ *Builder) { env.store = s }
}

func withDirectory(d directory.Directory) envOption {
	return func(env *testEnv, _ *Builder) { env.dir = d }
}

func withClock(c *fakeClock) envOption {
	return func(env *testEnv, _ *Builder) { env.clock = c }
}

func withConfig(mut func(*Config)) envOption {
	return func(_ *testEnv, b *Builder) {
		cfg := testConfig()
		mut(&cfg)
		b.WithConfig(cfg)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	env := &testEnv{
		store:  kv.NewMemory(),
		dir:    directory.NewMemory(),
		vault:  vault.NewMemory(nil),
		sensor: &biometric.Static{Kind: biometric.KindFaceID},
		clock:  newFakeClock(),
		sink:   &recordingSink{},
	}

	b := New().WithConfig(testConfig())
	for _, opt := range opts {
		opt(env, b)
	}

	engine, err := b.
		WithStore(env.store).
		WithDirectory(env.dir).
		WithVault(env.vault).
		WithBiometric(biometric.NewPrompt(env.sensor)).
		WithClock(env.clock).
		WithAuditSink(env.sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	env.engine = engine
	return env
}

func aliceRegistration() RegistrationData {
	return RegistrationData{
		FirstName:       "Alice",
		LastName:        "Liddell",
		Email:           "alice@example.com",
		Username:        "alice",
		PhoneNumber:     "+1 555 010 0199",
		Country:         "GB",
		DateOfBirth:     "1990-04-01",
		Password:        "Secret@123",
		ConfirmPassword: "Secret@123",
		AgreeToTerms:    true,
	}
}

func (env *testEnv) registerAlice(t *testing.T) User {
	t.Helper()
	u, err := env.engine.Register(context.Background(), aliceRegistration())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
