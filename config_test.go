package deviceauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/deviceauth/kv"
)

func TestConfigValidate_Defaults(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with key should validate: %v", err)
	}

	bare := DefaultConfig()
	if err := bare.Validate(); err == nil {
		t.Fatal("default config without a signing key should fail")
	}
}

func TestConfigValidate_Rejections(t *testing.T) {
	cases := map[string]func(*Config){
		"zero attempts":       func(c *Config) { c.Lockout.MaxAttempts = 0 },
		"sub-second lockout":  func(c *Config) { c.Lockout.Duration = 500 * time.Millisecond },
		"zero ttl":            func(c *Config) { c.Session.TTL = 0 },
		"short hs256 key":     func(c *Config) { c.Session.PrivateKey = []byte("short") },
		"unknown method":      func(c *Config) { c.Session.SigningMethod = "rs256" },
		"ed25519 without pub": func(c *Config) { c.Session.SigningMethod = "ed25519" },
		"prefix whitespace":   func(c *Config) { c.Storage.KeyPrefix = "dev 1:" },
		"empty retired kid":   func(c *Config) { c.Session.VerifyKeys = map[string][]byte{"": testSigningKey} },
		"kid current and retired": func(c *Config) {
			c.Session.KeyID = "k1"
			c.Session.VerifyKeys = map[string][]byte{"k1": testSigningKey}
		},
		"short retired key": func(c *Config) {
			c.Session.KeyID = "k2"
			c.Session.VerifyKeys = map[string][]byte{"k1": []byte("short")}
		},
		"negative sink timeout": func(c *Config) { c.Audit.SinkTimeout = -time.Second },
		"audit zero buffer": func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		},
		"latency without metrics": func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		},
	}
	for name, mut := range cases {
		cfg := testConfig()
		mut(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestConfigClone_IsolatesKeys(t *testing.T) {
	cfg := testConfig()
	engine, err := New().WithConfig(cfg).WithStore(kv.NewMemory()).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	cfg.Session.PrivateKey[0] = 'X'
	got := engine.Config()
	if got.Session.PrivateKey[0] != '0' {
		t.Fatal("engine config shares the caller's key slice")
	}
	got.Session.PrivateKey[1] = 'Y'
	if engine.Config().Session.PrivateKey[1] != '1' {
		t.Fatal("Config() returns the engine's key slice")
	}
}

func TestConfigClone_IsolatesRetiredKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Session.KeyID = "k2"
	cfg.Session.VerifyKeys = map[string][]byte{"k1": []byte("fedcba9876543210fedcba9876543210")}
	engine, err := New().WithConfig(cfg).WithStore(kv.NewMemory()).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	cfg.Session.VerifyKeys["k1"][0] = 'X'
	cfg.Session.VerifyKeys["k3"] = testSigningKey
	got := engine.Config().Session.VerifyKeys
	if len(got) != 1 || got["k1"][0] != 'f' {
		t.Fatalf("engine config shares the caller's retired keys: %v", got)
	}
}

func TestBuilder_RequiresStore(t *testing.T) {
	_, err := New().WithConfig(testConfig()).Build()
	if err == nil || !strings.Contains(err.Error(), "kv store") {
		t.Fatalf("expected missing store error, got %v", err)
	}
}

func TestBuilder_SingleUse(t *testing.T) {
	b := New().WithConfig(testConfig()).WithStore(kv.NewMemory())
	engine, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("second Build should fail")
	}
}

func TestBuilder_DefaultsWork(t *testing.T) {
	engine, err := New().WithConfig(testConfig()).WithStore(kv.NewMemory()).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	ctx := context.Background()

	if _, err := engine.Register(ctx, aliceRegistration()); err != nil {
		t.Fatalf("Register with default directory: %v", err)
	}
	res, err := engine.Login(ctx, "alice", "Secret@123")
	if err != nil || !res.Success {
		t.Fatalf("Login = %+v, %v", res, err)
	}
	if !engine.HasSavedCredentials(ctx) {
		t.Fatal("default vault should hold credentials")
	}
}

func TestBuilder_UppercaseSigningMethod(t *testing.T) {
	cfg := testConfig()
	cfg.Session.SigningMethod = "HS256"
	engine, err := New().WithConfig(cfg).WithStore(kv.NewMemory()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	if engine.Config().Session.SigningMethod != "hs256" {
		t.Fatalf("signing method not normalized: %q", engine.Config().Session.SigningMethod)
	}
}

func TestBuilder_MetricsDisabled(t *testing.T) {
	engine, err := New().WithConfig(testConfig()).WithStore(kv.NewMemory()).WithMetricsEnabled(false).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	engine.Login(context.Background(), "nobody", "x")
	if n := len(engine.MetricsSnapshot().Counters); n != 0 {
		t.Fatalf("disabled metrics produced %d counters", n)
	}
}
