package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testHMACKey = []byte("0123456789abcdef0123456789abcdef")

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func newHMACManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{TTL: 24 * time.Hour, SigningMethod: MethodHS256, PrivateKey: testHMACKey, Issuer: "deviceauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueProducesDistinctTokens(t *testing.T) {
	m := newHMACManager(t)
	now := time.UnixMilli(1_700_000_000_000)

	a, _, err := m.Issue("u1", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, _, err := m.Issue("u1", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct tokens for identical inputs")
	}

	ca, err := m.Parse(a, now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cb, _ := m.Parse(b, now)
	if ca.ID == cb.ID {
		t.Fatal("expected distinct jti values")
	}
	if ca.UID != "u1" || ca.Subject != "u1" || ca.Username != "ada" {
		t.Fatalf("unexpected claims: %+v", ca)
	}
}

func TestParseHonoursInjectedClock(t *testing.T) {
	m := newHMACManager(t)
	now := time.UnixMilli(1_700_000_000_123)

	token, _, err := m.Issue("u1", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sessionExpiry := now.Add(24 * time.Hour)
	if _, err := m.Parse(token, sessionExpiry.Add(-time.Millisecond)); err != nil {
		t.Fatalf("token expired before session expiry: %v", err)
	}
	if _, err := m.Parse(token, sessionExpiry.Add(2*time.Second)); err == nil {
		t.Fatal("expected token to be expired")
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := SessionClaims{UID: "u", RegisteredClaims: gjwt.RegisteredClaims{ID: "j", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	token, err := tok.SignedString(testHMACKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token, time.Now()); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestParseRejectsForeignKey(t *testing.T) {
	m := newHMACManager(t)
	other, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("ffffffffffffffffffffffffffffffff"), Issuer: "deviceauth"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	now := time.Now()
	token, _, err := other.Issue("u1", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token, now); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestParseRequiresExpiryAndIdentity(t *testing.T) {
	m := newHMACManager(t)
	now := time.Now()

	noExp := SessionClaims{UID: "u", RegisteredClaims: gjwt.RegisteredClaims{ID: "j", Issuer: "deviceauth"}}
	signed, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, noExp).SignedString(testHMACKey)
	if _, err := m.Parse(signed, now); err == nil {
		t.Fatal("expected token without exp to be rejected")
	}

	noJTI := SessionClaims{UID: "u", RegisteredClaims: gjwt.RegisteredClaims{Issuer: "deviceauth", ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute))}}
	signed, _ = gjwt.NewWithClaims(gjwt.SigningMethodHS256, noJTI).SignedString(testHMACKey)
	if _, err := m.Parse(signed, now); err == nil {
		t.Fatal("expected token without jti to be rejected")
	}
}

func TestParseIssuerAudienceAndKid(t *testing.T) {
	pub, priv := newEdKeys(t)
	m, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "deviceauth",
		Audience:      "cli",
		KeyID:         "k1",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	now := time.Now()

	good, _, err := m.Issue("u", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(good, now); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	wrongIssuer := SessionClaims{UID: "u", RegisteredClaims: gjwt.RegisteredClaims{
		ID:        "j",
		Issuer:    "other",
		Audience:  gjwt.ClaimStrings{"cli"},
		ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute)),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, wrongIssuer)
	tok.Header["kid"] = "k1"
	bad, _ := tok.SignedString(priv)
	if _, err := m.Parse(bad, now); err == nil {
		t.Fatal("expected wrong issuer to fail")
	}

	unknownKid := gjwt.NewWithClaims(gjwt.SigningMethodEdDSA, wrongIssuer)
	unknownKid.Header["kid"] = "k2"
	bad, _ = unknownKid.SignedString(priv)
	if _, err := m.Parse(bad, now); err == nil {
		t.Fatal("expected unknown kid failure")
	}
}

func TestNewManagerRejectsWeakConfig(t *testing.T) {
	cases := map[string]Config{
		"zero ttl":      {SigningMethod: MethodHS256, PrivateKey: testHMACKey},
		"short hmac":    {TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("short")},
		"no method":     {TTL: time.Hour, PrivateKey: testHMACKey},
		"ed no pubkey":  {TTL: time.Hour, SigningMethod: MethodEd25519},
		"kid reused":    {TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testHMACKey, KeyID: "x", VerifyKeys: map[string][]byte{"x": testHMACKey}},
		"empty kid":     {TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testHMACKey, VerifyKeys: map[string][]byte{" ": testHMACKey}},
		"short retired": {TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testHMACKey, KeyID: "b", VerifyKeys: map[string][]byte{"a": []byte("short")}},
		"bad ed vk":     {TTL: time.Hour, SigningMethod: MethodEd25519, PublicKey: make([]byte, ed25519.PublicKeySize), VerifyKeys: map[string][]byte{"a": []byte("nope")}},
	}
	for name, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected config error", name)
		}
	}
}

func TestParseAcceptsRetiredKeys(t *testing.T) {
	oldKey := []byte("fedcba9876543210fedcba9876543210")
	now := time.UnixMilli(1_700_000_000_000)

	legacy, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: oldKey, Issuer: "deviceauth"})
	if err != nil {
		t.Fatalf("legacy manager: %v", err)
	}
	noKid, _, err := legacy.Issue("u", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tagged, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: oldKey, Issuer: "deviceauth", KeyID: "a"})
	if err != nil {
		t.Fatalf("tagged manager: %v", err)
	}
	withKid, _, err := tagged.Issue("u", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	rotated, err := NewManager(Config{
		TTL:           time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    testHMACKey,
		Issuer:        "deviceauth",
		KeyID:         "b",
		VerifyKeys:    map[string][]byte{"a": oldKey},
	})
	if err != nil {
		t.Fatalf("rotated manager: %v", err)
	}
	for name, tok := range map[string]string{"no kid": noKid, "kid a": withKid} {
		if _, err := rotated.Parse(tok, now); err != nil {
			t.Fatalf("%s: retired key should verify: %v", name, err)
		}
	}
	fresh, _, err := rotated.Issue("u", "ada", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := rotated.Parse(fresh, now); err != nil {
		t.Fatalf("current key: %v", err)
	}

	dropped, err := NewManager(Config{TTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: testHMACKey, Issuer: "deviceauth", KeyID: "b"})
	if err != nil {
		t.Fatalf("dropped manager: %v", err)
	}
	if _, err := dropped.Parse(withKid, now); err == nil {
		t.Fatal("token under a removed kid must fail")
	}
	if _, err := dropped.Parse(noKid, now); err == nil {
		t.Fatal("token signed by a removed key must fail")
	}
}
