package deviceauth

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/MrEthical07/deviceauth/internal"
	"github.com/MrEthical07/deviceauth/kv"
)

func TestAudit_LockoutFlowEvents(t *testing.T) {
	env := newTestEnv(t)
	env.registerAlice(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.engine.Login(ctx, "alice", "wrong")
	}
	env.engine.Login(ctx, "alice", "Secret@123")
	env.engine.Close()

	types := env.sink.Types()
	want := []string{
		auditEventRegisterSuccess,
		auditEventLoginFailure,
		auditEventLoginFailure,
		auditEventLoginFailure,
		auditEventLoginFailure,
		auditEventLockoutTriggered,
		auditEventLoginLocked,
	}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", types, want)
	}

	events := env.sink.Events()
	failure := events[1]
	if failure.Error != string(auditErrInvalidCredentials) || failure.Success {
		t.Fatalf("unexpected failure event %+v", failure)
	}
	if failure.Metadata["identifier"] != internal.HashIdentifier("alice") {
		t.Fatalf("identifier should be hashed, got %q", failure.Metadata["identifier"])
	}
	if events[6].Metadata["remaining_minutes"] != "15" || events[6].Error != string(auditErrAccountLocked) {
		t.Fatalf("unexpected locked event %+v", events[6])
	}
	for _, ev := range events {
		if strings.Contains(ev.Metadata["identifier"], "alice") {
			t.Fatalf("raw identifier leaked into %+v", ev)
		}
		if ev.Origin != OriginForm {
			t.Fatalf("origin = %q, want form", ev.Origin)
		}
	}
}

func TestAudit_SessionEvents(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerAlice(t)
	ctx := context.Background()

	env.engine.Login(ctx, "alice", "Secret@123")
	env.engine.RestoreSession(ctx)
	env.engine.Logout(ctx)
	env.engine.Close()

	var created, restored, logout *AuditEvent
	events := env.sink.Events()
	for i := range events {
		switch events[i].EventType {
		case auditEventSessionCreated:
			created = &events[i]
		case auditEventSessionRestored:
			restored = &events[i]
		case auditEventLogout:
			logout = &events[i]
		}
	}
	if created == nil || restored == nil || logout == nil {
		t.Fatalf("missing session events in %v", env.sink.Types())
	}
	if created.SessionID == "" || created.SessionID != restored.SessionID {
		t.Fatalf("session ids differ: %q vs %q", created.SessionID, restored.SessionID)
	}
	if logout.UserID != alice.ID || !logout.Success {
		t.Fatalf("unexpected logout event %+v", logout)
	}
	if !created.Timestamp.Equal(env.clock.Now()) {
		t.Fatalf("timestamp %v not taken from the engine clock", created.Timestamp)
	}
}

func TestAudit_JSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	engine, err := New().WithConfig(testConfig()).
		WithStore(kv.NewMemory()).
		WithAuditSink(NewJSONWriterSink(&buf)).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	engine.Login(context.Background(), "nobody", "x")
	engine.Close()

	var ev AuditEvent
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if ev.EventType != auditEventLoginFailure || ev.Origin != OriginForm {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAudit_DisabledByDefault(t *testing.T) {
	engine, err := New().WithConfig(testConfig()).WithStore(kv.NewMemory()).Build()
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	engine.Login(context.Background(), "nobody", "x")
	if engine.AuditDropped() != 0 {
		t.Fatal("disabled audit should not drop")
	}
}

func TestSecurityReport(t *testing.T) {
	env := newTestEnv(t)

	r := env.engine.SecurityReport()
	if r.MaxAttempts != 5 || r.SigningAlgorithm != "hs256" || !r.AuditEnabled || !r.BiometricConfigured {
		t.Fatalf("unexpected report %+v", r)
	}
	if containsString(r.LintCodes, "audit_disabled") {
		t.Fatal("report lint should reflect the enabled audit sink")
	}
}
