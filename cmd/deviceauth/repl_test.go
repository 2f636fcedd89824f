package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/MrEthical07/deviceauth"
	"github.com/MrEthical07/deviceauth/authstate"
	"github.com/MrEthical07/deviceauth/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestREPL(t *testing.T, input string) (*repl, *deviceauth.Engine, *bytes.Buffer) {
	t.Helper()
	cfg := deviceauth.DefaultConfig()
	cfg.Session.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Registration.EnforceFormat = true
	engine, err := deviceauth.New().WithConfig(cfg).WithStore(kv.NewMemory()).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	var out bytes.Buffer
	provider := authstate.New(engine)
	r := newREPL(engine, provider, bufio.NewReader(strings.NewReader(input)), &out)
	return r, engine, &out
}

const registerInput = "register\n" +
	"Dana\nScully\ndana@example.com\ndana\n+1 202 555 0114\nUS\n1964-02-23\n" +
	"Trust@No1\nTrust@No1\ny\n"

func TestREPLRegisterAndLogin(t *testing.T) {
	input := registerInput +
		"logout\n" +
		"login\ndana\nTrust@No1\n" +
		"whoami\n" +
		"quit\n"
	r, engine, out := newTestREPL(t, input)
	ctx := context.Background()

	require.NoError(t, r.run(ctx))

	text := out.String()
	assert.Contains(t, text, "Password strength: Strong (5/5)")
	assert.Contains(t, text, "Welcome, Dana! Your account was created.")
	assert.Contains(t, text, "Signed in as dana.")
	assert.Contains(t, text, "Dana Scully <dana@example.com> @dana")

	d, err := engine.RegistrationDraft(ctx)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestREPLRegisterValidationKeepsDraft(t *testing.T) {
	input := "register\n" +
		"Dana\nScully\nnot-an-email\ndana\n+1 202 555 0114\nUS\n1964-02-23\n" +
		"Trust@No1\nTrust@No1\ny\n" +
		"quit\n"
	r, engine, out := newTestREPL(t, input)
	ctx := context.Background()

	require.NoError(t, r.run(ctx))
	assert.Contains(t, out.String(), "email: Please enter a valid email address")

	d, err := engine.RegistrationDraft(ctx)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "not-an-email", d.Email)
	assert.True(t, d.AgreeToTerms)
}

func TestREPLLockoutMessages(t *testing.T) {
	var b strings.Builder
	b.WriteString(registerInput)
	b.WriteString("logout\n")
	for i := 0; i < 5; i++ {
		b.WriteString("login\ndana\nwrong\n")
	}
	b.WriteString("login\nstatus\nquit\n")
	r, _, out := newTestREPL(t, b.String())

	require.NoError(t, r.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Invalid credentials. 4 attempt(s) remaining.")
	assert.Contains(t, text, "Too many failed attempts. Account locked for 15 minutes.")
	assert.Contains(t, text, "Account locked. Try again in 15 minute(s).")
	assert.Contains(t, text, "Locked for 15 more minute(s).")
}

func TestREPLThemeAndBiometric(t *testing.T) {
	r, engine, out := newTestREPL(t, "theme dark\ntheme\ntheme sepia\nbiometric\nbogus\nquit\n")
	ctx := context.Background()

	require.NoError(t, r.run(ctx))

	text := out.String()
	assert.Contains(t, text, "Theme set to dark.")
	assert.Contains(t, text, "Theme: dark")
	assert.Contains(t, text, "error: invalid theme mode")
	assert.Contains(t, text, "Biometric login is not available on this device.")
	assert.Contains(t, text, `unknown command "bogus"`)

	mode, ok := engine.ThemeMode(ctx)
	require.True(t, ok)
	assert.Equal(t, deviceauth.ThemeDark, mode)
}

func TestREPLStopsAtEOF(t *testing.T) {
	r, _, _ := newTestREPL(t, "whoami\n")
	assert.NoError(t, r.run(context.Background()))
}

func TestLoadSessionKeysKeepsRetiredFiles(t *testing.T) {
	dir := t.TempDir()

	first, retired, err := loadSessionKeys(dir, "")
	require.NoError(t, err)
	assert.Len(t, first, 32)
	assert.Nil(t, retired)

	second, retired, err := loadSessionKeys(dir, "k2")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, map[string][]byte{unkeyedSessionKid: first}, retired)

	again, _, err := loadSessionKeys(dir, "k2")
	require.NoError(t, err)
	assert.Equal(t, second, again)

	third, retired, err := loadSessionKeys(dir, "k3")
	require.NoError(t, err)
	assert.NotEqual(t, second, third)
	assert.Equal(t, first, retired[unkeyedSessionKid])
	assert.Equal(t, second, retired["k2"])
	assert.NotContains(t, retired, "k3")
}

func TestRotatedSessionKeysRestoreThroughEngine(t *testing.T) {
	dir := t.TempDir()
	store := kv.NewMemory()
	ctx := context.Background()

	build := func(keyID string) *deviceauth.Engine {
		key, retired, err := loadSessionKeys(dir, keyID)
		require.NoError(t, err)
		cfg := deviceauth.DefaultConfig()
		cfg.Session.PrivateKey = key
		cfg.Session.KeyID = keyID
		cfg.Session.VerifyKeys = retired
		engine, err := deviceauth.New().WithConfig(cfg).WithStore(store).Build()
		require.NoError(t, err)
		t.Cleanup(engine.Close)
		return engine
	}

	engine := build("")
	_, err := engine.Register(ctx, deviceauth.RegistrationData{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Username: "ada",
		PhoneNumber: "+44 20 7946 0958", Country: "GB", DateOfBirth: "1815-12-10",
		Password: "Engine@1843", ConfirmPassword: "Engine@1843", AgreeToTerms: true,
	})
	require.NoError(t, err)
	res, err := engine.Login(ctx, "ada", "Engine@1843")
	require.NoError(t, err)
	require.True(t, res.Success)

	user, err := build("k2").RestoreSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada", user.Username)
}
