package deviceauth

import (
	"context"
	"fmt"
)

// BiometricAvailable reports whether an enrolled biometric sensor is present.
func (e *Engine) BiometricAvailable(ctx context.Context) bool {
	if e == nil {
		return false
	}
	return e.biometric.IsAvailable(ctx)
}

// BiometricType returns the sensor label (for example "FaceID"), or ("", false).
func (e *Engine) BiometricType(ctx context.Context) (string, bool) {
	if e == nil {
		return "", false
	}
	return e.biometric.BiometricType(ctx)
}

// BiometricLogin describes the biometriclogin operation and its observable behavior.
//
// BiometricLogin unlocks the saved credentials with a biometric prompt and
// runs them through Login, so lockout rules apply exactly as for typed
// credentials. It fails with ErrBiometricUnavailable, ErrNoSavedCredentials
// or ErrBiometricRejected before any attempt is consumed.
func (e *Engine) BiometricLogin(ctx context.Context, reason string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	if !e.biometric.IsAvailable(ctx) {
		return LoginResult{}, e.biometricFailed(ctx, ErrBiometricUnavailable)
	}

	creds, err := e.vault.Get(ctx)
	if err != nil {
		return LoginResult{}, e.biometricFailed(ctx, fmt.Errorf("%w: %w", ErrVaultUnavailable, err))
	}
	if creds == nil || creds.Identifier == "" {
		return LoginResult{}, e.biometricFailed(ctx, ErrNoSavedCredentials)
	}

	if reason == "" {
		reason = e.config.Biometric.DefaultReason
	}
	if !e.biometric.Authenticate(ctx, reason) {
		return LoginResult{}, e.biometricFailed(ctx, ErrBiometricRejected)
	}

	ctx = WithOrigin(ctx, OriginBiometric)
	e.metricInc(MetricBiometricSuccess)
	e.emitAudit(ctx, auditEventBiometricSuccess, true, "", "", nil, nil)

	return e.Login(ctx, creds.Identifier, creds.Secret)
}

func (e *Engine) biometricFailed(ctx context.Context, err error) error {
	ctx = WithOrigin(ctx, OriginBiometric)
	e.metricInc(MetricBiometricFailure)
	e.emitAudit(ctx, auditEventBiometricFailure, false, "", "", err, nil)
	return err
}

// HasSavedCredentials reports whether the vault holds a credential pair.
// Vault faults read as false.
func (e *Engine) HasSavedCredentials(ctx context.Context) bool {
	if e.ready() != nil {
		return false
	}
	creds, err := e.vault.Get(ctx)
	if err != nil {
		e.warn(ctx, "credential vault unreadable", err)
		return false
	}
	return creds != nil
}

// ForgetSavedCredentials clears the vault, disabling biometric login until the
// next successful Login.
func (e *Engine) ForgetSavedCredentials(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.vault.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrVaultUnavailable, err)
	}
	return nil
}
