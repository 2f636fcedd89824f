package deviceauth

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrRegistrationInvalid is returned when registration data lacks an email, username or password.
	ErrRegistrationInvalid = errors.New("invalid registration request")
	// ErrDuplicateIdentity is returned when the email or username is already registered.
	ErrDuplicateIdentity = errors.New("identity already registered")
	// ErrRegistrationUnavailable wraps directory faults during registration.
	ErrRegistrationUnavailable = errors.New("registration backend unavailable")
	// ErrLockoutPersistFailed is returned when the attempt counter or lockout deadline cannot be written.
	ErrLockoutPersistFailed = errors.New("lockout state persist failed")
	// ErrSessionPersistFailed is returned when a session cannot be saved or removed.
	ErrSessionPersistFailed = errors.New("session persist failed")
	// ErrSessionIssueFailed is returned when a session token cannot be signed.
	ErrSessionIssueFailed = errors.New("session token issue failed")
	// ErrBiometricUnavailable is returned when no enrolled biometric sensor is present.
	ErrBiometricUnavailable = errors.New("biometric authentication unavailable")
	// ErrBiometricRejected is returned when the biometric prompt is denied or canceled.
	ErrBiometricRejected = errors.New("biometric authentication rejected")
	// ErrNoSavedCredentials is returned when biometric login finds an empty vault.
	ErrNoSavedCredentials = errors.New("no saved credentials")
	// ErrVaultUnavailable wraps vault faults surfaced to the caller.
	ErrVaultUnavailable = errors.New("credential vault unavailable")
	// ErrInvalidThemeMode is returned for theme values other than light or dark.
	ErrInvalidThemeMode = errors.New("invalid theme mode")
	// ErrPreferencePersistFailed is returned when a draft or preference cannot be written.
	ErrPreferencePersistFailed = errors.New("preference persist failed")
)
