package deviceauth

import (
	"context"
	"errors"

	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/vault"
)

const (
	auditEventRegisterSuccess   = "register_success"
	auditEventRegisterDuplicate = "register_duplicate"
	auditEventRegisterFailure   = "register_failure"
	auditEventLoginSuccess      = "login_success"
	auditEventLoginFailure      = "login_failure"
	auditEventLoginLocked       = "login_locked"
	auditEventLockoutTriggered  = "lockout_triggered"
	auditEventLockoutExpired    = "lockout_expired"
	auditEventSessionCreated    = "session_created"
	auditEventSessionRestored   = "session_restored"
	auditEventSessionExpired    = "session_expired"
	auditEventLogout            = "logout"
	auditEventBiometricSuccess  = "biometric_success"
	auditEventBiometricFailure  = "biometric_failure"
)

// AuditErrorCode defines a public type used by deviceauth APIs.
type AuditErrorCode string

const (
	auditErrInvalidCredentials   AuditErrorCode = "invalid_credentials"
	auditErrAccountLocked        AuditErrorCode = "account_locked"
	auditErrAttemptsExceeded     AuditErrorCode = "attempts_exceeded"
	auditErrInvalidRequest       AuditErrorCode = "invalid_request"
	auditErrDuplicate            AuditErrorCode = "duplicate"
	auditErrSessionExpired       AuditErrorCode = "session_expired"
	auditErrInvalidToken         AuditErrorCode = "invalid_token"
	auditErrSessionPersist       AuditErrorCode = "session_persist_failed"
	auditErrLockoutPersist       AuditErrorCode = "lockout_persist_failed"
	auditErrBiometricRejected    AuditErrorCode = "biometric_rejected"
	auditErrBiometricUnavailable AuditErrorCode = "biometric_unavailable"
	auditErrNoSavedCredentials   AuditErrorCode = "no_saved_credentials"
	auditErrVaultLocked          AuditErrorCode = "vault_locked"
	auditErrUnavailable          AuditErrorCode = "backend_unavailable"
	auditErrInternal             AuditErrorCode = "internal_error"
)

// auditCodeError carries an explicit code for expected outcomes that are not Go errors.
type auditCodeError AuditErrorCode

func (e auditCodeError) Error() string { return string(e) }

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.clock.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Origin:    originFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var explicit auditCodeError
	switch {
	case errors.As(err, &explicit):
		return AuditErrorCode(explicit)
	case errors.Is(err, ErrRegistrationInvalid):
		return auditErrInvalidRequest
	case errors.Is(err, ErrDuplicateIdentity), errors.Is(err, directory.ErrDuplicate):
		return auditErrDuplicate
	case errors.Is(err, ErrSessionPersistFailed), errors.Is(err, ErrSessionIssueFailed):
		return auditErrSessionPersist
	case errors.Is(err, ErrLockoutPersistFailed):
		return auditErrLockoutPersist
	case errors.Is(err, ErrBiometricRejected):
		return auditErrBiometricRejected
	case errors.Is(err, ErrBiometricUnavailable):
		return auditErrBiometricUnavailable
	case errors.Is(err, ErrNoSavedCredentials):
		return auditErrNoSavedCredentials
	case errors.Is(err, vault.ErrVaultLocked):
		return auditErrVaultLocked
	case errors.Is(err, ErrRegistrationUnavailable), errors.Is(err, ErrVaultUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
