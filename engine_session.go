package deviceauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/deviceauth/internal/limiters"
	"github.com/MrEthical07/deviceauth/session"
)

// RestoreSession describes the restoresession operation and its observable behavior.
//
// RestoreSession returns the stored user when the session token verifies and
// the session has not expired. An expired or unverifiable session is deleted
// and nil is returned. Unreadable state is treated as no session.
func (e *Engine) RestoreSession(ctx context.Context) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, err := e.sessions.Get(ctx)
	if err != nil {
		if !errors.Is(err, session.ErrSessionNotFound) {
			e.warn(ctx, "session unreadable, treating as absent", err)
		}
		return nil, nil
	}

	now := e.clock.Now()
	if sess.Expired(now) {
		e.dropSession(ctx, sess, auditErrSessionExpired)
		return nil, nil
	}
	claims, err := e.tokens.Parse(sess.Token, now)
	if err != nil || claims.UID != sess.User.ID {
		e.dropSession(ctx, sess, auditErrInvalidToken)
		return nil, nil
	}

	e.metricInc(MetricSessionRestored)
	e.emitAudit(ctx, auditEventSessionRestored, true, sess.User.ID, claims.ID, nil, nil)

	user := sess.User
	return &user, nil
}

// dropSession requires e.mu.
func (e *Engine) dropSession(ctx context.Context, sess *session.Session, code AuditErrorCode) {
	if err := e.sessions.Delete(ctx); err != nil {
		e.warn(ctx, "stale session delete failed", err)
	}
	e.metricInc(MetricSessionExpired)
	e.emitAudit(ctx, auditEventSessionExpired, false, sess.User.ID, "", auditCodeError(code), nil)
}

// Logout describes the logout operation and its observable behavior.
//
// Logout removes the stored session. It is idempotent; only a storage fault
// is returned, wrapped in ErrSessionPersistFailed.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var userID string
	if sess, err := e.sessions.Get(ctx); err == nil {
		userID = sess.User.ID
	}

	if err := e.sessions.Delete(ctx); err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionPersistFailed, err)
		e.emitAudit(ctx, auditEventLogout, false, userID, "", err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, "", nil, nil)
	return nil
}

// CheckLockoutStatus describes the checklockoutstatus operation and its observable behavior.
//
// CheckLockoutStatus is a read-only projection of the lockout deadline. It
// never clears an expired lockout; the next Login does that. A counter at the
// threshold with no deadline reports a full lockout, which the next Login
// persists.
func (e *Engine) CheckLockoutStatus(ctx context.Context) LockoutStatus {
	if e.ready() != nil {
		return LockoutStatus{}
	}

	until, locked, err := e.lockout.LockedUntil(ctx)
	if err != nil {
		e.warn(ctx, "lockout state unreadable, treating as absent", err)
		return LockoutStatus{}
	}
	if !locked {
		if exhausted, err := e.lockout.Exhausted(ctx); err == nil && exhausted {
			return LockoutStatus{IsLocked: true, RemainingMinutes: lockoutMinutes(e.config.Lockout.Duration)}
		}
		return LockoutStatus{}
	}

	now := e.clock.Now()
	if !now.Before(until) {
		return LockoutStatus{}
	}
	return LockoutStatus{
		IsLocked:         true,
		RemainingMinutes: limiters.RemainingMinutes(until, now),
	}
}

// CurrentSession returns the stored session without verifying or expiring it.
// It returns (nil, nil) when no session is stored.
func (e *Engine) CurrentSession(ctx context.Context) (*Session, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	sess, err := e.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// FailedAttempts returns the persisted failed-attempt count. Unreadable state reads as 0.
func (e *Engine) FailedAttempts(ctx context.Context) int {
	if e.ready() != nil {
		return 0
	}
	n, err := e.lockout.Attempts(ctx)
	if err != nil {
		e.warn(ctx, "attempt counter unreadable", err)
		return 0
	}
	return n
}
