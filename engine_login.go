package deviceauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/deviceauth/directory"
	"github.com/MrEthical07/deviceauth/internal"
	"github.com/MrEthical07/deviceauth/internal/limiters"
	"github.com/MrEthical07/deviceauth/session"
	"github.com/MrEthical07/deviceauth/vault"
)

// Login describes the login operation and its observable behavior.
//
// Login runs the lockout state machine for one credential attempt. Wrong
// passwords, unknown identifiers and active lockouts are reported through
// LoginResult with a nil error. The error return is reserved for failures to
// persist the attempt counter, the lockout deadline or the new session; in
// those cases the result is never successful.
func (e *Engine) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}

	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loginLocked(ctx, identifier, password)
}

// loginLocked requires e.mu.
func (e *Engine) loginLocked(ctx context.Context, identifier, password string) (LoginResult, error) {
	now := e.clock.Now()

	until, locked, err := e.lockout.LockedUntil(ctx)
	if err != nil {
		e.warn(ctx, "lockout state unreadable, treating as absent", err)
	}
	if locked {
		if now.Before(until) {
			return e.lockedResult(ctx, identifier, limiters.RemainingMinutes(until, now)), nil
		}

		if err := e.lockout.Reset(ctx); err != nil {
			return LoginResult{}, fmt.Errorf("%w: %v", ErrLockoutPersistFailed, err)
		}
		e.metricInc(MetricLockoutExpired)
		e.emitAudit(ctx, auditEventLockoutExpired, true, "", "", nil, nil)
	} else if err == nil {
		if res, stranded, err := e.rearmStranded(ctx, identifier, now); stranded || err != nil {
			return res, err
		}
	}

	rec, found := e.lookup(ctx, identifier)
	if found && subtle.ConstantTimeCompare([]byte(rec.Password), []byte(password)) == 1 {
		return e.completeLogin(ctx, identifier, password, rec.User, now)
	}
	return e.recordFailure(ctx, identifier, now)
}

// rearmStranded locks the device when the counter already reached the
// threshold but no deadline was persisted, as after a crash or a failed
// deadline write on the triggering attempt.
func (e *Engine) rearmStranded(ctx context.Context, identifier string, now time.Time) (LoginResult, bool, error) {
	exhausted, err := e.lockout.Exhausted(ctx)
	if err != nil {
		e.warn(ctx, "attempt counter unreadable, treating as zero", err)
		return LoginResult{}, false, nil
	}
	if !exhausted {
		return LoginResult{}, false, nil
	}

	until, err := e.lockout.Arm(ctx, now)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrLockoutPersistFailed, err)
		e.emitAudit(ctx, auditEventLoginLocked, false, "", "", err, nil)
		return LoginResult{}, true, err
	}
	e.metricInc(MetricLockoutTriggered)
	e.emitAudit(ctx, auditEventLockoutTriggered, false, "", "", auditCodeError(auditErrAttemptsExceeded), func() map[string]string {
		return map[string]string{"identifier": internal.HashIdentifier(identifier), "recovered": "true"}
	})
	return e.lockedResult(ctx, identifier, limiters.RemainingMinutes(until, now)), true, nil
}

func (e *Engine) lockedResult(ctx context.Context, identifier string, minutes int) LoginResult {
	e.metricInc(MetricLoginLocked)
	e.emitAudit(ctx, auditEventLoginLocked, false, "", "", auditCodeError(auditErrAccountLocked), func() map[string]string {
		return map[string]string{
			"identifier":        internal.HashIdentifier(identifier),
			"remaining_minutes": strconv.Itoa(minutes),
		}
	})
	return LoginResult{
		Reason:           ReasonLocked,
		RemainingMinutes: minutes,
		Error:            fmt.Sprintf("Account locked. Try again in %d minute(s).", minutes),
	}
}

func (e *Engine) lookup(ctx context.Context, identifier string) (directory.Record, bool) {
	rec, err := e.directory.Lookup(ctx, identifier)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			e.warn(ctx, "directory lookup failed, treating as mismatch", err)
		}
		return directory.Record{}, false
	}
	return rec, true
}

func (e *Engine) completeLogin(ctx context.Context, identifier, password string, user User, now time.Time) (LoginResult, error) {
	if err := e.lockout.Reset(ctx); err != nil {
		err = fmt.Errorf("%w: %v", ErrLockoutPersistFailed, err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", err, nil)
		return LoginResult{}, err
	}

	token, claims, err := e.tokens.Issue(user.ID, user.Username, now)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionIssueFailed, err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, "", err, nil)
		return LoginResult{}, err
	}

	sess := session.New(user, token, now, e.config.Session.TTL)
	if err := e.sessions.Save(ctx, sess); err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionPersistFailed, err)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, claims.ID, err, nil)
		return LoginResult{}, err
	}
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, user.ID, claims.ID, nil, func() map[string]string {
		return map[string]string{"expires_at": strconv.FormatInt(sess.ExpiresAt, 10)}
	})

	if e.config.Vault.SaveOnLogin {
		if err := e.vault.Save(ctx, vault.Credentials{Identifier: identifier, Secret: password}); err != nil {
			e.warn(ctx, "credential vault save failed", err)
		}
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, claims.ID, nil, nil)

	return LoginResult{Success: true, User: &user}, nil
}

func (e *Engine) recordFailure(ctx context.Context, identifier string, now time.Time) (LoginResult, error) {
	e.metricInc(MetricLoginFailure)

	failure, err := e.lockout.RecordFailure(ctx, now)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrLockoutPersistFailed, err)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, nil)
		return LoginResult{}, err
	}

	meta := func() map[string]string {
		return map[string]string{
			"identifier": internal.HashIdentifier(identifier),
			"attempts":   strconv.Itoa(failure.Attempts),
		}
	}

	if failure.Triggered {
		minutes := lockoutMinutes(e.config.Lockout.Duration)
		e.metricInc(MetricLockoutTriggered)
		e.emitAudit(ctx, auditEventLockoutTriggered, false, "", "", auditCodeError(auditErrAttemptsExceeded), meta)
		return LoginResult{
			Reason:           ReasonLockoutTriggered,
			RemainingMinutes: minutes,
			Error:            fmt.Sprintf("Too many failed attempts. Account locked for %d minutes.", minutes),
		}, nil
	}

	remaining := e.config.Lockout.MaxAttempts - failure.Attempts
	e.emitAudit(ctx, auditEventLoginFailure, false, "", "", auditCodeError(auditErrInvalidCredentials), meta)
	return LoginResult{
		Reason:            ReasonInvalidCredentials,
		RemainingAttempts: remaining,
		Error:             fmt.Sprintf("Invalid credentials. %d attempt(s) remaining.", remaining),
	}, nil
}

func lockoutMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}
