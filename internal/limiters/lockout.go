package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/deviceauth/kv"
)

// LockoutConfig holds configuration for the device login lockout limiter.
type LockoutConfig struct {
	MaxAttempts int
	Duration    time.Duration
	AttemptsKey string
	LockoutKey  string
}

var (
	// ErrLockoutUnavailable indicates the lockout backend could not be read or written.
	ErrLockoutUnavailable = errors.New("lockout backend unavailable")
)

// Failure is the outcome of recording one failed attempt.
type Failure struct {
	Attempts    int
	Triggered   bool
	LockedUntil time.Time
}

// LockoutLimiter counts failed login attempts and persists the lockout
// deadline once the threshold is reached. It holds no lock of its own: the
// caller serializes the read-decide-write sequence.
type LockoutLimiter struct {
	store  kv.Store
	config LockoutConfig
}

// NewLockoutLimiter creates a new lockout limiter.
func NewLockoutLimiter(store kv.Store, cfg LockoutConfig) *LockoutLimiter {
	return &LockoutLimiter{store: store, config: cfg}
}

// LockedUntil returns the persisted lockout deadline. ok is false when no
// lockout is recorded.
func (l *LockoutLimiter) LockedUntil(ctx context.Context) (until time.Time, ok bool, err error) {
	ms, err := kv.GetInt64(ctx, l.store, l.config.LockoutKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return time.UnixMilli(ms), true, nil
}

// RecordFailure increments the attempt counter and, when the new count reaches
// MaxAttempts, writes a lockout deadline of now+Duration.
func (l *LockoutLimiter) RecordFailure(ctx context.Context, now time.Time) (Failure, error) {
	count, err := l.store.Incr(ctx, l.config.AttemptsKey)
	if err != nil {
		return Failure{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}

	result := Failure{Attempts: int(count)}
	if count < int64(l.config.MaxAttempts) {
		return result, nil
	}

	until, err := l.Arm(ctx, now)
	if err != nil {
		return result, err
	}
	result.Triggered = true
	result.LockedUntil = until
	return result, nil
}

// Arm writes a lockout deadline of now+Duration regardless of the counter.
func (l *LockoutLimiter) Arm(ctx context.Context, now time.Time) (time.Time, error) {
	until := now.Add(l.config.Duration)
	if err := kv.SetInt64(ctx, l.store, l.config.LockoutKey, until.UnixMilli()); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return until, nil
}

// Exhausted reports whether the counter has reached MaxAttempts. A counter at
// the threshold with no deadline means the deadline write after the last
// increment never landed.
func (l *LockoutLimiter) Exhausted(ctx context.Context) (bool, error) {
	n, err := l.Attempts(ctx)
	if err != nil {
		return false, err
	}
	return n >= l.config.MaxAttempts, nil
}

// Reset clears both the attempt counter and the lockout deadline.
func (l *LockoutLimiter) Reset(ctx context.Context) error {
	if err := l.store.Delete(ctx, l.config.AttemptsKey); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	if err := l.store.Delete(ctx, l.config.LockoutKey); err != nil {
		return fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return nil
}

// Attempts returns the current failed-attempt count. Missing counters read as 0.
func (l *LockoutLimiter) Attempts(ctx context.Context) (int, error) {
	count, err := kv.GetInt64(ctx, l.store, l.config.AttemptsKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLockoutUnavailable, err)
	}
	return int(count), nil
}

// RemainingMinutes rounds the time left until deadline up to whole minutes.
func RemainingMinutes(until, now time.Time) int {
	left := until.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Minute - 1) / time.Minute)
}
