// Package limiters provides the device login lockout limiter.
//
// [LockoutLimiter] keeps two values in a [kv.Store]: the failed-attempt
// counter (an integer string advanced with the store's atomic Incr) and the
// lockout deadline (milliseconds since the Unix epoch). Expiry is observed
// lazily by the caller; nothing here runs on a timer.
//
// # Architecture boundaries
//
// The limiter owns its two keys and its error type. Thresholds and key names
// come from [LockoutConfig] supplied at construction time.
//
// # What this package must NOT do
//
//   - Import deviceauth or any sibling internal package.
//   - Make policy decisions beyond counting and recording the deadline; the
//     engine decides what a lockout means for a login attempt.
package limiters
