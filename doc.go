// Package deviceauth is an on-device authentication engine: account
// registration against a local directory, password login with a persistent
// attempt lockout, a signed local session restored at startup, and biometric
// login backed by a credential vault.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Login, RestoreSession and Logout
// are serialized by one engine lock so lockout counters and the session
// record never interleave.
//
// # Architecture boundaries
//
// deviceauth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types (LoginResult, LockoutStatus, RegistrationData, etc.).
// Persistence is reached through the kv, directory and vault packages, each
// of which ships in-memory and durable backends. Lockout bookkeeping, audit
// dispatch and metrics live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Write a password into the key-value store or a registration draft.
//   - Hold the engine lock while a biometric prompt is on screen.
//   - Consume a lockout attempt for a login rejected because the account is
//     already locked.
//   - Import any sub-package that re-imports deviceauth (no import cycles).
package deviceauth
