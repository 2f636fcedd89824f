// Package vault stores the single identifier/secret pair used for biometric
// re-authentication, separately from general key-value persistence.
//
// [FileVault] seals the pair with AES-256-GCM under a key derived by argon2id
// from a device secret (the platform keystore's contribution) and a fresh random
// salt per write. [Memory] keeps the pair in process memory for tests.
//
// Both honour an optional [Locker]: while the device reports itself locked every
// operation fails with [ErrVaultLocked].
package vault
