// Package kv provides the key-value persistence port used by the authentication
// engine and three backends for it.
//
// # Backends
//
//   - [Memory]: process-local map, for tests and ephemeral engines.
//   - [Bolt]: single-file bbolt database; survives process restarts.
//   - [Redis]: go-redis client, for shared or emulator-backed storage.
//
// # Contract
//
// Values are opaque byte slices. A missing key yields [ErrNotFound]. [Store.Incr]
// must be atomic with respect to every other call on the same key: counters are
// stored as base-10 integer strings so the engine and external tooling read the
// same representation regardless of backend. There are no multi-key transactions;
// callers that need compound sequences serialize them themselves.
//
// # What this package must NOT do
//
//   - Interpret key names or value payloads.
//   - Swallow backend faults: every failure is returned wrapped in [ErrUnavailable].
package kv
