// Package session persists the single device session record.
//
// # Encoding
//
// The record is stored as JSON: {"user": {...}, "token": "...", "expiresAt": <ms>}.
// expiresAt is milliseconds since the Unix epoch. [Decode] rejects records
// without a token, user id or expiry so a half-written value is never mistaken
// for a live session.
//
// # Architecture boundaries
//
// This package owns the [Store] (kv operations under one key) and the [Session]
// model. It does NOT verify tokens or decide whether a session may be restored;
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import deviceauth or jwt (no upward imports).
//   - Store passwords or vault secrets in [Session] fields.
package session
