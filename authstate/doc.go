// Package authstate holds the UI-facing authentication state for one device:
// the current user, whether someone is signed in, and whether the startup
// session restore is still running.
//
// [Provider] wraps a [deviceauth.Engine] (or anything with the same methods)
// and notifies subscribers whenever the state changes.
//
// # What this package must NOT do
//
//   - Persist anything itself. All durable state belongs to the engine.
//   - Retry or reinterpret engine results; LoginResult is passed through as is.
package authstate
