// Package internal contains helper utilities that are intentionally private to
// deviceauth: session token identifiers and identifier fingerprints.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - limiters: login attempt counter and lockout deadline over kv.Store
//   - metrics: lock-free counters and latency histograms
//   - security: posture report derived from the engine configuration
//
// # What this package must NOT do
//
//   - Export types that appear in the public deviceauth API.
//   - Be imported by any package outside the deviceauth module.
package internal
