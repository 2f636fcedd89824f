// Package security derives the engine's security posture report from its
// configuration.
//
// # What this package must NOT do
//
//   - Import deviceauth. The root package converts its Config into a ReportInput.
//   - Perform I/O.
package security
