// Package prometheus renders deviceauth metrics in Prometheus text exposition
// format.
//
// [NewExporter] wraps an [deviceauth.Engine]; its Handler serves the
// deviceauth_*_total counters, the deviceauth_login_latency_seconds histogram
// and gauges for the current lockout, attempt counter and audit queue.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
