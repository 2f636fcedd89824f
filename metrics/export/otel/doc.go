// Package otel publishes deviceauth metrics through OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// audit counter, Int64ObservableGauge instruments for latency buckets and for
// the current lockout state, and a single callback that scrapes the engine on
// each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
