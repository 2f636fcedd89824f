// Package internaldefs holds the metric names shared by the Prometheus and OTel
// exporters and the scrape step both run.
//
// [Collect] reads one engine snapshot, the audit dispatcher stats and the
// current lockout state into a [Sample], so every exporter reports the same
// names, buckets and device-state gauges.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Write engine state. Collect only calls read-only engine methods.
package internaldefs
