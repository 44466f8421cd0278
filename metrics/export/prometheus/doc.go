// Package prometheus exposes schoolGuard engine counters as a
// client_golang [prometheus.Collector].
//
// [NewCollector] reads [schoolGuard.Engine.MetricsSnapshot] on every
// scrape and emits const metrics, so no state is duplicated. Counter names
// are schoolguard_*_total; the single histogram is
// schoolguard_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register itself in the global registry; callers choose the registry.
//   - Mutate engine state.
package prometheus
