// Package otel binds schoolGuard engine counters to OpenTelemetry
// observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine
// counter and one Int64ObservableGauge per histogram bucket. A single
// callback reads [schoolGuard.Engine.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
