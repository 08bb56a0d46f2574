// Package otel provides an OpenTelemetry metric exporter for hireAuth counters
// and histograms.
//
// [NewExporter] registers an Int64ObservableCounter for each hireAuth counter
// and an Int64ObservableGauge per histogram bucket. A single callback reads
// [hireAuth.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
