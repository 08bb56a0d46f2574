// Package prometheus provides a Prometheus collector for hireAuth metrics.
//
// [NewCollector] wraps an [hireAuth.Engine] and reads its counters on every
// scrape. Counter names are prefixed hireauth_*_total; the single histogram is
// hireauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers register the
//     Collector themselves or mount [Collector.Handler].
//   - Mutate engine state.
package prometheus
