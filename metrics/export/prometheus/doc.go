// Package prometheus exposes console metrics as a Prometheus collector.
//
// [NewCollector] accepts a [waterdesk.Console] and implements
// prometheus.Collector over its metric snapshots. [Handler] wires the
// collector into a private registry and returns an http.Handler ready to
// mount at /metrics.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry; callers mount
//     the Handler or register the Collector themselves.
//   - Mutate console state.
package prometheus
