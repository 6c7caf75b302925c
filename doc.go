// Package waterdesk is the session and authorization core of the
// water-delivery admin console. It keeps one session per browser scope
// in Redis, resolves role capabilities through bitmask permission sets,
// and decides route access before any view renders.
//
// The package is designed for concurrent gateway workloads: Console and
// Manager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// waterdesk is the public surface. It exposes [Console], [Manager],
// [Builder], [Config], and value types (MetricsSnapshot, AuditEvent).
// Route evaluation lives in guard/, the capability table in permission/,
// persistence in session/, and the REST client in backend/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or persistence key layout in its public API.
//   - Interpret role names anywhere but through permission.Resolve.
//   - Verify token signatures; the backend owns token validity; the
//     console only reads expiry to drop sessions that cannot work.
package waterdesk
