// Package session provides the authenticated-actor model and its durable
// persistence for the console.
//
// # Persistence layout
//
// A persisted session is two string fields under a per-browser scope key:
// the bearer token and the JSON-serialized identity. The pair is written in
// one transaction and read back as a unit; the store is always a cache of
// the in-memory session held by the manager, never the reverse.
//
// # Self-healing
//
// [Store.Load] tolerates anything the backend hands back: a missing field,
// a half-written pair, or an identity blob that fails to parse all degrade
// to "no session", and the store clears both fields so subsequent loads
// agree. Storage failures never reach callers.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model.
// It does NOT interpret bearer tokens, evaluate permissions, or decide
// navigation; those responsibilities belong to the manager and the guard.
//
// # What this package must NOT do
//
//   - Import waterdesk, guard, or backend (no upward imports).
//   - Surface storage errors from Load or Clear.
//   - Persist a token without its identity or vice versa.
package session
