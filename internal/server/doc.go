// Package server implements the console gateway: the HTTP surface the
// browser talks to. It terminates the scope cookie, guards every view
// route through the console's session state, and forwards permitted
// operations to the delivery-management backend.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into console and backend calls.
// It does NOT make authorization decisions itself; view access is
// delegated to guard.Evaluate and mutation access to the session's
// capability set.
//
// # What this package must NOT do
//
//   - Touch Redis or the persistence key layout (the console owns I/O).
//   - Interpret role names; only capabilities matter here.
//   - Forward a request the guard or a capability check rejected.
package server
