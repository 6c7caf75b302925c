// Package permission holds the console's static role → capability policy
// and answers capability checks for the navigation guard and UI actions.
//
// # Policy
//
// The table is the one piece of business policy embedded in the console.
// It must mirror the backend's policy for a coherent UX, but the backend
// re-checks every request independently; a drift here is a UX bug, not a
// security hole. Unknown roles resolve to the empty set (fail-closed).
//
// # Architecture boundaries
//
// This package is a pure in-memory lookup with no I/O. [Resolve] and [Can]
// are deterministic and safe to call any number of times.
//
// # What this package must NOT do
//
//   - Access Redis, the backend API, or the network.
//   - Import waterdesk, session, or guard.
//   - Mutate the table after initialization.
package permission
