// Package guard decides, per navigation to a console destination, whether
// to render the view, redirect to login, or redirect to the default
// landing destination.
//
// # Evaluation order
//
// A navigation is evaluated in a fixed order: unknown destinations
// redirect to the default landing unconditionally; then a session still
// loading suspends the decision; then authentication; then the
// destination's required capability. No view renders before every check
// resolves, and a redirect is terminal for that navigation; the next
// navigation is a fresh evaluation.
//
// # Architecture boundaries
//
// [Evaluate] is pure: it consumes a [State] view of the session manager
// and the static route table, nothing else. The HTTP middleware in this
// package translates decisions into responses for the gateway.
//
// # What this package must NOT do
//
//   - Mutate session state (redirects never log anyone out).
//   - Treat a denied capability as an error; it is a routing outcome.
//   - Consult the backend; decisions use only local session state.
package guard
