// Package backend is the typed HTTP client for the delivery-business REST
// API. The API owns all persistence, validation, and authorization; this
// package only shapes requests and decodes responses.
//
// # Wire contract
//
// JSON field names follow the backend's camelCase, Spanish-named contract
// (idPedido, estadoPedido, fechaHora, ...). The structs here are the one
// place that contract is spelled out; the rest of the console works with
// the Go names.
//
// # Authorization
//
// Every request carries the session's bearer token, supplied by the
// [TokenSource] the client was built with. A 401 from any endpoint
// matches [ErrUnauthorized] via errors.Is, which the gateway treats as
// "session dead: clear it and return to login".
//
// # What this package must NOT do
//
//   - Cache or retry requests; retries are a user action.
//   - Interpret roles or capabilities.
//   - Import waterdesk, session, or guard.
package backend
