// Package intent carries the per-session "signup permitted" flag across the
// federated-login redirect.
//
// An intent is written when a session starts a federated login and consumed
// exactly once when the callback is resolved. Consuming deletes the record, so
// a second resolution on the same session sees no intent and fails closed.
// Records expire after a TTL if the callback never arrives.
//
// # What this package must NOT do
//
//   - Import goAccount or any other goAccount package.
//   - Decide whether an account may be created. It only stores the flag.
package intent
