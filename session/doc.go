// Package session binds a browser to an opaque session id through a signed
// cookie. The id is what the intent store is keyed by; nothing else about the
// user lives in the cookie.
//
// # What this package must NOT do
//
//   - Import goAccount (no upward imports).
//   - Put account data in the cookie.
package session
