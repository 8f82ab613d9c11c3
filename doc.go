// Package goAccount resolves people to accounts through two paths: a local
// email and password, or a third-party identity provider. Both paths end on
// the same [Account] record, keyed by email.
//
// Build an [Engine] with [New]:
//
//	engine, err := goAccount.New().
//		WithConfig(cfg).
//		WithAccountStore(store).
//		WithRedis(rdb).
//		Build()
//
// Engine methods are safe for concurrent use after Build. Email uniqueness is
// enforced by the [AccountStore]; the engine never holds a lock across a
// store call.
//
// With Config.Throttle enabled, failed password logins are counted in Redis
// per email (and optionally per client IP, see [WithClientIP]); a spent budget
// makes Login return [ErrLoginThrottled] until the window expires.
//
// # Architecture boundaries
//
// This package owns account resolution policy: who may sign up, how a
// federated profile maps to an account, and which errors callers see. Hashing
// lives in password/, the provider protocol in federation/, intent storage in
// intent/ and the HTTP surface in httpapi/.
//
// # What this package must NOT do
//
//   - Return password hashes or generated secrets to callers.
//   - Create an account from a federated login unless the session opted in.
//   - Map errors to HTTP status codes. That belongs to httpapi.
package goAccount
