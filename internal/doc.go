// Package internal contains helpers private to goAccount: session id and nonce
// generation, plus the audit sub-package.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccount API.
//   - Be imported by any package outside the goAccount module.
package internal
