// Package federation runs the authorization-code flow against a third-party
// identity provider and returns the provider's verified profile.
//
// A login moves through the stages in [Stage]. [Client.BeginLogin] records the
// caller's signup intent and returns the provider URL to redirect to, with a
// signed state value bound to the session. [Client.CompleteLogin] checks that
// state, exchanges the code, fetches the profile and hands it back. Failures
// are reported as *[ExchangeError] carrying the last stage reached.
//
// # What this package must NOT do
//
//   - Read or write accounts. Resolving a profile to an account is the
//     caller's job.
//   - Retry the code exchange. Authorization codes are single use.
//   - Import goAccount (no upward imports).
package federation
