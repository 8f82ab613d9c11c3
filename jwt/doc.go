// Package jwt signs and parses the short-lived HS256 tokens goAccount hands to
// browsers: the session cookie and the federation state parameter. Each token
// binds one session id to an audience, so a session cookie can never be
// replayed as a state value or the other way round.
package jwt
