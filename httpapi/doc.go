// Package httpapi exposes the account engine over HTTP with gin.
//
// JSON errors use the shape {"detail": "..."} and carry only
// goAccount.SafeMessage text. The federation callback never answers with
// JSON: it always redirects to the frontend's /auth-success or /auth-error
// page.
package httpapi
