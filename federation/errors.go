package federation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when client credentials are missing or
	// still hold placeholder values.
	ErrNotConfigured = errors.New("federation provider not configured")
	// ErrExchange is matched by every *ExchangeError.
	ErrExchange = errors.New("federation exchange failed")

	ErrProviderDenied   = errors.New("provider returned an error")
	ErrMissingCode      = errors.New("missing authorization code")
	ErrInvalidState     = errors.New("invalid state")
	ErrStateMismatch    = errors.New("state bound to a different session")
	ErrMissingEmail     = errors.New("provider profile has no email")
	ErrUnverifiedEmail  = errors.New("provider email not verified")
	ErrMalformedProfile = errors.New("malformed provider profile")
	ErrEmptySession     = errors.New("empty session id")
)

// ExchangeError reports a failed completion. Stage is the last stage reached
// before the failure: StageRedirected for a rejected callback,
// StageCallbackReceived when the code exchange failed and StageTokenExchanged
// when the profile fetch failed. A provider-reported error uses
// StageProviderError.
type ExchangeError struct {
	Stage Stage
	Err   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("federation exchange failed after %s: %v", e.Stage, e.Err)
}

func (e *ExchangeError) Unwrap() []error {
	return []error{ErrExchange, e.Err}
}

func exchangeErr(stage Stage, err error) error {
	return &ExchangeError{Stage: stage, Err: err}
}
