package goAccount

import (
	"errors"

	"github.com/MrEthical07/goAccount/password"
)

var (
	// ErrInvalidRequest reports a missing name or email.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrWeakPassword reports a password that fails the policy.
	ErrWeakPassword = errors.New("password does not meet policy")
	// ErrDuplicateAccount reports an email that is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrAccountNotFound reports a login for an unknown email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredential reports a password that did not verify.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrLoginThrottled reports a login refused because the email or client
	// has too many recent failures.
	ErrLoginThrottled = errors.New("too many failed logins")
	// ErrSignupNotPermitted reports a federated login for an unknown email
	// from a session that did not opt into signup.
	ErrSignupNotPermitted = errors.New("signup not permitted")
	// ErrConfiguration reports missing federation credentials.
	ErrConfiguration = errors.New("federation not configured")
	// ErrProviderExchange reports any failure talking to the identity provider.
	ErrProviderExchange = errors.New("provider exchange failed")
	// ErrStore reports an account or intent store failure.
	ErrStore = errors.New("store unavailable")
	// ErrEngineNotReady reports a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Errors an AccountStore implementation returns so the engine can tell a
// missing account and a uniqueness violation apart from a backend fault.
var (
	ErrStoreAccountNotFound = errors.New("store: account not found")
	ErrStoreDuplicateEmail  = errors.New("store: duplicate email")
)

// ErrorKind classifies engine errors for callers that switch on outcome
// rather than on individual sentinels.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindInvalidRequest
	KindWeakPassword
	KindDuplicateAccount
	KindAccountNotFound
	KindInvalidCredential
	KindLoginThrottled
	KindSignupNotPermitted
	KindConfiguration
	KindProviderExchange
	KindStore
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidRequest:
		return "invalid_request"
	case KindWeakPassword:
		return "weak_password"
	case KindDuplicateAccount:
		return "duplicate_account"
	case KindAccountNotFound:
		return "account_not_found"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindLoginThrottled:
		return "login_throttled"
	case KindSignupNotPermitted:
		return "signup_not_permitted"
	case KindConfiguration:
		return "configuration"
	case KindProviderExchange:
		return "provider_exchange"
	case KindStore:
		return "store"
	default:
		return "internal"
	}
}

// KindOf maps err to its ErrorKind. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrWeakPassword), errors.Is(err, password.ErrPolicy):
		return KindWeakPassword
	case errors.Is(err, ErrDuplicateAccount):
		return KindDuplicateAccount
	case errors.Is(err, ErrAccountNotFound):
		return KindAccountNotFound
	case errors.Is(err, ErrInvalidCredential):
		return KindInvalidCredential
	case errors.Is(err, ErrLoginThrottled):
		return KindLoginThrottled
	case errors.Is(err, ErrSignupNotPermitted):
		return KindSignupNotPermitted
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrProviderExchange):
		return KindProviderExchange
	case errors.Is(err, ErrStore):
		return KindStore
	default:
		return KindInternal
	}
}

// SignupNotPermittedError carries the email a federated login could not
// create an account for. It matches ErrSignupNotPermitted.
type SignupNotPermittedError struct {
	Email string
}

func (e *SignupNotPermittedError) Error() string {
	return ErrSignupNotPermitted.Error()
}

func (e *SignupNotPermittedError) Is(target error) bool {
	return target == ErrSignupNotPermitted
}

// Messages returned by SafeMessage.
const (
	MessageWeakPassword      = "Password must be at least 8 characters long and contain at least one uppercase letter, one number, and one special character"
	MessageDuplicateAccount  = "Email already registered"
	MessageAccountNotFound   = "Account not found. Please create an account first."
	MessageInvalidCredential = "Invalid password"
	MessageInvalidRequest    = "Name, email and password are required"
	MessageLoginThrottled    = "Too many failed login attempts. Please try again later."
	MessageConfiguration     = "Google OAuth is not configured"
	MessageProviderExchange  = "Authentication with Google failed. Please try again."
	MessageStore             = "Service temporarily unavailable"
	MessageInternal          = "Internal server error"
)

// SafeMessage returns a user-facing message for err. It never echoes
// provider responses, store errors or anything else from the error chain,
// apart from the email of a refused federated signup.
func SafeMessage(err error) string {
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindInvalidRequest:
		return MessageInvalidRequest
	case KindWeakPassword:
		return MessageWeakPassword
	case KindDuplicateAccount:
		return MessageDuplicateAccount
	case KindAccountNotFound:
		return MessageAccountNotFound
	case KindInvalidCredential:
		return MessageInvalidCredential
	case KindLoginThrottled:
		return MessageLoginThrottled
	case KindSignupNotPermitted:
		var snp *SignupNotPermittedError
		if errors.As(err, &snp) && snp.Email != "" {
			return "No account found for " + snp.Email + ". Please create an account first or use Google Sign-In from the signup page."
		}
		return "No account found. Please create an account first or use Google Sign-In from the signup page."
	case KindConfiguration:
		return MessageConfiguration
	case KindProviderExchange:
		return MessageProviderExchange
	case KindStore:
		return MessageStore
	default:
		return MessageInternal
	}
}
