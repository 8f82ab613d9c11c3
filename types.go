package goAccount

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAccount/federation"
	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
)

// Origin records how an account was created.
type Origin string

const (
	OriginLocal     Origin = "local"
	OriginFederated Origin = "federated"
)

// Account is the stored identity. PasswordHash is always a PHC-encoded
// Argon2id string; plaintext never reaches the store.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Origin       Origin
	CreatedAt    time.Time
}

// Public returns the caller-safe view of a.
func (a Account) Public() PublicAccount {
	return PublicAccount{ID: a.ID, Name: a.Name, Email: a.Email}
}

// PublicAccount is the only account view returned by the engine.
type PublicAccount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateAccountInput is what the engine hands an AccountStore. The store
// assigns ID and CreatedAt.
type CreateAccountInput struct {
	Name         string
	Email        string
	PasswordHash string
	Origin       Origin
}

// AccountStore persists accounts. Email is the unique lookup key and is
// compared exactly as stored.
//
// GetAccountByEmail returns ErrStoreAccountNotFound when no account exists.
// CreateAccount must be atomic with respect to email uniqueness and return
// ErrStoreDuplicateEmail, leaving nothing behind, when the email is taken.
// Any other error is treated as a backend fault.
type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error)
}

// IntentStore carries the per-session signup flag across the provider
// redirect. ConsumeIntent deletes what it reads and reports false for a
// session with no intent.
type IntentStore interface {
	SetIntent(ctx context.Context, sessionID string, permitted bool) error
	ConsumeIntent(ctx context.Context, sessionID string) (bool, error)
}

// Federator is the provider side of a federated login. *federation.Client
// implements it.
type Federator interface {
	BeginLogin(ctx context.Context, sessionID string, permitSignup bool) (string, error)
	CompleteLogin(ctx context.Context, sessionID string, params federation.CallbackParams) (federation.Profile, error)
	Status() federation.Status
}

type (
	CallbackParams   = federation.CallbackParams
	Profile          = federation.Profile
	FederationStatus = federation.Status
)

type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// LoginOutcome tells callers which branch a login took without inspecting
// errors.
type LoginOutcome uint8

const (
	LoginSucceeded LoginOutcome = iota
	LoginAccountNotFound
	LoginInvalidCredential
	LoginUnavailable
	LoginThrottled
)

func (o LoginOutcome) String() string {
	switch o {
	case LoginSucceeded:
		return "succeeded"
	case LoginAccountNotFound:
		return "account_not_found"
	case LoginInvalidCredential:
		return "invalid_credential"
	case LoginThrottled:
		return "throttled"
	default:
		return "unavailable"
	}
}

// LoginResult is returned by Engine.Login on every path. Account is set only
// when Outcome is LoginSucceeded.
type LoginResult struct {
	Outcome LoginOutcome
	Account PublicAccount
}

// FederatedResult is the resolved account of a federated login.
type FederatedResult struct {
	Account      PublicAccount
	IsNewAccount bool
}

// Audit types are shared with the internal dispatcher.
type (
	AuditEvent     = internalaudit.Event
	AuditSink      = internalaudit.Sink
	NoOpSink       = internalaudit.NoOpSink
	ChannelSink    = internalaudit.ChannelSink
	JSONWriterSink = internalaudit.JSONWriterSink
	SlogSink       = internalaudit.SlogSink
	MultiSink      = internalaudit.MultiSink
)

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
