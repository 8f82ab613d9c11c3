package goAccount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/federation"
	"github.com/MrEthical07/goAccount/password"
)

// BeginFederatedLogin records the signup intent for sessionID and returns the
// provider authorization URL.
func (e *Engine) BeginFederatedLogin(ctx context.Context, sessionID string, permitSignup bool) (string, error) {
	if !e.ready() || e.federator == nil {
		return "", ErrEngineNotReady
	}

	url, err := e.federator.BeginLogin(ctx, sessionID, permitSignup)
	if err != nil {
		switch {
		case errors.Is(err, federation.ErrNotConfigured):
			err = fmt.Errorf("%w: %w", ErrConfiguration, err)
		case errors.Is(err, federation.ErrEmptySession):
			err = fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		default:
			return "", e.storeFailure(ctx, auditEventFederatedFailure, err)
		}
		e.emitAudit(ctx, auditEventFederatedFailure, false, "", sessionID, err, nil)
		return "", err
	}

	e.metricInc(MetricFederatedStarted)
	e.emitAudit(ctx, auditEventFederatedStarted, true, "", sessionID, nil, func() map[string]string {
		return map[string]string{"permit_signup": fmt.Sprint(permitSignup)}
	})

	return url, nil
}

// CompleteFederatedLogin finishes the provider exchange for sessionID and
// resolves the returned profile to an account.
func (e *Engine) CompleteFederatedLogin(ctx context.Context, sessionID string, params CallbackParams) (FederatedResult, error) {
	if !e.ready() || e.federator == nil {
		return FederatedResult{}, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.Observe(MetricFederatedLatency, time.Since(start))
		}
	}()

	profile, err := e.federator.CompleteLogin(ctx, sessionID, params)
	if err != nil {
		if errors.Is(err, federation.ErrNotConfigured) {
			err = fmt.Errorf("%w: %w", ErrConfiguration, err)
		} else {
			e.metricInc(MetricProviderFailure)
			err = fmt.Errorf("%w: %w", ErrProviderExchange, err)
		}
		e.emitAudit(ctx, auditEventFederatedFailure, false, "", sessionID, err, func() map[string]string {
			if stage := exchangeStage(err); stage != "" {
				return map[string]string{"stage": stage}
			}
			return nil
		})
		return FederatedResult{}, err
	}

	return e.ResolveFederatedProfile(ctx, sessionID, profile)
}

// ResolveFederatedProfile maps a verified provider profile to an account.
// An existing account is returned as is. An unknown email creates an account
// only when the session's consumed intent permits it; losing a concurrent
// creation for the same email fails with ErrDuplicateAccount.
func (e *Engine) ResolveFederatedProfile(ctx context.Context, sessionID string, profile Profile) (FederatedResult, error) {
	if !e.ready() || e.intents == nil {
		return FederatedResult{}, ErrEngineNotReady
	}
	if profile.Email == "" {
		return FederatedResult{}, ErrInvalidRequest
	}

	acc, err := e.accounts.GetAccountByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		// the intent is single use whatever the outcome
		_, _ = e.intents.ConsumeIntent(ctx, sessionID)
		return e.federatedExisting(ctx, sessionID, acc), nil
	case !errors.Is(err, ErrStoreAccountNotFound):
		return FederatedResult{}, e.storeFailure(ctx, auditEventFederatedFailure, err)
	}

	permitted, err := e.intents.ConsumeIntent(ctx, sessionID)
	if err != nil {
		return FederatedResult{}, e.storeFailure(ctx, auditEventFederatedFailure, err)
	}
	if !permitted {
		e.metricInc(MetricFederatedRejected)
		rejected := &SignupNotPermittedError{Email: profile.Email}
		e.emitAudit(ctx, auditEventFederatedRejected, false, "", sessionID, rejected, nil)
		return FederatedResult{}, rejected
	}

	hash, err := e.syntheticPasswordHash()
	if err != nil {
		return FederatedResult{}, err
	}

	name := profile.Name
	if name == "" {
		name = e.config.Account.PlaceholderName
	}

	created, err := e.accounts.CreateAccount(ctx, CreateAccountInput{
		Name:         name,
		Email:        profile.Email,
		PasswordHash: hash,
		Origin:       OriginFederated,
	})
	if err != nil {
		if errors.Is(err, ErrStoreDuplicateEmail) {
			// a concurrent signup created the email after our lookup
			e.metricInc(MetricFederatedDuplicate)
			e.emitAudit(ctx, auditEventFederatedDuplicate, false, "", sessionID, ErrDuplicateAccount, nil)
			return FederatedResult{}, ErrDuplicateAccount
		}
		return FederatedResult{}, e.storeFailure(ctx, auditEventFederatedFailure, err)
	}

	e.metricInc(MetricFederatedCreated)
	e.emitAudit(ctx, auditEventFederatedCreated, true, created.ID, sessionID, nil, nil)

	return FederatedResult{Account: created.Public(), IsNewAccount: true}, nil
}

func (e *Engine) federatedExisting(ctx context.Context, sessionID string, acc Account) FederatedResult {
	e.metricInc(MetricFederatedExisting)
	e.emitAudit(ctx, auditEventFederatedExisting, true, acc.ID, sessionID, nil, nil)
	return FederatedResult{Account: acc.Public()}
}

// syntheticPasswordHash hashes a random policy-compliant password for a
// federated account. The plaintext is dropped before returning.
func (e *Engine) syntheticPasswordHash() (string, error) {
	generated, err := password.GenerateSecure(e.config.Policy.GeneratedLength)
	if err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := e.passwordHash.Hash(generated)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
