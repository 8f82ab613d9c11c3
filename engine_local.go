package goAccount

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/MrEthical07/goAccount/internal/rate"
	"github.com/MrEthical07/goAccount/password"
)

// Signup registers a local account. The password is checked against the
// policy before any store access, and plaintext never leaves this call.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (PublicAccount, error) {
	if !e.ready() {
		return PublicAccount{}, ErrEngineNotReady
	}

	if err := validateSignupRequest(req); err != nil {
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", err, nil)
		return PublicAccount{}, err
	}

	if perr := password.CheckPolicy(req.Password); perr != nil {
		e.metricInc(MetricSignupWeakPassword)
		err := fmt.Errorf("%w: %w", ErrWeakPassword, perr)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", err, func() map[string]string {
			var pe *password.PolicyError
			if errors.As(perr, &pe) {
				return map[string]string{"rule": string(pe.Rule)}
			}
			return nil
		})
		return PublicAccount{}, err
	}

	_, err := e.accounts.GetAccountByEmail(ctx, req.Email)
	switch {
	case err == nil:
		e.metricInc(MetricSignupDuplicate)
		e.emitAudit(ctx, auditEventSignupFailure, false, "", "", ErrDuplicateAccount, nil)
		return PublicAccount{}, ErrDuplicateAccount
	case !errors.Is(err, ErrStoreAccountNotFound):
		return PublicAccount{}, e.storeFailure(ctx, auditEventSignupFailure, err)
	}

	hash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return PublicAccount{}, fmt.Errorf("hash password: %w", err)
	}

	acc, err := e.accounts.CreateAccount(ctx, CreateAccountInput{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Origin:       OriginLocal,
	})
	if err != nil {
		if errors.Is(err, ErrStoreDuplicateEmail) {
			// lost a concurrent signup for the same email
			e.metricInc(MetricSignupDuplicate)
			e.emitAudit(ctx, auditEventSignupFailure, false, "", "", ErrDuplicateAccount, nil)
			return PublicAccount{}, ErrDuplicateAccount
		}
		return PublicAccount{}, e.storeFailure(ctx, auditEventSignupFailure, err)
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignupSuccess, true, acc.ID, "", nil, nil)

	return acc.Public(), nil
}

// Login verifies an email and password. The account lookup happens first so
// an unknown email is reported as LoginAccountNotFound without any hashing.
// With a throttle configured, an email or client over its failure budget is
// refused with LoginThrottled before the store is touched.
func (e *Engine) Login(ctx context.Context, email, pass string) (LoginResult, error) {
	if !e.ready() {
		return LoginResult{Outcome: LoginUnavailable}, ErrEngineNotReady
	}
	if email == "" {
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrInvalidRequest, nil)
		return LoginResult{Outcome: LoginAccountNotFound}, ErrInvalidRequest
	}

	if e.loginThrottled(ctx, email) {
		e.metricInc(MetricLoginThrottled)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrLoginThrottled, nil)
		return LoginResult{Outcome: LoginThrottled}, ErrLoginThrottled
	}

	acc, err := e.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrStoreAccountNotFound) {
			e.recordLoginFailure(ctx, email)
			e.metricInc(MetricLoginAccountNotFound)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrAccountNotFound, nil)
			return LoginResult{Outcome: LoginAccountNotFound}, ErrAccountNotFound
		}
		return LoginResult{Outcome: LoginUnavailable}, e.storeFailure(ctx, auditEventLoginFailure, err)
	}

	ok, err := e.passwordHash.Verify(pass, acc.PasswordHash)
	if err != nil || !ok {
		// a malformed stored hash is indistinguishable from a wrong password
		e.recordLoginFailure(ctx, email)
		return e.invalidCredential(ctx, acc.ID, "")
	}

	if acc.Origin == OriginFederated && !e.config.Account.AllowPasswordLoginForFederated {
		e.recordLoginFailure(ctx, email)
		return e.invalidCredential(ctx, acc.ID, string(OriginFederated))
	}

	if e.throttle != nil {
		_ = e.throttle.Reset(ctx, email)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, acc.ID, "", nil, func() map[string]string {
		if upgrade, uerr := e.passwordHash.NeedsUpgrade(acc.PasswordHash); uerr == nil && upgrade {
			return map[string]string{"hash_needs_upgrade": "true"}
		}
		return nil
	})

	return LoginResult{Outcome: LoginSucceeded, Account: acc.Public()}, nil
}

// loginThrottled fails open on Redis errors.
func (e *Engine) loginThrottled(ctx context.Context, email string) bool {
	if e.throttle == nil {
		return false
	}
	return errors.Is(e.throttle.Check(ctx, email, clientIPFromContext(ctx)), rate.ErrRateLimited)
}

func (e *Engine) recordLoginFailure(ctx context.Context, email string) {
	if e.throttle == nil {
		return
	}
	_ = e.throttle.RecordFailure(ctx, email, clientIPFromContext(ctx))
}

func (e *Engine) invalidCredential(ctx context.Context, accountID, origin string) (LoginResult, error) {
	e.metricInc(MetricLoginInvalidCredential)
	e.emitAudit(ctx, auditEventLoginFailure, false, accountID, "", ErrInvalidCredential, func() map[string]string {
		if origin == "" {
			return nil
		}
		return map[string]string{"origin": origin}
	})
	return LoginResult{Outcome: LoginInvalidCredential}, ErrInvalidCredential
}

func (e *Engine) storeFailure(ctx context.Context, eventType string, cause error) error {
	e.metricInc(MetricStoreFailure)
	err := fmt.Errorf("%w: %w", ErrStore, cause)
	e.emitAudit(ctx, eventType, false, "", "", err, nil)
	return err
}

func validateSignupRequest(req SignupRequest) error {
	if strings.TrimSpace(req.Name) == "" || req.Email == "" {
		return ErrInvalidRequest
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil || addr.Address != req.Email {
		return ErrInvalidRequest
	}
	return nil
}
