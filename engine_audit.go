package goAccount

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/federation"
)

const (
	auditEventSignupSuccess      = "signup_success"
	auditEventSignupFailure      = "signup_failure"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventFederatedStarted   = "federated_login_started"
	auditEventFederatedFailure   = "federated_login_failure"
	auditEventFederatedExisting  = "federated_login_existing"
	auditEventFederatedCreated   = "federated_account_created"
	auditEventFederatedRejected  = "federated_signup_rejected"
	auditEventFederatedDuplicate = "federated_signup_duplicate"
)

// AuditErrorCode is the value of AuditEvent.Error. It never carries the
// underlying error text.
type AuditErrorCode string

const (
	auditErrInvalidRequest     AuditErrorCode = "invalid_request"
	auditErrWeakPassword       AuditErrorCode = "weak_password"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrInvalidCredential  AuditErrorCode = "invalid_credential"
	auditErrLoginThrottled     AuditErrorCode = "login_throttled"
	auditErrSignupNotPermitted AuditErrorCode = "signup_not_permitted"
	auditErrConfiguration      AuditErrorCode = "not_configured"
	auditErrProviderExchange   AuditErrorCode = "provider_exchange"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch KindOf(err) {
	case KindInvalidRequest:
		return auditErrInvalidRequest
	case KindWeakPassword:
		return auditErrWeakPassword
	case KindDuplicateAccount:
		return auditErrDuplicate
	case KindAccountNotFound:
		return auditErrAccountNotFound
	case KindInvalidCredential:
		return auditErrInvalidCredential
	case KindLoginThrottled:
		return auditErrLoginThrottled
	case KindSignupNotPermitted:
		return auditErrSignupNotPermitted
	case KindConfiguration:
		return auditErrConfiguration
	case KindProviderExchange:
		return auditErrProviderExchange
	case KindStore:
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

// exchangeStage extracts the provider stage for audit metadata.
func exchangeStage(err error) string {
	var xe *federation.ExchangeError
	if errors.As(err, &xe) {
		return xe.Stage.String()
	}
	return ""
}
