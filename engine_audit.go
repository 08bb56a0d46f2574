package hireAuth

import (
	"context"
	"errors"
	"strings"
)

const (
	auditRegistrationStart   = "registration_start"
	auditRegistrationVerify  = "registration_verify"
	auditLogin               = "login"
	auditPasswordResetStart  = "password_reset_start"
	auditPasswordResetVerify = "password_reset_verify"
	auditAuthorizationDenied = "authorization_denied"
)

// AuditErrorCode is the stable failure label carried in AuditEvent.Error.
type AuditErrorCode string

const (
	AuditErrValidation         AuditErrorCode = "validation"
	AuditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	AuditErrUnauthenticated    AuditErrorCode = "unauthenticated"
	AuditErrForbidden          AuditErrorCode = "forbidden"
	AuditErrConflict           AuditErrorCode = "conflict"
	AuditErrInvalidOTP         AuditErrorCode = "invalid_otp"
	AuditErrSessionExpired     AuditErrorCode = "session_expired"
	AuditErrCooldown           AuditErrorCode = "otp_cooldown"
	AuditErrExhausted          AuditErrorCode = "otp_exhausted"
	AuditErrVerifyLocked       AuditErrorCode = "otp_verify_locked"
	AuditErrThrottled          AuditErrorCode = "login_throttled"
	AuditErrUnavailable        AuditErrorCode = "backend_unavailable"
	AuditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(ctx context.Context, ev AuditEvent, err error) {
	if e == nil || e.audit == nil {
		return
	}
	ev.Timestamp = e.clock()().UTC()
	ev.Success = err == nil
	if ev.IP == "" {
		ev.IP = clientIPFromContext(ctx)
	}
	if code := auditErrorCode(err); code != "" {
		ev.Error = string(code)
	}
	e.audit.Emit(ctx, ev)
}

func normalizeAuditEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuditDropped reports how many events were dropped because the audit
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close flushes pending audit events. It waits until ctx ends at most.
func (e *Engine) Close(ctx context.Context) error {
	if e == nil {
		return nil
	}
	return e.audit.Close(ctx)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	// Rate limit reasons first: they are more specific than the sentinels
	// below.
	switch {
	case errors.Is(err, ErrOTPCooldown):
		return AuditErrCooldown
	case errors.Is(err, ErrOTPExhausted):
		return AuditErrExhausted
	case errors.Is(err, ErrOTPVerifyLocked):
		return AuditErrVerifyLocked
	case errors.Is(err, ErrLoginThrottled):
		return AuditErrThrottled
	case errors.Is(err, ErrInvalidCredentials):
		return AuditErrInvalidCredentials
	case errors.Is(err, ErrUnauthenticated):
		return AuditErrUnauthenticated
	case errors.Is(err, ErrForbidden):
		return AuditErrForbidden
	case errors.Is(err, ErrValidation):
		return AuditErrValidation
	case errors.Is(err, ErrConflict):
		return AuditErrConflict
	case errors.Is(err, ErrInvalidOTP):
		return AuditErrInvalidOTP
	case errors.Is(err, ErrSessionExpiredOrInvalid):
		return AuditErrSessionExpired
	case errors.Is(err, ErrTransientDependency), errors.Is(err, ErrEngineNotReady):
		return AuditErrUnavailable
	default:
		return AuditErrInternal
	}
}
