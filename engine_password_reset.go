package hireAuth

import (
	"context"

	"github.com/MrEthical07/hireAuth/internal/flows"
)

const kindPasswordReset = "password-reset"

func (e *Engine) passwordResetDeps() flows.PasswordResetDeps {
	return flows.PasswordResetDeps{
		OTP: otpActionDeps(
			e,
			kindPasswordReset,
			e.config.PasswordReset,
			e.resetSessions,
			e.resetFailures,
			e.mailer.SendPasswordResetCode,
			flows.OTPMetrics{
				Started:         int(MetricPasswordResetStarted),
				Resent:          int(MetricPasswordResetResent),
				Cooldown:        int(MetricPasswordResetCooldown),
				Exhausted:       int(MetricPasswordResetExhausted),
				DispatchFailure: int(MetricPasswordResetDispatchFailure),
				VerifySuccess:   int(MetricPasswordResetVerifySuccess),
				VerifyFailure:   int(MetricPasswordResetVerifyFailure),
				VerifyLocked:    int(MetricPasswordResetVerifyLocked),
			},
		),
		AccountExists:         e.accountExists,
		HashPassword:          e.hasher.Hash,
		UpdatePasswordHash:    e.accounts.UpdatePasswordHash,
		IsAccountNotFound:     isNotFound,
		MapHashError:          mapHashError,
		MapAccountError:       mapAccountStoreError,
		SleepEnumerationDelay: e.enumerationDelay,
		Metrics: flows.PasswordResetMetrics{
			Suppressed: int(MetricPasswordResetSuppressed),
		},
	}
}

// RequestPasswordReset emails a reset code when email belongs to an
// account. The result is the same for known and unknown emails, including
// when a resend is refused by the cooldown or the resend cap.
//
// Errors: ErrValidation for a malformed email, ErrTransientDependency.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	err := flows.RunPasswordResetStart(ctx, email, e.passwordResetDeps())
	e.emitAudit(ctx, AuditEvent{EventType: auditPasswordResetStart, Email: normalizeAuditEmail(email)}, err)
	return err
}

// ConfirmPasswordReset checks the code and replaces the account password.
// A new password that fails the length policy returns ErrValidation and
// keeps the session so the user can retry with the same code.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	err := flows.RunPasswordResetVerify(ctx, email, otp, newPassword, e.passwordResetDeps())
	e.emitAudit(ctx, AuditEvent{EventType: auditPasswordResetVerify, Email: normalizeAuditEmail(email)}, err)
	return err
}
