package hireAuth

import (
	"context"
	"errors"

	"github.com/MrEthical07/hireAuth/internal/flows"
)

const kindRegistration = "registration"

func (e *Engine) registrationDeps() flows.RegistrationDeps[Account] {
	return flows.RegistrationDeps[Account]{
		OTP: otpActionDeps(
			e,
			kindRegistration,
			e.config.Registration,
			e.registrationSessions,
			e.registrationFailures,
			e.mailer.SendVerificationCode,
			flows.OTPMetrics{
				Started:         int(MetricRegistrationStarted),
				Resent:          int(MetricRegistrationResent),
				Cooldown:        int(MetricRegistrationCooldown),
				Exhausted:       int(MetricRegistrationExhausted),
				DispatchFailure: int(MetricRegistrationDispatchFailure),
				VerifySuccess:   int(MetricRegistrationVerifySuccess),
				VerifyFailure:   int(MetricRegistrationVerifyFailure),
				VerifyLocked:    int(MetricRegistrationVerifyLocked),
			},
		),
		AccountExists: e.accountExists,
		HashPassword:  e.hasher.Hash,
		CreateAccount: func(ctx context.Context, p flows.RegistrationPayload) (Account, error) {
			return e.accounts.CreateAccountWithOrganization(ctx, NewAccount{
				Name:             p.Name,
				Email:            p.Email,
				PasswordHash:     p.PasswordHash,
				Role:             RoleAdmin,
				OrganizationName: p.OrganizationName,
			})
		},
		IsConflict:      func(err error) bool { return errors.Is(err, ErrConflict) },
		MapHashError:    mapHashError,
		MapAccountError: mapAccountStoreError,
		Metrics: flows.RegistrationMetrics{
			Conflict: int(MetricRegistrationConflict),
		},
		Errors: flows.RegistrationErrors{
			Conflict: ErrConflict,
		},
	}
}

// StartRegistration validates the request and emails a verification code.
// Repeating it while a session is live resends a fresh code, subject to the
// resend cooldown and cap; the latest request's details replace the earlier
// ones.
//
// Errors: ErrValidation, ErrConflict (email already registered),
// *RateLimitError (ErrOTPCooldown, ErrOTPExhausted) and
// ErrTransientDependency. A failed delivery leaves no session behind.
func (e *Engine) StartRegistration(ctx context.Context, req RegistrationRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	_, err := flows.RunRegistrationStart(ctx, flows.RegistrationInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	}, e.registrationDeps())
	e.emitAudit(ctx, AuditEvent{EventType: auditRegistrationStart, Email: normalizeAuditEmail(req.Email)}, err)
	return err
}

// VerifyRegistration checks the emailed code and creates the organization
// and its first account, with role ADMIN. The pending session is destroyed
// on success and on ErrConflict; a wrong code leaves it untouched.
func (e *Engine) VerifyRegistration(ctx context.Context, email, otp string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	account, err := flows.RunRegistrationVerify(ctx, email, otp, e.registrationDeps())
	e.emitAudit(ctx, AuditEvent{
		EventType:      auditRegistrationVerify,
		AccountID:      account.ID,
		OrganizationID: account.OrganizationID,
		Email:          normalizeAuditEmail(email),
	}, err)
	return account, err
}
