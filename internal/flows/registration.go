package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RegistrationPayload is what a registration session holds until the code
// is confirmed. The password is stored hashed only.
type RegistrationPayload struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	PasswordHash     string `json:"passwordHash"`
	OrganizationName string `json:"organizationName,omitempty"`
}

type RegistrationInput struct {
	Name             string
	Email            string
	Password         string
	OrganizationName string
}

type RegistrationMetrics struct {
	Conflict int
}

type RegistrationErrors struct {
	Conflict error
}

// RegistrationDeps wires the generic OTP action to account creation. A is
// the host's account type returned on success.
type RegistrationDeps[A any] struct {
	OTP OTPActionDeps[RegistrationPayload]

	AccountExists   func(context.Context, string) (bool, error)
	HashPassword    func(string) (string, error)
	CreateAccount   func(context.Context, RegistrationPayload) (A, error)
	IsConflict      func(error) bool
	MapHashError    func(error) error
	MapAccountError func(error) error

	Metrics RegistrationMetrics
	Errors  RegistrationErrors
}

func normalizeRegistrationDeps[A any](deps *RegistrationDeps[A]) {
	normalizeOTPDeps(&deps.OTP)
	if deps.IsConflict == nil {
		deps.IsConflict = func(error) bool { return false }
	}
	if deps.MapHashError == nil {
		deps.MapHashError = func(err error) error { return fmt.Errorf("%w: %v", deps.OTP.Errors.Validation, err) }
	}
	if deps.MapAccountError == nil {
		deps.MapAccountError = func(err error) error { return fmt.Errorf("%w: %v", deps.OTP.Errors.Transient, err) }
	}
}

// DefaultOrganizationName names the organization created for a registrant
// who did not choose one.
func DefaultOrganizationName(name string) string {
	return strings.TrimSpace(name) + "'s Organization"
}

// RunRegistrationStart begins or resends a registration. An existing
// account for the email fails with Conflict and drops any stale session.
func RunRegistrationStart[A any](ctx context.Context, in RegistrationInput, deps RegistrationDeps[A]) (StartResult, error) {
	normalizeRegistrationDeps(&deps)
	if deps.AccountExists == nil || deps.HashPassword == nil {
		return StartResult{}, deps.OTP.Errors.EngineNotReady
	}

	validation := deps.OTP.Errors.Validation
	email := NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if err := requireField(name, "name", validation); err != nil {
		return StartResult{}, err
	}
	if err := validateEmail(email, validation); err != nil {
		return StartResult{}, err
	}
	if err := requireField(in.Password, "password", validation); err != nil {
		return StartResult{}, err
	}

	log := deps.OTP.Log.With("kind", deps.OTP.Kind, "email", email)

	exists, err := deps.AccountExists(ctx, email)
	if err != nil {
		log.Error(ctx, "account lookup failed", "error", err)
		return StartResult{}, deps.MapAccountError(err)
	}
	if exists {
		if deps.OTP.DeleteSession != nil {
			if err := deps.OTP.DeleteSession(ctx, email); err != nil {
				log.Warn(ctx, "failed to drop stale registration session", "error", err)
			}
		}
		deps.OTP.MetricInc(deps.Metrics.Conflict)
		return StartResult{}, deps.Errors.Conflict
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		return StartResult{}, deps.MapHashError(err)
	}

	orgName := strings.TrimSpace(in.OrganizationName)
	if orgName == "" {
		orgName = DefaultOrganizationName(name)
	}

	payload := RegistrationPayload{
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		OrganizationName: orgName,
	}
	return RunOTPStart(ctx, email, payload, deps.OTP)
}

// RunRegistrationVerify confirms the code and creates the organization and
// its first account.
func RunRegistrationVerify[A any](ctx context.Context, email, otp string, deps RegistrationDeps[A]) (A, error) {
	var zero A
	normalizeRegistrationDeps(&deps)
	if deps.AccountExists == nil || deps.CreateAccount == nil {
		return zero, deps.OTP.Errors.EngineNotReady
	}

	validation := deps.OTP.Errors.Validation
	email = NormalizeEmail(email)
	if err := validateEmail(email, validation); err != nil {
		return zero, err
	}
	if err := requireField(otp, "otp", validation); err != nil {
		return zero, err
	}

	otpDeps := deps.OTP
	otpDeps.DiscardSessionOn = func(err error) bool {
		return errors.Is(err, deps.Errors.Conflict)
	}

	return RunOTPVerify(ctx, email, otp, otpDeps, func(ctx context.Context, s OTPSession[RegistrationPayload]) (A, error) {
		exists, err := deps.AccountExists(ctx, email)
		if err != nil {
			return zero, deps.MapAccountError(err)
		}
		if exists {
			deps.OTP.MetricInc(deps.Metrics.Conflict)
			return zero, deps.Errors.Conflict
		}

		payload := s.Payload
		payload.Email = email
		account, err := deps.CreateAccount(ctx, payload)
		if err != nil {
			if deps.IsConflict(err) {
				deps.OTP.MetricInc(deps.Metrics.Conflict)
				return zero, deps.Errors.Conflict
			}
			deps.OTP.Log.Error(ctx, "account creation failed", "kind", deps.OTP.Kind, "email", email, "error", err)
			return zero, deps.MapAccountError(err)
		}
		return account, nil
	})
}
