package flows

import (
	"context"
	"errors"
	"fmt"
)

type PasswordResetPayload struct {
	Email string `json:"email"`
}

type PasswordResetMetrics struct {
	Suppressed int
}

// PasswordResetDeps wires the generic OTP action to credential updates.
type PasswordResetDeps struct {
	OTP OTPActionDeps[PasswordResetPayload]

	AccountExists         func(context.Context, string) (bool, error)
	HashPassword          func(string) (string, error)
	UpdatePasswordHash    func(context.Context, string, string) error
	IsAccountNotFound     func(error) bool
	MapHashError          func(error) error
	MapAccountError       func(error) error
	SleepEnumerationDelay func(context.Context) error

	Metrics PasswordResetMetrics
}

func normalizePasswordResetDeps(deps *PasswordResetDeps) {
	normalizeOTPDeps(&deps.OTP)
	if deps.IsAccountNotFound == nil {
		deps.IsAccountNotFound = func(error) bool { return false }
	}
	if deps.MapHashError == nil {
		deps.MapHashError = func(err error) error { return fmt.Errorf("%w: %v", deps.OTP.Errors.Validation, err) }
	}
	if deps.MapAccountError == nil {
		deps.MapAccountError = func(err error) error { return fmt.Errorf("%w: %v", deps.OTP.Errors.Transient, err) }
	}
	if deps.SleepEnumerationDelay == nil {
		deps.SleepEnumerationDelay = func(context.Context) error { return nil }
	}
}

// RunPasswordResetStart begins or resends a reset. Its result never depends
// on whether the email belongs to an account: unknown emails and refused
// resends both report success.
func RunPasswordResetStart(ctx context.Context, email string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)
	if deps.AccountExists == nil {
		return deps.OTP.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	if err := validateEmail(email, deps.OTP.Errors.Validation); err != nil {
		return err
	}

	log := deps.OTP.Log.With("kind", deps.OTP.Kind, "email", email)

	exists, err := deps.AccountExists(ctx, email)
	if err != nil {
		log.Error(ctx, "account lookup failed", "error", err)
		return deps.MapAccountError(err)
	}
	if !exists {
		if err := deps.SleepEnumerationDelay(ctx); err != nil {
			return err
		}
		deps.OTP.MetricInc(deps.Metrics.Suppressed)
		log.Debug(ctx, "password reset requested for unknown email")
		return nil
	}

	_, err = RunOTPStart(ctx, email, PasswordResetPayload{Email: email}, deps.OTP)
	if errors.Is(err, deps.OTP.Errors.Cooldown) || errors.Is(err, deps.OTP.Errors.Exhausted) {
		deps.OTP.MetricInc(deps.Metrics.Suppressed)
		return nil
	}
	return err
}

// RunPasswordResetVerify confirms the code and replaces the account's
// password hash.
func RunPasswordResetVerify(ctx context.Context, email, otp, newPassword string, deps PasswordResetDeps) error {
	normalizePasswordResetDeps(&deps)
	if deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return deps.OTP.Errors.EngineNotReady
	}

	validation := deps.OTP.Errors.Validation
	email = NormalizeEmail(email)
	if err := validateEmail(email, validation); err != nil {
		return err
	}
	if err := requireField(otp, "otp", validation); err != nil {
		return err
	}
	if err := requireField(newPassword, "newPassword", validation); err != nil {
		return err
	}

	otpDeps := deps.OTP
	otpDeps.DiscardSessionOn = func(err error) bool {
		return errors.Is(err, deps.OTP.Errors.SessionExpired)
	}

	_, err := RunOTPVerify(ctx, email, otp, otpDeps, func(ctx context.Context, s OTPSession[PasswordResetPayload]) (struct{}, error) {
		hash, err := deps.HashPassword(newPassword)
		if err != nil {
			return struct{}{}, deps.MapHashError(err)
		}
		if err := deps.UpdatePasswordHash(ctx, email, hash); err != nil {
			if deps.IsAccountNotFound(err) {
				deps.OTP.Log.Warn(ctx, "account vanished during password reset", "email", email)
				return struct{}{}, deps.OTP.Errors.SessionExpired
			}
			deps.OTP.Log.Error(ctx, "password hash update failed", "email", email, "error", err)
			return struct{}{}, deps.MapAccountError(err)
		}
		return struct{}{}, nil
	})
	return err
}
