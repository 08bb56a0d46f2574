package hireAuth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation is returned for malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated is the parent of every "who are you" failure.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. It matches ErrUnauthenticated.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	// ErrInvalidToken is returned for any bearer token that fails
	// verification. It matches ErrUnauthenticated.
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	// ErrForbidden is returned when the policy denies an authenticated caller.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned by stores for absent records.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique email or resource already exists.
	ErrConflict = errors.New("conflict")
	// ErrRateLimited is matched by every *RateLimitError.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransientDependency wraps store, cache and mail failures.
	ErrTransientDependency = errors.New("transient dependency failure")
	// ErrInvalidOTP is returned when a submitted code does not match the
	// current one.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrSessionExpiredOrInvalid is returned when no live registration or
	// reset session exists for the email.
	ErrSessionExpiredOrInvalid = errors.New("session expired or invalid")
	// ErrEngineNotReady is returned by an Engine that was not built.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// Rate limit reasons carried by RateLimitError.
var (
	ErrOTPCooldown     = errors.New("otp resend cooldown")
	ErrOTPExhausted    = errors.New("otp resends exhausted")
	ErrOTPVerifyLocked = errors.New("otp verification locked")
	ErrLoginThrottled  = errors.New("login attempts throttled")
)

// RateLimitError reports a refused request and how long the caller should
// wait. Wait is zero when retrying will not help inside the current session.
type RateLimitError struct {
	Reason error
	Wait   time.Duration
}

func newRateLimitError(reason error, wait time.Duration) error {
	return &RateLimitError{Reason: reason, Wait: wait}
}

func (e *RateLimitError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("rate limited: %v (retry in %s)", e.Reason, e.Wait)
	}
	return fmt.Sprintf("rate limited: %v", e.Reason)
}

// Is matches ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// Unwrap exposes the reason so errors.Is(err, ErrOTPCooldown) works.
func (e *RateLimitError) Unwrap() error {
	return e.Reason
}

// RetryAfter returns the wait rounded up to whole seconds, for Retry-After
// headers.
func (e *RateLimitError) RetryAfter() int {
	if e.Wait <= 0 {
		return 0
	}
	return int((e.Wait + time.Second - 1) / time.Second)
}
