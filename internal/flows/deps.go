package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/hireAuth/internal/logging"
)

// OTPMetrics carries metric IDs used by the OTP action.
type OTPMetrics struct {
	Started         int
	Resent          int
	Cooldown        int
	Exhausted       int
	DispatchFailure int
	VerifySuccess   int
	VerifyFailure   int
	VerifyLocked    int
}

// OTPErrors carries host-level sentinel errors used by the OTP action.
type OTPErrors struct {
	EngineNotReady error
	Validation     error
	InvalidOTP     error
	SessionExpired error
	Transient      error
	Cooldown       error
	Exhausted      error
	VerifyLocked   error
	RateLimited    func(reason error, wait time.Duration) error
}

// OTPActionDeps captures everything one OTP-gated action needs. Session ids
// are normalized emails; the store functions own the key prefix.
type OTPActionDeps[P any] struct {
	Kind           string
	TTL            time.Duration
	MaxResends     int
	ResendCooldown time.Duration

	Now      func() time.Time
	NewOTP   func() (string, error)
	MatchOTP func(provided, expected string) bool

	CreateSession     func(context.Context, string, OTPSession[P], time.Duration) error
	GetSession        func(context.Context, string) (OTPSession[P], error)
	UpdateSession     func(context.Context, string, time.Duration, func(*OTPSession[P]) error) (OTPSession[P], error)
	DeleteSession     func(context.Context, string) error
	IsSessionNotFound func(error) bool
	IsSessionExists   func(error) bool

	Dispatch func(ctx context.Context, email, code string) error

	CheckVerifyLimiter  func(context.Context, string) (time.Duration, error)
	IsVerifyLocked      func(error) bool
	RecordVerifyFailure func(context.Context, string) error
	ResetVerifyLimiter  func(context.Context, string) error

	// DiscardSessionOn reports completion errors after which the session
	// must not survive.
	DiscardSessionOn func(error) bool

	MetricInc func(int)
	Log       logging.Logger

	Metrics OTPMetrics
	Errors  OTPErrors
}

func normalizeOTPDeps[P any](deps *OTPActionDeps[P]) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}
	if deps.IsSessionNotFound == nil {
		deps.IsSessionNotFound = func(error) bool { return false }
	}
	if deps.IsSessionExists == nil {
		deps.IsSessionExists = func(error) bool { return false }
	}
	if deps.CheckVerifyLimiter == nil {
		deps.CheckVerifyLimiter = func(context.Context, string) (time.Duration, error) { return 0, nil }
	}
	if deps.IsVerifyLocked == nil {
		deps.IsVerifyLocked = func(error) bool { return false }
	}
	if deps.RecordVerifyFailure == nil {
		deps.RecordVerifyFailure = func(context.Context, string) error { return nil }
	}
	if deps.ResetVerifyLimiter == nil {
		deps.ResetVerifyLimiter = func(context.Context, string) error { return nil }
	}
	if deps.DiscardSessionOn == nil {
		deps.DiscardSessionOn = func(error) bool { return false }
	}
	if deps.Errors.RateLimited == nil {
		deps.Errors.RateLimited = func(reason error, _ time.Duration) error { return reason }
	}
}
