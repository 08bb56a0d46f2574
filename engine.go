package hireAuth

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/MrEthical07/hireAuth/internal"
	"github.com/MrEthical07/hireAuth/internal/audit"
	"github.com/MrEthical07/hireAuth/internal/flows"
	"github.com/MrEthical07/hireAuth/internal/limiters"
	"github.com/MrEthical07/hireAuth/internal/logging"
	"github.com/MrEthical07/hireAuth/internal/rate"
	"github.com/MrEthical07/hireAuth/internal/stores"
	"github.com/MrEthical07/hireAuth/jwt"
	"github.com/MrEthical07/hireAuth/password"
	"github.com/MrEthical07/hireAuth/policy"
	"github.com/redis/go-redis/v9"
)

type (
	registrationStore = stores.SessionStore[flows.OTPSession[flows.RegistrationPayload]]
	resetStore        = stores.SessionStore[flows.OTPSession[flows.PasswordResetPayload]]
)

// Engine runs registration, password reset, login, token verification and
// authorization. Build it with [Builder]; all methods are safe for
// concurrent use.
type Engine struct {
	config Config
	redis  redis.UniversalClient

	accounts   AccountStore
	mailer     Mailer
	log        logging.Logger
	authorizer policy.Authorizer

	hasher    *password.Multi
	tokens    *jwt.Manager
	dummyHash string

	registrationSessions *registrationStore
	resetSessions        *resetStore
	registrationFailures *limiters.VerifyFailureLimiter
	resetFailures        *limiters.VerifyFailureLimiter
	loginLimiter         *rate.Limiter

	metrics *Metrics
	audit   *audit.Dispatcher

	// test hooks
	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// Ping checks the Redis connection. It backs readiness probes.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.redis == nil {
		return ErrEngineNotReady
	}
	if err := e.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransientDependency, err)
	}
	return nil
}

// TokenTTL returns the lifetime of issued access tokens.
func (e *Engine) TokenTTL() time.Duration {
	if e == nil || e.tokens == nil {
		return 0
	}
	return e.tokens.AccessTTL()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) flowMetricInc(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) clock() func() time.Time {
	if e.now != nil {
		return e.now
	}
	return time.Now
}

func (e *Engine) logger() logging.Logger {
	if e.log == nil {
		return logging.NewNop()
	}
	return e.log
}

func (e *Engine) ready() bool {
	return e != nil && e.accounts != nil && e.mailer != nil && e.hasher != nil &&
		e.tokens != nil && e.registrationSessions != nil && e.resetSessions != nil
}

// enumerationDelay sleeps for a random duration inside the configured range.
// Cancellation ends the sleep early; the caller's answer does not change.
func (e *Engine) enumerationDelay(ctx context.Context) error {
	lo := e.config.Security.EnumerationDelayMin
	hi := e.config.Security.EnumerationDelayMax
	d := lo
	if hi > lo {
		d += rand.N(hi - lo + 1)
	}
	if d <= 0 {
		return nil
	}

	if e.sleep != nil {
		e.sleep(ctx, d)
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}

/*
====================================
FLOW WIRING
====================================
*/

func (e *Engine) otpErrors() flows.OTPErrors {
	return flows.OTPErrors{
		EngineNotReady: ErrEngineNotReady,
		Validation:     ErrValidation,
		InvalidOTP:     ErrInvalidOTP,
		SessionExpired: ErrSessionExpiredOrInvalid,
		Transient:      ErrTransientDependency,
		Cooldown:       ErrOTPCooldown,
		Exhausted:      ErrOTPExhausted,
		VerifyLocked:   ErrOTPVerifyLocked,
		RateLimited:    newRateLimitError,
	}
}

// otpActionDeps binds one session store, failure limiter and dispatch
// function to the generic OTP action.
func otpActionDeps[P any](
	e *Engine,
	kind string,
	cfg OTPConfig,
	store *stores.SessionStore[flows.OTPSession[P]],
	failures *limiters.VerifyFailureLimiter,
	dispatch func(ctx context.Context, email, code string) error,
	metrics flows.OTPMetrics,
) flows.OTPActionDeps[P] {
	return flows.OTPActionDeps[P]{
		Kind:           kind,
		TTL:            cfg.TTL,
		MaxResends:     cfg.MaxResends,
		ResendCooldown: cfg.ResendCooldown,

		Now:      e.clock(),
		NewOTP:   internal.NewOTP,
		MatchOTP: internal.MatchOTP,

		CreateSession:     store.Create,
		GetSession:        store.Get,
		UpdateSession:     store.Update,
		DeleteSession:     store.Delete,
		IsSessionNotFound: func(err error) bool { return errors.Is(err, stores.ErrSessionNotFound) },
		IsSessionExists:   func(err error) bool { return errors.Is(err, stores.ErrSessionExists) },

		Dispatch: dispatch,

		CheckVerifyLimiter:  failures.Check,
		IsVerifyLocked:      func(err error) bool { return errors.Is(err, limiters.ErrVerifyLocked) },
		RecordVerifyFailure: failures.RecordFailure,
		ResetVerifyLimiter:  failures.Reset,

		MetricInc: e.flowMetricInc,
		Log:       e.logger(),

		Metrics: metrics,
		Errors:  e.otpErrors(),
	}
}

func (e *Engine) accountExists(ctx context.Context, email string) (bool, error) {
	_, err := e.accounts.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func mapHashError(err error) error {
	if errors.Is(err, password.ErrPasswordTooShort) || errors.Is(err, password.ErrPasswordTooLong) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%w: %v", ErrTransientDependency, err)
}

// mapAccountStoreError keeps taxonomy errors from the store and wraps
// everything else as a dependency failure.
func mapAccountStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrValidation):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransientDependency, err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
