package flows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// OTPSession is the ephemeral record behind one pending action. LastSent is
// unix milliseconds.
type OTPSession[P any] struct {
	Payload  P      `json:"payload"`
	OTP      string `json:"otp"`
	Attempts int    `json:"attempts"`
	LastSent int64  `json:"lastSent"`
}

type StartOutcome int

const (
	StartCreated StartOutcome = iota + 1
	StartResent
)

func (o StartOutcome) String() string {
	switch o {
	case StartCreated:
		return "created"
	case StartResent:
		return "resent"
	default:
		return "unknown"
	}
}

type StartResult struct {
	Outcome  StartOutcome
	Attempts int
}

var errResendsExhausted = errors.New("otp resends exhausted")

type cooldownError struct {
	wait time.Duration
}

func (e *cooldownError) Error() string {
	return fmt.Sprintf("otp resend cooldown, retry in %s", e.wait)
}

// RunOTPStart creates a session for id or, when one is live, rotates its
// code. The new code is dispatched only after the session write succeeds.
func RunOTPStart[P any](ctx context.Context, id string, payload P, deps OTPActionDeps[P]) (StartResult, error) {
	normalizeOTPDeps(&deps)
	if deps.CreateSession == nil || deps.UpdateSession == nil || deps.DeleteSession == nil ||
		deps.Dispatch == nil || deps.NewOTP == nil || deps.TTL <= 0 {
		return StartResult{}, deps.Errors.EngineNotReady
	}

	log := deps.Log.With("kind", deps.Kind, "email", id)

	// A concurrent first start can win the create; fall back to resend once.
	for i := 0; i < 2; i++ {
		result, err := resendOTP(ctx, id, payload, deps)
		if err == nil || !deps.IsSessionNotFound(err) {
			return result, err
		}

		result, err = createOTP(ctx, id, payload, deps)
		if err == nil || !deps.IsSessionExists(err) {
			return result, err
		}
		log.Debug(ctx, "otp session appeared concurrently, resending")
	}

	return StartResult{}, fmt.Errorf("%w: session contention", deps.Errors.Transient)
}

func createOTP[P any](ctx context.Context, id string, payload P, deps OTPActionDeps[P]) (StartResult, error) {
	log := deps.Log.With("kind", deps.Kind, "email", id)

	code, err := deps.NewOTP()
	if err != nil {
		return StartResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	session := OTPSession[P]{
		Payload:  payload,
		OTP:      code,
		Attempts: 1,
		LastSent: deps.Now().UnixMilli(),
	}
	if err := deps.CreateSession(ctx, id, session, deps.TTL); err != nil {
		if deps.IsSessionExists(err) {
			return StartResult{}, err
		}
		log.Error(ctx, "otp session save failed", "error", err)
		return StartResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	if err := deps.Dispatch(ctx, id, code); err != nil {
		deps.MetricInc(deps.Metrics.DispatchFailure)
		log.Error(ctx, "otp dispatch failed", "error", err)
		if delErr := deps.DeleteSession(ctx, id); delErr != nil {
			log.Warn(ctx, "failed to drop undelivered otp session", "error", delErr)
		}
		return StartResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	deps.MetricInc(deps.Metrics.Started)
	log.Info(ctx, "otp session started")
	return StartResult{Outcome: StartCreated, Attempts: 1}, nil
}

func resendOTP[P any](ctx context.Context, id string, payload P, deps OTPActionDeps[P]) (StartResult, error) {
	log := deps.Log.With("kind", deps.Kind, "email", id)
	now := deps.Now()

	var code string
	updated, err := deps.UpdateSession(ctx, id, deps.TTL, func(s *OTPSession[P]) error {
		if s.Attempts >= deps.MaxResends {
			return errResendsExhausted
		}
		elapsed := now.Sub(time.UnixMilli(s.LastSent))
		if elapsed < deps.ResendCooldown {
			remaining := deps.ResendCooldown - elapsed
			if remaining > deps.ResendCooldown {
				remaining = deps.ResendCooldown
			}
			return &cooldownError{wait: ceilSeconds(remaining)}
		}

		next, err := deps.NewOTP()
		if err != nil {
			return err
		}
		code = next
		s.Payload = payload
		s.OTP = next
		s.Attempts++
		s.LastSent = now.UnixMilli()
		return nil
	})

	var cd *cooldownError
	switch {
	case err == nil:
	case deps.IsSessionNotFound(err):
		return StartResult{}, err
	case errors.Is(err, errResendsExhausted):
		deps.MetricInc(deps.Metrics.Exhausted)
		log.Info(ctx, "otp resend refused", "reason", "exhausted")
		return StartResult{}, deps.Errors.RateLimited(deps.Errors.Exhausted, 0)
	case errors.As(err, &cd):
		deps.MetricInc(deps.Metrics.Cooldown)
		log.Info(ctx, "otp resend refused", "reason", "cooldown", "wait", cd.wait)
		return StartResult{}, deps.Errors.RateLimited(deps.Errors.Cooldown, cd.wait)
	default:
		log.Error(ctx, "otp session update failed", "error", err)
		return StartResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	if err := deps.Dispatch(ctx, id, code); err != nil {
		deps.MetricInc(deps.Metrics.DispatchFailure)
		log.Error(ctx, "otp dispatch failed", "error", err, "attempts", updated.Attempts)
		return StartResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	deps.MetricInc(deps.Metrics.Resent)
	log.Info(ctx, "otp resent", "attempts", updated.Attempts)
	return StartResult{Outcome: StartResent, Attempts: updated.Attempts}, nil
}

// RunOTPVerify checks provided against the live code for id and, on a
// match, runs complete and destroys the session. A mismatch leaves the
// session untouched.
func RunOTPVerify[P, R any](
	ctx context.Context,
	id string,
	provided string,
	deps OTPActionDeps[P],
	complete func(context.Context, OTPSession[P]) (R, error),
) (R, error) {
	var zero R
	normalizeOTPDeps(&deps)
	if deps.GetSession == nil || deps.DeleteSession == nil || deps.MatchOTP == nil || complete == nil {
		return zero, deps.Errors.EngineNotReady
	}

	log := deps.Log.With("kind", deps.Kind, "email", id)

	if wait, err := deps.CheckVerifyLimiter(ctx, id); err != nil {
		if deps.IsVerifyLocked(err) {
			deps.MetricInc(deps.Metrics.VerifyLocked)
			log.Info(ctx, "otp verify refused", "reason", "locked", "wait", wait)
			return zero, deps.Errors.RateLimited(deps.Errors.VerifyLocked, wait)
		}
		log.Error(ctx, "otp verify limiter failed", "error", err)
		return zero, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	session, err := deps.GetSession(ctx, id)
	if err != nil {
		if deps.IsSessionNotFound(err) {
			deps.MetricInc(deps.Metrics.VerifyFailure)
			return zero, deps.Errors.SessionExpired
		}
		log.Error(ctx, "otp session read failed", "error", err)
		return zero, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	if !deps.MatchOTP(provided, session.OTP) {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		if err := deps.RecordVerifyFailure(ctx, id); err != nil {
			log.Warn(ctx, "failed to record otp verify failure", "error", err)
		}
		return zero, deps.Errors.InvalidOTP
	}

	result, err := complete(ctx, session)
	if err != nil {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		if deps.DiscardSessionOn(err) {
			if delErr := deps.DeleteSession(ctx, id); delErr != nil {
				log.Warn(ctx, "failed to delete otp session", "error", delErr)
			}
		}
		return zero, err
	}

	if err := deps.DeleteSession(ctx, id); err != nil {
		log.Warn(ctx, "failed to delete otp session after verify", "error", err)
	}
	if err := deps.ResetVerifyLimiter(ctx, id); err != nil {
		log.Warn(ctx, "failed to reset otp verify failures", "error", err)
	}

	deps.MetricInc(deps.Metrics.VerifySuccess)
	log.Info(ctx, "otp verified")
	return result, nil
}

// ceilSeconds rounds d up to a whole number of seconds.
func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return ((d + time.Second - 1) / time.Second) * time.Second
}
