package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrVerifyLocked            = errors.New("otp verification locked")
	ErrLimiterRedisUnavailable = errors.New("limiter redis unavailable")
)

type VerifyFailureConfig struct {
	// Prefix namespaces the counters, one per flow kind.
	Prefix      string
	MaxFailures int
	Window      time.Duration
}

// VerifyFailureLimiter counts failed OTP comparisons per identifier in a
// fixed window kept apart from the session record.
type VerifyFailureLimiter struct {
	redis  redis.UniversalClient
	config VerifyFailureConfig
}

func NewVerifyFailureLimiter(redisClient redis.UniversalClient, cfg VerifyFailureConfig) *VerifyFailureLimiter {
	if cfg.Prefix == "" {
		cfg.Prefix = "otpfail"
	}
	return &VerifyFailureLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *VerifyFailureLimiter) Enabled() bool {
	return l != nil && l.config.MaxFailures > 0 && l.config.Window > 0
}

// Check returns ErrVerifyLocked and the time left in the window once
// MaxFailures failures have been recorded for id.
func (l *VerifyFailureLimiter) Check(ctx context.Context, id string) (time.Duration, error) {
	if !l.Enabled() {
		return 0, nil
	}

	key := l.key(id)
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrLimiterRedisUnavailable, err)
	}
	if count < int64(l.config.MaxFailures) {
		return 0, nil
	}

	wait, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrLimiterRedisUnavailable, err)
	}
	if wait < 0 {
		wait = l.config.Window
	}
	return wait, ErrVerifyLocked
}

func (l *VerifyFailureLimiter) RecordFailure(ctx context.Context, id string) error {
	if !l.Enabled() {
		return nil
	}

	key := l.key(id)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterRedisUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterRedisUnavailable, err)
		}
	}
	return nil
}

func (l *VerifyFailureLimiter) Reset(ctx context.Context, id string) error {
	if !l.Enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterRedisUnavailable, err)
	}
	return nil
}

func (l *VerifyFailureLimiter) key(id string) string {
	return l.config.Prefix + ":" + id
}
