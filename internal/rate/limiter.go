package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds login throttle tuning parameters.
type Config struct {
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// Limiter enforces per-identifier and per-IP failed login budgets using
// Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.config.MaxLoginAttempts > 0 && l.config.LoginCooldown > 0
}

// CheckLogin returns ErrRateLimited and the remaining cooldown once the
// identifier or the IP has used up its failed-attempt budget.
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) (time.Duration, error) {
	if !l.enabled() {
		return 0, nil
	}

	if wait, err := l.checkCounter(ctx, loginUserKey(identifier)); err != nil {
		return wait, err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if wait, err := l.checkCounter(ctx, loginIPKey(ip)); err != nil {
			return wait, err
		}
	}
	return 0, nil
}

// RecordFailure counts one failed login for the identifier+IP pair.
func (l *Limiter) RecordFailure(ctx context.Context, identifier, ip string) error {
	if !l.enabled() {
		return nil
	}

	if _, err := l.incrementWithTTL(ctx, loginUserKey(identifier), l.config.LoginCooldown); err != nil {
		return err
	}
	if l.config.EnableIPThrottle && ip != "" {
		if _, err := l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldown); err != nil {
			return err
		}
	}
	return nil
}

// ResetLogin clears the identifier counter after a successful login. The
// per-IP counter keeps running until its window ends.
func (l *Limiter) ResetLogin(ctx context.Context, identifier string) error {
	if !l.enabled() {
		return nil
	}
	if err := l.redis.Del(ctx, loginUserKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetLoginAttempts returns the current failure counter for an identifier.
// Missing keys return zero.
func (l *Limiter) GetLoginAttempts(ctx context.Context, identifier string) (int, error) {
	count, err := l.redis.Get(ctx, loginUserKey(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) (time.Duration, error) {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count < int64(l.config.MaxLoginAttempts) {
		return 0, nil
	}

	wait, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if wait < 0 {
		wait = l.config.LoginCooldown
	}
	return wait, ErrRateLimited
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}

func loginUserKey(identifier string) string {
	return "al:" + identifier
}

func loginIPKey(ip string) string {
	return "ali:" + ip
}
