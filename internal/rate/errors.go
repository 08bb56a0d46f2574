package rate

import "errors"

var (
	// ErrRateLimited is returned once a login budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps Redis failures from the limiter.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
