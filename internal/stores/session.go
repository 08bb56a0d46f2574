package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/hireAuth/internal/logging"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound         = errors.New("session not found")
	ErrSessionExists           = errors.New("session already exists")
	ErrSessionRedisUnavailable = errors.New("session redis unavailable")
	ErrSessionContention       = errors.New("session update contention")
	ErrSessionInvalidTTL       = errors.New("session ttl must be positive")
)

var errCorruptSession = errors.New("corrupt session payload")

// mutateError carries a caller error out of a WATCH transaction untouched.
type mutateError struct {
	err error
}

func (e *mutateError) Error() string { return e.err.Error() }
func (e *mutateError) Unwrap() error { return e.err }

// SessionStore keeps JSON-encoded values of T under "<prefix>:<id>" with a
// store-enforced TTL.
type SessionStore[T any] struct {
	redis  redis.UniversalClient
	prefix string
	log    logging.Logger
}

func NewSessionStore[T any](redisClient redis.UniversalClient, prefix string, log logging.Logger) *SessionStore[T] {
	if log == nil {
		log = logging.NewNop()
	}
	return &SessionStore[T]{
		redis:  redisClient,
		prefix: prefix,
		log:    log,
	}
}

func (s *SessionStore[T]) Key(id string) string {
	return s.prefix + ":" + id
}

func (s *SessionStore[T]) Put(ctx context.Context, id string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrSessionInvalidTTL
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.redis.Set(ctx, s.Key(id), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	return nil
}

// Create stores value only if no live value exists for id.
func (s *SessionStore[T]) Create(ctx context.Context, id string, value T, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrSessionInvalidTTL
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, s.Key(id), encoded, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Get returns ErrSessionNotFound for absent keys and for payloads that no
// longer decode; the latter are deleted on the way out.
func (s *SessionStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	key := s.Key(id)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrSessionNotFound
		}
		return zero, fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		s.discardCorrupt(ctx, key, err)
		return zero, ErrSessionNotFound
	}
	return value, nil
}

// Delete is idempotent.
func (s *SessionStore[T]) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.Key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
	}
	return nil
}

// Update applies mutate to the stored value inside a WATCH/MULTI transaction
// and writes the result back with ttl. An error returned by mutate aborts the
// write and is returned as is.
func (s *SessionStore[T]) Update(
	ctx context.Context,
	id string,
	ttl time.Duration,
	mutate func(*T) error,
) (T, error) {
	const maxRetries = 4
	var zero T
	key := s.Key(id)

	expiration := ttl
	if expiration <= 0 {
		expiration = redis.KeepTTL
	}

	for i := 0; i < maxRetries; i++ {
		var updated T

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			var current T
			if err := json.Unmarshal(data, &current); err != nil {
				return fmt.Errorf("%w: %v", errCorruptSession, err)
			}

			if err := mutate(&current); err != nil {
				return &mutateError{err: err}
			}

			encoded, err := json.Marshal(current)
			if err != nil {
				return &mutateError{err: fmt.Errorf("encode session: %w", err)}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, expiration)
				return nil
			})
			if err != nil {
				return err
			}

			updated = current
			return nil
		}, key)

		if err == nil {
			return updated, nil
		}

		var mErr *mutateError
		switch {
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.As(err, &mErr):
			return zero, mErr.err
		case errors.Is(err, redis.Nil):
			return zero, ErrSessionNotFound
		case errors.Is(err, errCorruptSession):
			s.discardCorrupt(ctx, key, err)
			return zero, ErrSessionNotFound
		default:
			return zero, fmt.Errorf("%w: %v", ErrSessionRedisUnavailable, err)
		}
	}

	return zero, ErrSessionContention
}

func (s *SessionStore[T]) discardCorrupt(ctx context.Context, key string, cause error) {
	s.log.Warn(ctx, "invalid session payload, clearing", "key", key, "error", cause)
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.log.Warn(ctx, "failed to clear invalid session", "key", key, "error", err)
	}
}
