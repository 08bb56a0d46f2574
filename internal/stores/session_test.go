package stores

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testSession struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Attempts int    `json:"attempts"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestSessionStorePutGetDelete(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	in := testSession{Email: "a@x.com", OTP: "123456", Attempts: 1}
	if err := store.Put(ctx, "a@x.com", in, 600*time.Second); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if !mr.Exists("registration:a@x.com") {
		t.Fatal("expected namespaced key to exist")
	}
	if ttl := mr.TTL("registration:a@x.com"); ttl != 600*time.Second {
		t.Fatalf("expected ttl 600s, got %v", ttl)
	}

	got, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, in)
	}

	if err := store.Delete(ctx, "a@x.com"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "a@x.com"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSessionStoreDeleteIsIdempotent(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewSessionStore[testSession](rdb, "registration", nil)

	for i := 0; i < 2; i++ {
		if err := store.Delete(context.Background(), "missing@x.com"); err != nil {
			t.Fatalf("Delete #%d on absent key failed: %v", i, err)
		}
	}
}

func TestSessionStoreRejectsNonPositiveTTL(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewSessionStore[testSession](rdb, "registration", nil)

	if err := store.Put(context.Background(), "a@x.com", testSession{}, 0); !errors.Is(err, ErrSessionInvalidTTL) {
		t.Fatalf("expected ErrSessionInvalidTTL, got %v", err)
	}
}

func TestSessionStoreExpiresWithTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	if err := store.Put(ctx, "a@x.com", testSession{OTP: "111111"}, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	mr.FastForward(61 * time.Second)

	if _, err := store.Get(ctx, "a@x.com"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be absent, got %v", err)
	}
}

func TestSessionStoreCorruptPayloadIsAbsentAndCleared(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	if err := mr.Set("registration:a@x.com", "{not-json"); err != nil {
		t.Fatalf("seed corrupt value failed: %v", err)
	}

	if _, err := store.Get(ctx, "a@x.com"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected corrupt session to read as absent, got %v", err)
	}
	if mr.Exists("registration:a@x.com") {
		t.Fatal("expected corrupt session to be deleted")
	}
}

func TestSessionStoreDistinguishesOutageFromAbsence(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	mr.Close()

	_, err := store.Get(ctx, "a@x.com")
	if errors.Is(err, ErrSessionNotFound) {
		t.Fatal("outage must not be reported as absence")
	}
	if !errors.Is(err, ErrSessionRedisUnavailable) {
		t.Fatalf("expected ErrSessionRedisUnavailable, got %v", err)
	}
	if err := store.Put(ctx, "a@x.com", testSession{}, time.Minute); !errors.Is(err, ErrSessionRedisUnavailable) {
		t.Fatalf("expected Put to report outage, got %v", err)
	}
	if err := store.Delete(ctx, "a@x.com"); !errors.Is(err, ErrSessionRedisUnavailable) {
		t.Fatalf("expected Delete to report outage, got %v", err)
	}
	if _, err := store.Update(ctx, "a@x.com", time.Minute, func(*testSession) error { return nil }); !errors.Is(err, ErrSessionRedisUnavailable) {
		t.Fatalf("expected Update to report outage, got %v", err)
	}
}

func TestSessionStoreUpdate(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "password-reset", nil)

	if err := store.Put(ctx, "a@x.com", testSession{OTP: "111111", Attempts: 1}, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	mr.FastForward(30 * time.Second)

	updated, err := store.Update(ctx, "a@x.com", 10*time.Minute, func(s *testSession) error {
		s.OTP = "222222"
		s.Attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.OTP != "222222" || updated.Attempts != 2 {
		t.Fatalf("unexpected updated value: %+v", updated)
	}
	if ttl := mr.TTL("password-reset:a@x.com"); ttl != 10*time.Minute {
		t.Fatalf("expected refreshed ttl, got %v", ttl)
	}

	stored, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored != updated {
		t.Fatalf("stored value %+v differs from returned %+v", stored, updated)
	}
}

func TestSessionStoreUpdateMutateErrorLeavesValue(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)
	errStop := errors.New("cooldown")

	if err := store.Put(ctx, "a@x.com", testSession{OTP: "111111", Attempts: 1}, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, err := store.Update(ctx, "a@x.com", time.Minute, func(s *testSession) error {
		s.Attempts = 99
		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Fatalf("expected mutate error to surface, got %v", err)
	}

	stored, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Attempts != 1 {
		t.Fatalf("aborted update must not write, got attempts=%d", stored.Attempts)
	}
}

func TestSessionStoreUpdateMissingAndCorrupt(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	called := false
	_, err := store.Update(ctx, "missing@x.com", time.Minute, func(*testSession) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if called {
		t.Fatal("mutate must not run for an absent session")
	}

	if err := mr.Set("registration:bad@x.com", "[]garbage"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := store.Update(ctx, "bad@x.com", time.Minute, func(*testSession) error { return nil }); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected corrupt session to read as absent, got %v", err)
	}
	if mr.Exists("registration:bad@x.com") {
		t.Fatal("expected corrupt session to be cleared")
	}
}

func TestSessionStoreConcurrentUpdatesNeverLoseWrites(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	if err := store.Put(ctx, "a@x.com", testSession{Attempts: 0}, time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "a@x.com", time.Minute, func(s *testSession) error {
				s.Attempts++
				return nil
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrSessionContention) {
				t.Errorf("unexpected update error: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Attempts != succeeded {
		t.Fatalf("attempts=%d but %d updates reported success", stored.Attempts, succeeded)
	}
}

func TestSessionStoreCreateOnlyWhenAbsent(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	store := NewSessionStore[testSession](rdb, "registration", nil)

	first := testSession{Email: "a@x.com", OTP: "111111", Attempts: 1}
	if err := store.Create(ctx, "a@x.com", first, time.Minute); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := testSession{Email: "a@x.com", OTP: "222222", Attempts: 1}
	if err := store.Create(ctx, "a@x.com", second, time.Minute); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}

	got, err := store.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.OTP != "111111" {
		t.Fatalf("expected first value to survive, got %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if err := store.Create(ctx, "a@x.com", second, time.Minute); err != nil {
		t.Fatalf("Create after expiry failed: %v", err)
	}
}
