package hireAuth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/hireAuth/internal/flows"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("test-signing-secret-0123456789ab")

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = testSecret
	cfg.Password.BcryptCost = 4
	cfg.Security.EnumerationDelayMin = 0
	cfg.Security.EnumerationDelayMax = 0
	return cfg
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
	mr  *miniredis.Miniredis
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves both the engine clock and the Redis TTL clock.
func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	c.mr.FastForward(d)
}

type testEnv struct {
	engine   *Engine
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	accounts *memAccountStore
	mailer   *memMailer
	clock    *testClock
	sleeps   int
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	env := &testEnv{
		mr:       mr,
		rdb:      rdb,
		accounts: newMemAccountStore(),
		mailer:   &memMailer{},
		clock:    &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), mr: mr},
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(env.accounts).
		WithMailer(env.mailer).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.now = env.clock.Now
	engine.sleep = func(context.Context, time.Duration) { env.sleeps++ }
	env.engine = engine
	return env
}

func (env *testEnv) registrationSession(t *testing.T, email string) (flows.OTPSession[flows.RegistrationPayload], bool) {
	t.Helper()
	var s flows.OTPSession[flows.RegistrationPayload]
	ok := env.readSession(t, env.engine.config.Registration.RedisPrefix+":"+email, &s)
	return s, ok
}

func (env *testEnv) resetSession(t *testing.T, email string) (flows.OTPSession[flows.PasswordResetPayload], bool) {
	t.Helper()
	var s flows.OTPSession[flows.PasswordResetPayload]
	ok := env.readSession(t, env.engine.config.PasswordReset.RedisPrefix+":"+email, &s)
	return s, ok
}

func (env *testEnv) readSession(t *testing.T, key string, out any) bool {
	t.Helper()
	raw, err := env.rdb.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		t.Fatalf("read session %s: %v", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode session %s: %v", key, err)
	}
	return true
}

// seedAccount stores an account with a hash produced by the engine hasher.
func (env *testEnv) seedAccount(t *testing.T, email, plain string) Account {
	t.Helper()
	hash, err := env.engine.hasher.Hash(plain)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	account, err := env.accounts.CreateAccountWithOrganization(context.Background(), NewAccount{
		Name:             "Seeded",
		Email:            email,
		PasswordHash:     hash,
		Role:             RoleAdmin,
		OrganizationName: "Seeded Org",
	})
	if err != nil {
		t.Fatalf("seed account failed: %v", err)
	}
	return account
}

type memAccountStore struct {
	mu          sync.Mutex
	byEmail     map[string]Account
	orgs        map[string]Organization
	createCalls int
	updateCalls int
	failLookup  error
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{
		byEmail: map[string]Account{},
		orgs:    map[string]Organization{},
	}
}

func (s *memAccountStore) GetAccountByEmail(_ context.Context, email string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookup != nil {
		return Account{}, s.failLookup
	}
	a, ok := s.byEmail[email]
	if !ok {
		return Account{}, fmt.Errorf("account %s: %w", email, ErrNotFound)
	}
	return a, nil
}

func (s *memAccountStore) CreateAccountWithOrganization(_ context.Context, in NewAccount) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if _, ok := s.byEmail[in.Email]; ok {
		return Account{}, fmt.Errorf("users_email_key: %w", ErrConflict)
	}
	now := time.Now().UTC()
	org := Organization{ID: uuid.NewString(), Name: in.OrganizationName, CreatedAt: now, UpdatedAt: now}
	a := Account{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   in.PasswordHash,
		Role:           in.Role,
		OrganizationID: org.ID,
		CreatedAt:      now,
	}
	s.orgs[org.ID] = org
	s.byEmail[a.Email] = a
	return a, nil
}

func (s *memAccountStore) UpdatePasswordHash(_ context.Context, email, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	a, ok := s.byEmail[email]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = hash
	s.byEmail[email] = a
	return nil
}

func (s *memAccountStore) GetAccountWithOrganization(_ context.Context, id string) (AccountWithOrganization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byEmail {
		if a.ID == id {
			org := s.orgs[a.OrganizationID]
			return AccountWithOrganization{
				Account:      a,
				Organization: OrganizationRef{ID: org.ID, Name: org.Name},
			}, nil
		}
	}
	return AccountWithOrganization{}, ErrNotFound
}

func (s *memAccountStore) remove(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEmail, email)
}

func (s *memAccountStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}

func (s *memAccountStore) get(email string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byEmail[email]
}

type memMailer struct {
	mu           sync.Mutex
	verification map[string][]string
	reset        map[string][]string
	fail         error
}

func (m *memMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if m.verification == nil {
		m.verification = map[string][]string{}
	}
	m.verification[email] = append(m.verification[email], code)
	return nil
}

func (m *memMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if m.reset == nil {
		m.reset = map[string][]string{}
	}
	m.reset[email] = append(m.reset[email], code)
	return nil
}

func (m *memMailer) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *memMailer) verificationCodes(email string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.verification[email]...)
}

func (m *memMailer) resetCodes(email string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reset[email]...)
}

func requireRateLimit(t *testing.T, err error, reason error) *RateLimitError {
	t.Helper()
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, reason) {
		t.Fatalf("expected rate limit %v, got %v", reason, err)
	}
	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected *RateLimitError, got %T", err)
	}
	return rl
}
