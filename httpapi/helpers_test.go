package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

// memStore backs both the engine's account store and the resource routes.
type memStore struct {
	mu    sync.Mutex
	users map[string]hireAuth.Account
	orgs  map[string]hireAuth.Organization
	jobs  map[string]hireAuth.Job
	apps  map[string]hireAuth.Application
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[string]hireAuth.Account),
		orgs:  make(map[string]hireAuth.Organization),
		jobs:  make(map[string]hireAuth.Job),
		apps:  make(map[string]hireAuth.Application),
	}
}

func (m *memStore) GetAccountByEmail(_ context.Context, email string) (hireAuth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return hireAuth.Account{}, hireAuth.ErrNotFound
}

func (m *memStore) CreateAccountWithOrganization(_ context.Context, in hireAuth.NewAccount) (hireAuth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == in.Email {
			return hireAuth.Account{}, fmt.Errorf("%w: email taken", hireAuth.ErrConflict)
		}
	}
	now := time.Now().UTC()
	org := hireAuth.Organization{ID: uuid.NewString(), Name: in.OrganizationName, CreatedAt: now, UpdatedAt: now}
	m.orgs[org.ID] = org
	acc := hireAuth.Account{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   in.PasswordHash,
		Role:           in.Role,
		OrganizationID: org.ID,
		CreatedAt:      now,
	}
	m.users[acc.ID] = acc
	return acc, nil
}

func (m *memStore) UpdatePasswordHash(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == email {
			u.PasswordHash = hash
			m.users[id] = u
			return nil
		}
	}
	return hireAuth.ErrNotFound
}

func (m *memStore) GetAccountWithOrganization(_ context.Context, id string) (hireAuth.AccountWithOrganization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return hireAuth.AccountWithOrganization{}, hireAuth.ErrNotFound
	}
	org := m.orgs[u.OrganizationID]
	return hireAuth.AccountWithOrganization{
		Account:      u,
		Organization: hireAuth.OrganizationRef{ID: org.ID, Name: org.Name},
	}, nil
}

func (m *memStore) GetOrganization(_ context.Context, id string) (hireAuth.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return hireAuth.Organization{}, hireAuth.ErrNotFound
	}
	return org, nil
}

func (m *memStore) UpdateOrganization(_ context.Context, id, name string) (hireAuth.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	if !ok {
		return hireAuth.Organization{}, hireAuth.ErrNotFound
	}
	org.Name = name
	org.UpdatedAt = time.Now().UTC()
	m.orgs[id] = org
	return org, nil
}

func (m *memStore) ListUsers(_ context.Context, orgID string) ([]hireAuth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []hireAuth.Account{}
	for _, u := range m.users {
		if u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (hireAuth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return hireAuth.Account{}, hireAuth.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ListJobs(_ context.Context, orgID string) ([]hireAuth.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []hireAuth.Job{}
	for _, j := range m.jobs {
		if j.OrganizationID == orgID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memStore) GetJob(_ context.Context, id string) (hireAuth.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return hireAuth.Job{}, hireAuth.ErrNotFound
	}
	return j, nil
}

func (m *memStore) CreateJob(_ context.Context, j hireAuth.Job) (hireAuth.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID = uuid.NewString()
	j.CreatedAt = time.Now().UTC()
	j.UpdatedAt = j.CreatedAt
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memStore) UpdateJob(_ context.Context, j hireAuth.Job) (hireAuth.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[j.ID]; !ok {
		return hireAuth.Job{}, hireAuth.ErrNotFound
	}
	j.UpdatedAt = time.Now().UTC()
	m.jobs[j.ID] = j
	return j, nil
}

func (m *memStore) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return hireAuth.ErrNotFound
	}
	delete(m.jobs, id)
	return nil
}

func (m *memStore) ListApplications(_ context.Context, orgID string) ([]hireAuth.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []hireAuth.Application{}
	for _, a := range m.apps {
		if a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetApplication(_ context.Context, id string) (hireAuth.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	if !ok {
		return hireAuth.Application{}, hireAuth.ErrNotFound
	}
	return a, nil
}

func (m *memStore) CreateApplication(_ context.Context, a hireAuth.Application) (hireAuth.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	if a.Status == "" {
		a.Status = hireAuth.ApplicationApplied
	}
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	m.apps[a.ID] = a
	return a, nil
}

func (m *memStore) UpdateApplication(_ context.Context, a hireAuth.Application) (hireAuth.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[a.ID]; !ok {
		return hireAuth.Application{}, hireAuth.ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	m.apps[a.ID] = a
	return a, nil
}

func (m *memStore) DeleteApplication(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[id]; !ok {
		return hireAuth.ErrNotFound
	}
	delete(m.apps, id)
	return nil
}

// addAccount places an account in orgID, creating the organization if needed.
func (m *memStore) addAccount(t *testing.T, email string, role hireAuth.Role, orgID string) hireAuth.Account {
	t.Helper()
	hasher, err := password.NewBcrypt(4, 8)
	require.NoError(t, err)
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[orgID]; !ok {
		m.orgs[orgID] = hireAuth.Organization{ID: orgID, Name: orgID + " Inc"}
	}
	acc := hireAuth.Account{
		ID:             uuid.NewString(),
		Name:           strings.Split(email, "@")[0],
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		OrganizationID: orgID,
	}
	m.users[acc.ID] = acc
	return acc
}

type memMailer struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
}

func (m *memMailer) record(email, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	m.sent++
}

func (m *memMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.record(email, code)
	return nil
}

func (m *memMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	m.record(email, code)
	return nil
}

func (m *memMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func (m *memMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

type testServer struct {
	srv    *Server
	engine *hireAuth.Engine
	store  *memStore
	mailer *memMailer
	mr     *miniredis.Miniredis
}

func testServerConfig() Config {
	cfg := DefaultConfig()
	cfg.AuthLimit = RateLimit{Window: time.Hour, Max: 1000}
	cfg.GlobalLimit = RateLimit{Window: time.Hour, Max: 1000}
	return cfg
}

func newTestServer(t *testing.T, cfg Config, probes ...Probe) *testServer {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engineCfg := hireAuth.DefaultConfig()
	engineCfg.JWT.Secret = []byte("httpapi-test-secret-0123456789ab")
	engineCfg.Password.BcryptCost = 4
	engineCfg.Security.EnumerationDelayMin = 0
	engineCfg.Security.EnumerationDelayMax = 0

	store := newMemStore()
	mailer := &memMailer{}
	engine, err := hireAuth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithAccountStore(store).
		WithMailer(mailer).
		Build()
	require.NoError(t, err)

	srv := New(engine, store, cfg, probes...)
	t.Cleanup(func() {
		srv.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return &testServer{srv: srv, engine: engine, store: store, mailer: mailer, mr: mr}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
