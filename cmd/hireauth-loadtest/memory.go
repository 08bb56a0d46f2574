package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/google/uuid"
)

// memAccounts keeps accounts in process so the run measures the engine and
// Redis only.
type memAccounts struct {
	mu      sync.RWMutex
	byEmail map[string]hireAuth.Account
	byID    map[string]string
	orgs    map[string]hireAuth.OrganizationRef
}

func newMemAccounts() *memAccounts {
	return &memAccounts{
		byEmail: make(map[string]hireAuth.Account),
		byID:    make(map[string]string),
		orgs:    make(map[string]hireAuth.OrganizationRef),
	}
}

func (m *memAccounts) GetAccountByEmail(_ context.Context, email string) (hireAuth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byEmail[email]
	if !ok {
		return hireAuth.Account{}, hireAuth.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) CreateAccountWithOrganization(_ context.Context, in hireAuth.NewAccount) (hireAuth.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[in.Email]; ok {
		return hireAuth.Account{}, fmt.Errorf("%w: %s", hireAuth.ErrConflict, in.Email)
	}
	org := hireAuth.OrganizationRef{ID: uuid.NewString(), Name: in.OrganizationName}
	a := hireAuth.Account{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   in.PasswordHash,
		Role:           in.Role,
		OrganizationID: org.ID,
		CreatedAt:      time.Now().UTC(),
	}
	m.orgs[org.ID] = org
	m.byEmail[a.Email] = a
	m.byID[a.ID] = a.Email
	return a, nil
}

func (m *memAccounts) UpdatePasswordHash(_ context.Context, email, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byEmail[email]
	if !ok {
		return hireAuth.ErrNotFound
	}
	a.PasswordHash = hash
	m.byEmail[email] = a
	return nil
}

func (m *memAccounts) GetAccountWithOrganization(_ context.Context, id string) (hireAuth.AccountWithOrganization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email, ok := m.byID[id]
	if !ok {
		return hireAuth.AccountWithOrganization{}, hireAuth.ErrNotFound
	}
	a := m.byEmail[email]
	return hireAuth.AccountWithOrganization{Account: a, Organization: m.orgs[a.OrganizationID]}, nil
}

// codeMailer remembers the latest code per email instead of sending it.
type codeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func newCodeMailer() *codeMailer {
	return &codeMailer{codes: make(map[string]string)}
}

func (m *codeMailer) SendVerificationCode(_ context.Context, email, code string) error {
	m.mu.Lock()
	m.codes[email] = code
	m.mu.Unlock()
	return nil
}

func (m *codeMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	return m.SendVerificationCode(ctx, email, code)
}

func (m *codeMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}
