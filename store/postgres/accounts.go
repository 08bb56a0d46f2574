package postgres

import (
	"context"
	"strings"

	hireAuth "github.com/MrEthical07/hireAuth"
)

const accountColumns = `id, name, email, password_hash, role, organization_id, created_at`

func scanAccount(row scanner) (hireAuth.Account, error) {
	var a hireAuth.Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.OrganizationID, &a.CreatedAt)
	return a, err
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (hireAuth.Account, error) {
	if s == nil || s.db == nil {
		return hireAuth.Account{}, errNoDB
	}
	query :=
		`SELECT ` + accountColumns + ` FROM users
		 WHERE email = $1`

	a, err := scanAccount(s.db.QueryRowContext(ctx, query, normalizeEmail(email)))
	if err != nil {
		return hireAuth.Account{}, mapError(err, "account")
	}
	return a, nil
}

// CreateAccountWithOrganization inserts the organization and its first
// account in one transaction. A taken email fails with ErrConflict and leaves
// no organization behind.
func (s *Store) CreateAccountWithOrganization(ctx context.Context, in hireAuth.NewAccount) (hireAuth.Account, error) {
	if s == nil || s.db == nil {
		return hireAuth.Account{}, errNoDB
	}

	var out hireAuth.Account
	err := WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		orgID := newID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO organizations (id, name)
			 VALUES ($1, $2)`,
			orgID, strings.TrimSpace(in.OrganizationName)); err != nil {
			return mapError(err, "organization")
		}

		row := tx.QueryRowContext(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, organization_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+accountColumns,
			newID(), strings.TrimSpace(in.Name), normalizeEmail(in.Email), in.PasswordHash, string(in.Role), orgID)
		a, err := scanAccount(row)
		if err != nil {
			return mapError(err, "account")
		}
		out = a
		return nil
	})
	if err != nil {
		return hireAuth.Account{}, err
	}
	return out, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE email = $1`,
		normalizeEmail(email), passwordHash)
	if err != nil {
		return mapError(err, "account")
	}
	return expectOneRow(res, "account")
}

func (s *Store) GetAccountWithOrganization(ctx context.Context, id string) (hireAuth.AccountWithOrganization, error) {
	if s == nil || s.db == nil {
		return hireAuth.AccountWithOrganization{}, errNoDB
	}
	query :=
		`SELECT u.id, u.name, u.email, u.role, u.organization_id, u.created_at, o.id, o.name
		 FROM users u
		 JOIN organizations o ON o.id = u.organization_id
		 WHERE u.id = $1`

	var out hireAuth.AccountWithOrganization
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&out.ID, &out.Name, &out.Email, &out.Role, &out.OrganizationID, &out.CreatedAt,
		&out.Organization.ID, &out.Organization.Name,
	)
	if err != nil {
		return hireAuth.AccountWithOrganization{}, mapError(err, "account")
	}
	return out, nil
}
