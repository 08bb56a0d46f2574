// Package postgres is the PostgreSQL adapter behind hireAuth.AccountStore and
// the tenant-scoped resources served over HTTP (organizations, users, jobs,
// applications).
//
// Queries are plain SQL over database/sql with the pgx stdlib driver. The
// schema lives in embedded goose migrations applied by [Migrate].
//
// Errors follow the hireAuth taxonomy: a missing row matches
// hireAuth.ErrNotFound, a unique violation matches hireAuth.ErrConflict and a
// broken reference or check constraint matches hireAuth.ErrValidation. Anything
// else is returned wrapped as "db error".
package postgres
