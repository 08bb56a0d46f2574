package postgres

import (
	"context"

	hireAuth "github.com/MrEthical07/hireAuth"
)

/* ==== ORGANIZATIONS ==== */

func (s *Store) GetOrganization(ctx context.Context, id string) (hireAuth.Organization, error) {
	if s == nil || s.db == nil {
		return hireAuth.Organization{}, errNoDB
	}
	var o hireAuth.Organization
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM organizations
		 WHERE id = $1`, id).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return hireAuth.Organization{}, mapError(err, "organization")
	}
	return o, nil
}

func (s *Store) UpdateOrganization(ctx context.Context, id, name string) (hireAuth.Organization, error) {
	if s == nil || s.db == nil {
		return hireAuth.Organization{}, errNoDB
	}
	var o hireAuth.Organization
	err := s.db.QueryRowContext(ctx,
		`UPDATE organizations SET name = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, created_at, updated_at`, id, name).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return hireAuth.Organization{}, mapError(err, "organization")
	}
	return o, nil
}

/* ==== USERS ==== */

// ListUsers returns the accounts of one organization without password hashes.
func (s *Store) ListUsers(ctx context.Context, organizationID string) ([]hireAuth.Account, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, organization_id, created_at FROM users
		 WHERE organization_id = $1
		 ORDER BY created_at, id`, organizationID)
	if err != nil {
		return nil, mapError(err, "users")
	}
	defer rows.Close()

	out := make([]hireAuth.Account, 0)
	for rows.Next() {
		var a hireAuth.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.OrganizationID, &a.CreatedAt); err != nil {
			return nil, mapError(err, "users")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "users")
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (hireAuth.Account, error) {
	if s == nil || s.db == nil {
		return hireAuth.Account{}, errNoDB
	}
	var a hireAuth.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, organization_id, created_at FROM users
		 WHERE id = $1`, id).Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.OrganizationID, &a.CreatedAt)
	if err != nil {
		return hireAuth.Account{}, mapError(err, "user")
	}
	return a, nil
}

/* ==== JOBS ==== */

const jobColumns = `id, title, description, location, salary, organization_id, posted_by_id, created_at, updated_at`

func scanJob(row scanner) (hireAuth.Job, error) {
	var j hireAuth.Job
	err := row.Scan(&j.ID, &j.Title, &j.Description, &j.Location, &j.Salary,
		&j.OrganizationID, &j.PostedByID, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}

func (s *Store) ListJobs(ctx context.Context, organizationID string) ([]hireAuth.Job, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE organization_id = $1
		 ORDER BY created_at DESC, id`, organizationID)
	if err != nil {
		return nil, mapError(err, "jobs")
	}
	defer rows.Close()

	out := make([]hireAuth.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, mapError(err, "jobs")
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "jobs")
	}
	return out, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (hireAuth.Job, error) {
	if s == nil || s.db == nil {
		return hireAuth.Job{}, errNoDB
	}
	j, err := scanJob(s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE id = $1`, id))
	if err != nil {
		return hireAuth.Job{}, mapError(err, "job")
	}
	return j, nil
}

// CreateJob inserts j with a fresh id. OrganizationID and PostedByID must be
// set by the caller.
func (s *Store) CreateJob(ctx context.Context, j hireAuth.Job) (hireAuth.Job, error) {
	if s == nil || s.db == nil {
		return hireAuth.Job{}, errNoDB
	}
	out, err := scanJob(s.db.QueryRowContext(ctx,
		`INSERT INTO jobs (id, title, description, location, salary, organization_id, posted_by_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+jobColumns,
		newID(), j.Title, j.Description, j.Location, j.Salary, j.OrganizationID, j.PostedByID))
	if err != nil {
		return hireAuth.Job{}, mapError(err, "job")
	}
	return out, nil
}

// UpdateJob rewrites the editable fields of the job with j.ID.
func (s *Store) UpdateJob(ctx context.Context, j hireAuth.Job) (hireAuth.Job, error) {
	if s == nil || s.db == nil {
		return hireAuth.Job{}, errNoDB
	}
	out, err := scanJob(s.db.QueryRowContext(ctx,
		`UPDATE jobs SET title = $2, description = $3, location = $4, salary = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+jobColumns,
		j.ID, j.Title, j.Description, j.Location, j.Salary))
	if err != nil {
		return hireAuth.Job{}, mapError(err, "job")
	}
	return out, nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "job")
	}
	return expectOneRow(res, "job")
}

/* ==== APPLICATIONS ==== */

const applicationColumns = `id, job_id, organization_id, applicant_name, applicant_email, resume_url, status, created_at, updated_at`

func scanApplication(row scanner) (hireAuth.Application, error) {
	var a hireAuth.Application
	err := row.Scan(&a.ID, &a.JobID, &a.OrganizationID, &a.ApplicantName, &a.ApplicantEmail,
		&a.ResumeURL, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) ListApplications(ctx context.Context, organizationID string) ([]hireAuth.Application, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE organization_id = $1
		 ORDER BY created_at DESC, id`, organizationID)
	if err != nil {
		return nil, mapError(err, "applications")
	}
	defer rows.Close()

	out := make([]hireAuth.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, mapError(err, "applications")
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "applications")
	}
	return out, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (hireAuth.Application, error) {
	if s == nil || s.db == nil {
		return hireAuth.Application{}, errNoDB
	}
	a, err := scanApplication(s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE id = $1`, id))
	if err != nil {
		return hireAuth.Application{}, mapError(err, "application")
	}
	return a, nil
}

// CreateApplication inserts a with a fresh id. An empty status becomes
// APPLIED.
func (s *Store) CreateApplication(ctx context.Context, a hireAuth.Application) (hireAuth.Application, error) {
	if s == nil || s.db == nil {
		return hireAuth.Application{}, errNoDB
	}
	if a.Status == "" {
		a.Status = hireAuth.ApplicationApplied
	}
	out, err := scanApplication(s.db.QueryRowContext(ctx,
		`INSERT INTO applications (id, job_id, organization_id, applicant_name, applicant_email, resume_url, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+applicationColumns,
		newID(), a.JobID, a.OrganizationID, a.ApplicantName, normalizeEmail(a.ApplicantEmail), a.ResumeURL, string(a.Status)))
	if err != nil {
		return hireAuth.Application{}, mapError(err, "application")
	}
	return out, nil
}

func (s *Store) UpdateApplication(ctx context.Context, a hireAuth.Application) (hireAuth.Application, error) {
	if s == nil || s.db == nil {
		return hireAuth.Application{}, errNoDB
	}
	out, err := scanApplication(s.db.QueryRowContext(ctx,
		`UPDATE applications
		 SET applicant_name = $2, applicant_email = $3, resume_url = $4, status = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+applicationColumns,
		a.ID, a.ApplicantName, normalizeEmail(a.ApplicantEmail), a.ResumeURL, string(a.Status)))
	if err != nil {
		return hireAuth.Application{}, mapError(err, "application")
	}
	return out, nil
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "application")
	}
	return expectOneRow(res, "application")
}
