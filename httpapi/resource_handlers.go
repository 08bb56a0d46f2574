package httpapi

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/middleware"
	"github.com/MrEthical07/hireAuth/policy"
)

// authorize checks the caller against one target. Handlers that address an
// existing record load it first so the decision sees its real organization.
func (s *Server) authorize(r *http.Request, res policy.Resource, act policy.Action, orgID, ownerID string) (hireAuth.Claim, error) {
	claim, ok := middleware.ClaimFromContext(r.Context())
	if !ok {
		return hireAuth.Claim{}, hireAuth.ErrUnauthenticated
	}
	err := s.auth.Authorize(r.Context(), claim, policy.Request{
		Resource:             res,
		Action:               act,
		TargetOrganizationID: orgID,
		TargetOwnerID:        ownerID,
	})
	return claim, err
}

func callerOrg(r *http.Request) string {
	claim, _ := middleware.ClaimFromContext(r.Context())
	return claim.OrganizationID
}

func invalid(field, problem string) error {
	return fmt.Errorf("%w: %s %s", hireAuth.ErrValidation, field, problem)
}

func required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

// Users

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	orgID := callerOrg(r)
	if _, err := s.authorize(r, policy.ResourceUsers, policy.ActionList, orgID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	users, err := s.res.ListUsers(r.Context(), orgID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.res.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceUsers, policy.ActionRead, user.OrganizationID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Organizations

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgID := callerOrg(r)
	if _, err := s.authorize(r, policy.ResourceOrganizations, policy.ActionList, orgID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	org, err := s.res.GetOrganization(r.Context(), orgID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, []hireAuth.Organization{org})
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	_, err := s.authorize(r, policy.ResourceOrganizations, policy.ActionCreate, callerOrg(r), "")
	if err == nil {
		err = fmt.Errorf("%w: organizations are created at registration", hireAuth.ErrForbidden)
	}
	s.respondError(w, r, err)
}

func (s *Server) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.authorize(r, policy.ResourceOrganizations, policy.ActionRead, id, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	org, err := s.res.GetOrganization(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type organizationUpdate struct {
	Name string `json:"name"`
}

func (s *Server) handleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.authorize(r, policy.ResourceOrganizations, policy.ActionUpdate, id, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	var req organizationUpdate
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := required(req.Name, "name"); err != nil {
		s.respondError(w, r, err)
		return
	}
	org, err := s.res.UpdateOrganization(r.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (s *Server) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	_, err := s.authorize(r, policy.ResourceOrganizations, policy.ActionDelete, r.PathValue("id"), "")
	if err == nil {
		err = fmt.Errorf("%w: organizations cannot be deleted", hireAuth.ErrForbidden)
	}
	s.respondError(w, r, err)
}

// Jobs

type jobInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Salary      *string `json:"salary"`
}

func (in jobInput) apply(j *hireAuth.Job) {
	if in.Title != nil {
		j.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		j.Description = strings.TrimSpace(*in.Description)
	}
	if in.Location != nil {
		j.Location = strings.TrimSpace(*in.Location)
	}
	if in.Salary != nil {
		j.Salary = strings.TrimSpace(*in.Salary)
	}
}

func validateJob(j hireAuth.Job) error {
	if err := required(j.Title, "title"); err != nil {
		return err
	}
	return required(j.Description, "description")
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	orgID := callerOrg(r)
	if _, err := s.authorize(r, policy.ResourceJobs, policy.ActionList, orgID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	jobs, err := s.res.ListJobs(r.Context(), orgID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	claim, err := s.authorize(r, policy.ResourceJobs, policy.ActionCreate, callerOrg(r), "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var in jobInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	job := hireAuth.Job{OrganizationID: claim.OrganizationID, PostedByID: claim.ID}
	in.apply(&job)
	if err := validateJob(job); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.res.CreateJob(r.Context(), job)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.res.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceJobs, policy.ActionRead, job.OrganizationID, job.PostedByID); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.res.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceJobs, policy.ActionUpdate, job.OrganizationID, job.PostedByID); err != nil {
		s.respondError(w, r, err)
		return
	}
	var in jobInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	in.apply(&job)
	if err := validateJob(job); err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.res.UpdateJob(r.Context(), job)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.res.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceJobs, policy.ActionDelete, job.OrganizationID, job.PostedByID); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.res.DeleteJob(r.Context(), job.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Applications

type applicationInput struct {
	JobID          string  `json:"jobId"`
	ApplicantName  *string `json:"applicantName"`
	ApplicantEmail *string `json:"applicantEmail"`
	ResumeURL      *string `json:"resumeUrl"`
	Status         *string `json:"status"`
}

func (in applicationInput) apply(a *hireAuth.Application) {
	if in.ApplicantName != nil {
		a.ApplicantName = strings.TrimSpace(*in.ApplicantName)
	}
	if in.ApplicantEmail != nil {
		a.ApplicantEmail = strings.TrimSpace(*in.ApplicantEmail)
	}
	if in.ResumeURL != nil {
		a.ResumeURL = strings.TrimSpace(*in.ResumeURL)
	}
	if in.Status != nil {
		a.Status = hireAuth.ApplicationStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
	}
}

func validateApplication(a hireAuth.Application) error {
	if err := required(a.ApplicantName, "applicantName"); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(a.ApplicantEmail); err != nil {
		return invalid("applicantEmail", "is invalid")
	}
	if a.Status != "" && !a.Status.Valid() {
		return invalid("status", "is invalid")
	}
	return nil
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	orgID := callerOrg(r)
	if _, err := s.authorize(r, policy.ResourceApplications, policy.ActionList, orgID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	apps, err := s.res.ListApplications(r.Context(), orgID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var in applicationInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := required(in.JobID, "jobId"); err != nil {
		s.respondError(w, r, err)
		return
	}
	job, err := s.res.GetJob(r.Context(), in.JobID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceApplications, policy.ActionCreate, job.OrganizationID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	app := hireAuth.Application{JobID: job.ID, OrganizationID: job.OrganizationID}
	in.apply(&app)
	if err := validateApplication(app); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.res.CreateApplication(r.Context(), app)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.res.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceApplications, policy.ActionRead, app.OrganizationID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.res.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceApplications, policy.ActionUpdate, app.OrganizationID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	var in applicationInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondError(w, r, err)
		return
	}
	// The job of an application is fixed.
	in.apply(&app)
	if err := validateApplication(app); err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.res.UpdateApplication(r.Context(), app)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.res.GetApplication(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.authorize(r, policy.ResourceApplications, policy.ActionDelete, app.OrganizationID, ""); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.res.DeleteApplication(r.Context(), app.ID); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
