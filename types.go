package hireAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/hireAuth/jwt"
	"github.com/MrEthical07/hireAuth/policy"
)

// Role is an account role. The values are shared with the policy package.
type Role = policy.Role

const (
	RoleAdmin     = policy.RoleAdmin
	RoleHR        = policy.RoleHR
	RoleEmployee  = policy.RoleEmployee
	RoleCandidate = policy.RoleCandidate
)

// Claim is the identity carried by an access token.
type Claim = jwt.UserClaim

// Account is a persisted user. PasswordHash never leaves the process.
type Account struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	OrganizationID string    `json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Claim returns the token claim for a.
func (a Account) Claim() Claim {
	return Claim{
		ID:             a.ID,
		Role:           string(a.Role),
		OrganizationID: a.OrganizationID,
		Name:           a.Name,
		Email:          a.Email,
	}
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrganizationRef is the organization summary embedded in self lookups.
type OrganizationRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type AccountWithOrganization struct {
	Account
	Organization OrganizationRef `json:"organization"`
}

// NewAccount is the input for creating an organization together with its
// first account.
type NewAccount struct {
	Name             string
	Email            string
	PasswordHash     string
	Role             Role
	OrganizationName string
}

// AccountStore is the durable account repository used by the engine.
//
// Implementations return errors matching ErrNotFound for absent accounts and
// ErrConflict when the email is already taken.
type AccountStore interface {
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	CreateAccountWithOrganization(ctx context.Context, in NewAccount) (Account, error)
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error
	GetAccountWithOrganization(ctx context.Context, id string) (AccountWithOrganization, error)
}

// Mailer delivers one-time codes. Errors propagate to the caller.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

type Job struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Location       string    `json:"location,omitempty"`
	Salary         string    `json:"salary,omitempty"`
	OrganizationID string    `json:"organizationId"`
	PostedByID     string    `json:"postedById"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type ApplicationStatus string

const (
	ApplicationApplied   ApplicationStatus = "APPLIED"
	ApplicationScreening ApplicationStatus = "SCREENING"
	ApplicationInterview ApplicationStatus = "INTERVIEW"
	ApplicationOffer     ApplicationStatus = "OFFER"
	ApplicationHired     ApplicationStatus = "HIRED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationApplied, ApplicationScreening, ApplicationInterview,
		ApplicationOffer, ApplicationHired, ApplicationRejected:
		return true
	}
	return false
}

type Application struct {
	ID             string            `json:"id"`
	JobID          string            `json:"jobId"`
	OrganizationID string            `json:"organizationId"`
	ApplicantName  string            `json:"applicantName"`
	ApplicantEmail string            `json:"applicantEmail"`
	ResumeURL      string            `json:"resumeUrl,omitempty"`
	Status         ApplicationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegistrationRequest starts or resends a registration.
type RegistrationRequest struct {
	Name             string
	Email            string
	Password         string
	OrganizationName string
}
