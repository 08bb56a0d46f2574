package policy

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the principal carries no usable tenant identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the principal is known but the operation is denied.
	ErrForbidden = errors.New("forbidden")
)

// Role is an account role as carried in the token claim.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleHR        Role = "HR"
	RoleEmployee  Role = "EMPLOYEE"
	RoleCandidate Role = "CANDIDATE"
)

// Elevated reports whether r may manage jobs and applications.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleHR
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleEmployee, RoleCandidate:
		return true
	}
	return false
}

type Resource string

const (
	ResourceUsers         Resource = "users"
	ResourceJobs          Resource = "jobs"
	ResourceApplications  Resource = "applications"
	ResourceOrganizations Resource = "organizations"
)

type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) mutates() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

func (a Action) known() bool {
	return a == ActionList || a == ActionRead || a.mutates()
}

// Principal is the authenticated caller.
type Principal struct {
	SubjectID      string
	Role           Role
	OrganizationID string
}

// Request describes one resource operation. TargetOrganizationID is the
// organization owning the target; for list and create it is the scope the
// caller operates in. TargetOwnerID is the poster of a job, if any.
type Request struct {
	Principal            Principal
	Resource             Resource
	Action               Action
	TargetOrganizationID string
	TargetOwnerID        string
}

type Decision int

const (
	Allow Decision = iota
	Unauthorized
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthorized:
		return "unauthorized"
	default:
		return "forbidden"
	}
}

// Err returns nil for Allow and the matching sentinel otherwise.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case Unauthorized:
		return ErrUnauthorized
	default:
		return ErrForbidden
	}
}

// DenialError describes a denied request.
type DenialError struct {
	Decision Decision
	Subject  string
	Resource Resource
	Action   Action
	Reason   string
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("authorization denied: subject=%q resource=%q action=%q reason=%q",
		e.Subject, e.Resource, e.Action, e.Reason)
}

// Unwrap exposes the decision sentinel for errors.Is.
func (e *DenialError) Unwrap() error {
	return e.Decision.Err()
}

// Evaluate applies the tenant-scoping rules to req. It is total: every
// input maps to exactly one Decision.
func Evaluate(req Request) Decision {
	d, _ := evaluate(req)
	return d
}

// Check is Evaluate returning a *DenialError for anything but Allow.
func Check(req Request) error {
	d, reason := evaluate(req)
	if d == Allow {
		return nil
	}
	return &DenialError{
		Decision: d,
		Subject:  req.Principal.SubjectID,
		Resource: req.Resource,
		Action:   req.Action,
		Reason:   reason,
	}
}

func evaluate(req Request) (Decision, string) {
	p := req.Principal
	if p.OrganizationID == "" {
		return Unauthorized, "principal has no organization"
	}
	if !req.Action.known() {
		return Forbidden, "unknown action"
	}

	sameOrg := req.TargetOrganizationID == p.OrganizationID

	switch req.Resource {
	case ResourceUsers:
		if !sameOrg {
			return Forbidden, "cross-organization access"
		}
		return Allow, ""

	case ResourceJobs, ResourceApplications:
		if !sameOrg {
			return Forbidden, "cross-organization access"
		}
		if !req.Action.mutates() || p.Role.Elevated() {
			return Allow, ""
		}
		if req.Resource == ResourceJobs &&
			(req.Action == ActionUpdate || req.Action == ActionDelete) &&
			req.TargetOwnerID != "" && req.TargetOwnerID == p.SubjectID {
			return Allow, ""
		}
		return Forbidden, "role may not modify this resource"

	case ResourceOrganizations:
		switch req.Action {
		case ActionCreate, ActionDelete:
			return Forbidden, "organizations cannot be created or deleted through the API"
		case ActionUpdate:
			if sameOrg && p.Role == RoleAdmin {
				return Allow, ""
			}
			return Forbidden, "only an admin of the organization may update it"
		default:
			if !sameOrg {
				return Forbidden, "cross-organization access"
			}
			return Allow, ""
		}
	}

	return Forbidden, "unknown resource"
}

// Authorizer decides whether a request may proceed.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) error
}

// AuthorizerFunc is an adapter to allow use of ordinary functions as
// Authorizers.
type AuthorizerFunc func(ctx context.Context, req Request) error

func (f AuthorizerFunc) Authorize(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Default is the Authorizer backed by Check.
var Default Authorizer = AuthorizerFunc(func(_ context.Context, req Request) error {
	return Check(req)
})
