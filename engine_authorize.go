package hireAuth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/hireAuth/policy"
)

// Principal builds the policy principal for a verified claim.
func Principal(claim Claim) policy.Principal {
	return policy.Principal{
		SubjectID:      claim.ID,
		Role:           policy.Role(claim.Role),
		OrganizationID: claim.OrganizationID,
	}
}

// Authorize evaluates req for the caller identified by claim. The request's
// Principal is always replaced by the claim.
//
// A denial for missing tenant identity matches ErrUnauthenticated; any other
// denial matches ErrForbidden. Both also match the underlying policy error.
func (e *Engine) Authorize(ctx context.Context, claim Claim, req policy.Request) error {
	authorizer := policy.Default
	if e != nil && e.authorizer != nil {
		authorizer = e.authorizer
	}

	req.Principal = Principal(claim)

	err := authorizer.Authorize(ctx, req)
	switch {
	case err == nil:
		e.metricInc(MetricAuthorizeAllowed)
		return nil
	case errors.Is(err, policy.ErrUnauthorized):
		e.metricInc(MetricAuthorizeUnauthorized)
		e.logDenial(ctx, req, err)
		return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	case errors.Is(err, policy.ErrForbidden):
		e.metricInc(MetricAuthorizeForbidden)
		e.logDenial(ctx, req, err)
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	default:
		return fmt.Errorf("%w: %v", ErrTransientDependency, err)
	}
}

func (e *Engine) logDenial(ctx context.Context, req policy.Request, err error) {
	if e == nil {
		return
	}
	e.emitAudit(ctx, AuditEvent{
		EventType:      auditAuthorizationDenied,
		AccountID:      req.Principal.SubjectID,
		OrganizationID: req.Principal.OrganizationID,
		Metadata: map[string]string{
			"resource":            string(req.Resource),
			"action":              string(req.Action),
			"target_organization": req.TargetOrganizationID,
		},
	}, auditDenial(err))
	e.logger().Info(ctx, "authorization denied",
		"subject", req.Principal.SubjectID,
		"resource", string(req.Resource),
		"action", string(req.Action),
		"reason", err.Error(),
	)
}

func auditDenial(err error) error {
	if errors.Is(err, policy.ErrUnauthorized) {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
