package hireAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/hireAuth/internal/flows"
	"github.com/MrEthical07/hireAuth/internal/rate"
)

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		DummyHash:           e.dummyHash,
		ClientIPFromContext: clientIPFromContext,

		CheckLoginRate:     e.loginLimiter.CheckLogin,
		IsRateLimited:      func(err error) bool { return errors.Is(err, rate.ErrRateLimited) },
		RecordLoginFailure: e.loginLimiter.RecordFailure,
		ResetLoginRate:     e.loginLimiter.ResetLogin,

		GetAccountByEmail: func(ctx context.Context, email string) (flows.LoginAccount, error) {
			a, err := e.accounts.GetAccountByEmail(ctx, email)
			if err != nil {
				return flows.LoginAccount{}, err
			}
			return flows.LoginAccount{
				ID:             a.ID,
				Name:           a.Name,
				Email:          a.Email,
				Role:           string(a.Role),
				OrganizationID: a.OrganizationID,
				PasswordHash:   a.PasswordHash,
			}, nil
		},
		IsAccountNotFound:  isNotFound,
		VerifyPassword:     e.hasher.Verify,
		NeedsRehash:        e.hasher.NeedsRehash,
		HashPassword:       e.hasher.Hash,
		UpdatePasswordHash: e.accounts.UpdatePasswordHash,

		IssueToken: func(a flows.LoginAccount) (string, time.Time, error) {
			return e.tokens.Issue(Claim{
				ID:             a.ID,
				Role:           a.Role,
				OrganizationID: a.OrganizationID,
				Name:           a.Name,
				Email:          a.Email,
			})
		},

		MetricInc: e.flowMetricInc,
		Log:       e.logger(),

		Metrics: flows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginRateLimited: int(MetricLoginRateLimited),
			PasswordRehashed: int(MetricPasswordRehashed),
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			Validation:         ErrValidation,
			InvalidCredentials: ErrInvalidCredentials,
			Throttled:          ErrLoginThrottled,
			Transient:          ErrTransientDependency,
			RateLimited:        newRateLimitError,
		},
	}
}

// Login authenticates email and password and issues an access token.
//
// An unknown email and a wrong password both return ErrInvalidCredentials
// after the same hashing work. Repeated failures per email, and per client
// IP when one is attached with WithClientIP, return a *RateLimitError with
// reason ErrLoginThrottled.
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if !e.ready() || e.loginLimiter == nil {
		return LoginResult{}, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metrics.Observe(MetricLoginLatency, time.Since(start))
	}()

	res, err := flows.RunLogin(ctx, email, password, e.loginDeps())
	e.emitAudit(ctx, AuditEvent{
		EventType:      auditLogin,
		AccountID:      res.AccountID,
		OrganizationID: res.OrganizationID,
		Email:          normalizeAuditEmail(email),
	}, err)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: res.Token, ExpiresAt: res.ExpiresAt}, nil
}

// VerifyToken decodes a bearer token into its claim. Every failure returns
// an error matching ErrInvalidToken; no partial claim is ever returned.
func (e *Engine) VerifyToken(token string) (Claim, error) {
	if e == nil || e.tokens == nil {
		return Claim{}, ErrEngineNotReady
	}

	claim, err := e.tokens.Verify(token)
	if err != nil {
		e.metricInc(MetricTokenVerifyFailure)
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claim, nil
}

// GetSelf loads the caller's account and organization.
func (e *Engine) GetSelf(ctx context.Context, claim Claim) (AccountWithOrganization, error) {
	if !e.ready() {
		return AccountWithOrganization{}, ErrEngineNotReady
	}
	if claim.ID == "" {
		return AccountWithOrganization{}, ErrUnauthenticated
	}

	self, err := e.accounts.GetAccountWithOrganization(ctx, claim.ID)
	if err != nil {
		if !isNotFound(err) {
			e.logger().Error(ctx, "self lookup failed", "account_id", claim.ID, "error", err)
		}
		return AccountWithOrganization{}, mapAccountStoreError(err)
	}
	self.PasswordHash = ""
	return self, nil
}
