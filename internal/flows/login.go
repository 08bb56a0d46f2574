package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/hireAuth/internal/logging"
)

// LoginAccount is the flow-local view of a stored account.
type LoginAccount struct {
	ID             string
	Name           string
	Email          string
	Role           string
	OrganizationID string
	PasswordHash   string
}

type LoginResult struct {
	Token          string
	ExpiresAt      time.Time
	AccountID      string
	OrganizationID string
}

type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginRateLimited int
	PasswordRehashed int
}

type LoginErrors struct {
	EngineNotReady     error
	Validation         error
	InvalidCredentials error
	Throttled          error
	Transient          error
	RateLimited        func(reason error, wait time.Duration) error
}

// LoginDeps captures login dependencies. DummyHash is verified when the
// account does not exist so both failure paths cost the same.
type LoginDeps struct {
	DummyHash string

	ClientIPFromContext func(context.Context) string

	CheckLoginRate     func(context.Context, string, string) (time.Duration, error)
	IsRateLimited      func(error) bool
	RecordLoginFailure func(context.Context, string, string) error
	ResetLoginRate     func(context.Context, string) error

	GetAccountByEmail  func(context.Context, string) (LoginAccount, error)
	IsAccountNotFound  func(error) bool
	VerifyPassword     func(string, string) (bool, error)
	NeedsRehash        func(string) bool
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(context.Context, string, string) error

	IssueToken func(LoginAccount) (string, time.Time, error)

	MetricInc func(int)
	Log       logging.Logger

	Metrics LoginMetrics
	Errors  LoginErrors
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.IsRateLimited == nil {
		deps.IsRateLimited = func(error) bool { return false }
	}
	if deps.IsAccountNotFound == nil {
		deps.IsAccountNotFound = func(error) bool { return false }
	}
	if deps.NeedsRehash == nil {
		deps.NeedsRehash = func(string) bool { return false }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}
	if deps.Errors.RateLimited == nil {
		deps.Errors.RateLimited = func(reason error, _ time.Duration) error { return reason }
	}
}

// RunLogin authenticates email/password and issues an access token.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (LoginResult, error) {
	normalizeLoginDeps(&deps)
	if deps.GetAccountByEmail == nil || deps.VerifyPassword == nil || deps.IssueToken == nil {
		return LoginResult{}, deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	if err := validateEmail(email, deps.Errors.Validation); err != nil {
		return LoginResult{}, err
	}
	if password == "" {
		return LoginResult{}, fmt.Errorf("%w: password is required", deps.Errors.Validation)
	}

	ip := deps.ClientIPFromContext(ctx)
	log := deps.Log.With("email", email)

	if deps.CheckLoginRate != nil {
		if wait, err := deps.CheckLoginRate(ctx, email, ip); err != nil {
			if deps.IsRateLimited(err) {
				deps.MetricInc(deps.Metrics.LoginRateLimited)
				log.Info(ctx, "login throttled", "ip", ip, "wait", wait)
				return LoginResult{}, deps.Errors.RateLimited(deps.Errors.Throttled, wait)
			}
			log.Error(ctx, "login limiter failed", "error", err)
			return LoginResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
		}
	}

	fail := func(reason string) (LoginResult, error) {
		if deps.RecordLoginFailure != nil {
			if err := deps.RecordLoginFailure(ctx, email, ip); err != nil {
				log.Warn(ctx, "failed to record login failure", "error", err)
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		log.Info(ctx, "login failed", "reason", reason, "ip", ip)
		return LoginResult{}, deps.Errors.InvalidCredentials
	}

	account, err := deps.GetAccountByEmail(ctx, email)
	if err != nil {
		if !deps.IsAccountNotFound(err) {
			log.Error(ctx, "account lookup failed", "error", err)
			return LoginResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
		}
		if deps.DummyHash != "" {
			_, _ = deps.VerifyPassword(password, deps.DummyHash)
		}
		return fail("unknown_email")
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		log.Error(ctx, "stored password hash unusable", "account_id", account.ID, "error", err)
		return fail("hash_error")
	}
	if !ok {
		return fail("bad_password")
	}

	if deps.ResetLoginRate != nil {
		if err := deps.ResetLoginRate(ctx, email); err != nil {
			log.Warn(ctx, "failed to reset login attempts", "error", err)
		}
	}

	if deps.NeedsRehash(account.PasswordHash) && deps.HashPassword != nil && deps.UpdatePasswordHash != nil {
		if upgraded, err := deps.HashPassword(password); err != nil {
			log.Warn(ctx, "password rehash failed", "error", err)
		} else if err := deps.UpdatePasswordHash(ctx, email, upgraded); err != nil {
			log.Warn(ctx, "password rehash store failed", "error", err)
		} else {
			deps.MetricInc(deps.Metrics.PasswordRehashed)
		}
	}

	token, expiresAt, err := deps.IssueToken(account)
	if err != nil {
		log.Error(ctx, "token issuance failed", "account_id", account.ID, "error", err)
		return LoginResult{}, fmt.Errorf("%w: %v", deps.Errors.Transient, err)
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	log.Info(ctx, "login succeeded", "account_id", account.ID)
	return LoginResult{
		Token:          token,
		ExpiresAt:      expiresAt,
		AccountID:      account.ID,
		OrganizationID: account.OrganizationID,
	}, nil
}
