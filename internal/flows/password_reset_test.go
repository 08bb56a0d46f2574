package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newResetHarness() (*otpHarness[PasswordResetPayload], *fakeAccounts, PasswordResetDeps, *int) {
	h := newOTPHarness[PasswordResetPayload]()
	accounts := newFakeAccounts()
	delays := 0
	deps := PasswordResetDeps{
		OTP:                h.deps,
		AccountExists:      accounts.Exists,
		HashPassword:       fakeHash,
		UpdatePasswordHash: accounts.UpdateHash,
		IsAccountNotFound:  func(err error) bool { return errors.Is(err, errTestNotFound) },
		SleepEnumerationDelay: func(context.Context) error {
			delays++
			return nil
		},
		Metrics: PasswordResetMetrics{Suppressed: 30},
	}
	return h, accounts, deps, &delays
}

func TestPasswordResetStartUnknownEmailIsSilent(t *testing.T) {
	h, _, deps, delays := newResetHarness()
	ctx := context.Background()

	if err := RunPasswordResetStart(ctx, "ghost@x.com", deps); err != nil {
		t.Fatalf("expected generic success, got %v", err)
	}
	if h.mailer.count() != 0 {
		t.Fatal("unknown email must not dispatch")
	}
	if _, err := h.sessions.Get(ctx, "ghost@x.com"); !errors.Is(err, errTestNotFound) {
		t.Fatal("unknown email must not create a session")
	}
	if *delays != 1 {
		t.Fatalf("expected enumeration delay, got %d", *delays)
	}
}

func TestPasswordResetStartHidesRateLimits(t *testing.T) {
	h, accounts, deps, _ := newResetHarness()
	ctx := context.Background()
	accounts.byEmail["a@x.com"] = "old"

	if err := RunPasswordResetStart(ctx, "a@x.com", deps); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := RunPasswordResetStart(ctx, "a@x.com", deps); err != nil {
		t.Fatalf("cooldown must look like success, got %v", err)
	}
	if h.mailer.count() != 1 {
		t.Fatalf("expected one dispatch, got %d", h.mailer.count())
	}
	if h.metric(deps.Metrics.Suppressed) != 1 {
		t.Fatal("expected suppressed metric")
	}
}

func TestPasswordResetVerify(t *testing.T) {
	h, accounts, deps, _ := newResetHarness()
	ctx := context.Background()
	accounts.byEmail["a@x.com"] = "old"

	if err := RunPasswordResetStart(ctx, "a@x.com", deps); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := h.mailer.last().code

	if err := RunPasswordResetVerify(ctx, "a@x.com", "000000", "new-password", deps); !errors.Is(err, errTestInvalidOTP) {
		t.Fatalf("expected invalid otp, got %v", err)
	}
	if err := RunPasswordResetVerify(ctx, "a@x.com", code, "short", deps); !errors.Is(err, errTestValidation) {
		t.Fatalf("expected validation for short password, got %v", err)
	}
	if _, err := h.sessions.Get(ctx, "a@x.com"); err != nil {
		t.Fatal("weak password must not consume the session")
	}

	if err := RunPasswordResetVerify(ctx, "a@x.com", code, "new-password", deps); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if accounts.byEmail["a@x.com"] != "hash:new-password" {
		t.Fatalf("expected hash updated, got %q", accounts.byEmail["a@x.com"])
	}
	if err := RunPasswordResetVerify(ctx, "a@x.com", code, "new-password", deps); !errors.Is(err, errTestExpired) {
		t.Fatalf("expected expired on replay, got %v", err)
	}
}

func TestPasswordResetVerifyVanishedAccount(t *testing.T) {
	h, accounts, deps, _ := newResetHarness()
	ctx := context.Background()
	accounts.byEmail["a@x.com"] = "old"

	if err := RunPasswordResetStart(ctx, "a@x.com", deps); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := h.mailer.last().code
	delete(accounts.byEmail, "a@x.com")

	if err := RunPasswordResetVerify(ctx, "a@x.com", code, "new-password", deps); !errors.Is(err, errTestExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if _, err := h.sessions.Get(ctx, "a@x.com"); !errors.Is(err, errTestNotFound) {
		t.Fatal("expected session discarded")
	}
}

func TestPasswordResetExpiry(t *testing.T) {
	h, accounts, deps, _ := newResetHarness()
	ctx := context.Background()
	accounts.byEmail["a@x.com"] = "old"

	if err := RunPasswordResetStart(ctx, "a@x.com", deps); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := h.mailer.last().code
	h.clock.Advance(11 * time.Minute)

	if err := RunPasswordResetVerify(ctx, "a@x.com", code, "new-password", deps); !errors.Is(err, errTestExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestPasswordResetStartLookupFailure(t *testing.T) {
	_, accounts, deps, _ := newResetHarness()
	accounts.err = errors.New("db down")

	if err := RunPasswordResetStart(context.Background(), "a@x.com", deps); !errors.Is(err, errTestTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
}
