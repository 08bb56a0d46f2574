package hireAuth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/hireAuth/policy"
)

func newAuditedEngine(t *testing.T) (*Engine, *ChannelSink, *memMailer) {
	t.Helper()
	mr, rdb := newTestRedis(t)
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 64}
	sink := NewChannelSink(64)
	mailer := &memMailer{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(newMemAccountStore()).
		WithMailer(mailer).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine, sink, mailer
}

func nextAudit(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditRegistrationAndLogin(t *testing.T) {
	engine, sink, mailer := newAuditedEngine(t)
	ctx := WithClientIP(context.Background(), "198.51.100.7")

	if err := engine.StartRegistration(ctx, RegistrationRequest{Name: "Ann", Email: "Ann@Example.com", Password: "password-123"}); err != nil {
		t.Fatalf("StartRegistration failed: %v", err)
	}
	ev := nextAudit(t, sink)
	if ev.EventType != auditRegistrationStart || !ev.Success || ev.Email != "ann@example.com" || ev.IP != "198.51.100.7" {
		t.Fatalf("unexpected start event %+v", ev)
	}

	codes := mailer.verificationCodes("ann@example.com")
	account, err := engine.VerifyRegistration(ctx, "ann@example.com", codes[len(codes)-1])
	if err != nil {
		t.Fatalf("VerifyRegistration failed: %v", err)
	}
	ev = nextAudit(t, sink)
	if ev.EventType != auditRegistrationVerify || !ev.Success || ev.AccountID != account.ID || ev.OrganizationID != account.OrganizationID {
		t.Fatalf("unexpected verify event %+v", ev)
	}

	if _, err := engine.Login(ctx, "ann@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	ev = nextAudit(t, sink)
	if ev.EventType != auditLogin || ev.Success || ev.Error != string(AuditErrInvalidCredentials) || ev.AccountID != "" {
		t.Fatalf("unexpected failed login event %+v", ev)
	}

	if _, err := engine.Login(ctx, "ann@example.com", "password-123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	ev = nextAudit(t, sink)
	if ev.EventType != auditLogin || !ev.Success || ev.AccountID != account.ID {
		t.Fatalf("unexpected login event %+v", ev)
	}
}

func TestAuditAuthorizationDenied(t *testing.T) {
	engine, sink, _ := newAuditedEngine(t)

	hr := Claim{ID: "u-hr", Role: string(RoleHR), OrganizationID: "O1", Email: "hr@o1.com"}
	err := engine.Authorize(context.Background(), hr, policy.Request{
		Resource:             policy.ResourceJobs,
		Action:               policy.ActionUpdate,
		TargetOrganizationID: "O2",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	ev := nextAudit(t, sink)
	if ev.EventType != auditAuthorizationDenied || ev.Success || ev.Error != string(AuditErrForbidden) {
		t.Fatalf("unexpected denial event %+v", ev)
	}
	if ev.Metadata["resource"] != "jobs" || ev.Metadata["target_organization"] != "O2" {
		t.Fatalf("unexpected denial metadata %+v", ev.Metadata)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	env := newTestEnv(t, testConfig())
	if env.engine.audit != nil {
		t.Fatal("expected no dispatcher without Audit.Enabled")
	}
	if env.engine.AuditDropped() != 0 {
		t.Fatal("expected zero drops")
	}
	if err := env.engine.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestAuditErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{newRateLimitError(ErrOTPCooldown, time.Second), AuditErrCooldown},
		{newRateLimitError(ErrLoginThrottled, time.Second), AuditErrThrottled},
		{ErrInvalidCredentials, AuditErrInvalidCredentials},
		{ErrInvalidToken, AuditErrUnauthenticated},
		{ErrInvalidOTP, AuditErrInvalidOTP},
		{ErrSessionExpiredOrInvalid, AuditErrSessionExpired},
		{ErrConflict, AuditErrConflict},
		{ErrTransientDependency, AuditErrUnavailable},
		{errors.New("boom"), AuditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
