package internaldefs

import (
	"strconv"

	hireAuth "github.com/MrEthical07/hireAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   hireAuth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   hireAuth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: hireAuth.MetricRegistrationStarted, Name: "hireauth_registration_started_total", Help: "Registration sessions created."},
	{ID: hireAuth.MetricRegistrationResent, Name: "hireauth_registration_resent_total", Help: "Registration codes rotated and resent."},
	{ID: hireAuth.MetricRegistrationCooldown, Name: "hireauth_registration_cooldown_total", Help: "Registration resends refused by the cooldown."},
	{ID: hireAuth.MetricRegistrationExhausted, Name: "hireauth_registration_exhausted_total", Help: "Registration resends refused by the resend cap."},
	{ID: hireAuth.MetricRegistrationDispatchFailure, Name: "hireauth_registration_dispatch_failure_total", Help: "Registration codes that could not be delivered."},
	{ID: hireAuth.MetricRegistrationVerifySuccess, Name: "hireauth_registration_verify_success_total", Help: "Registrations completed."},
	{ID: hireAuth.MetricRegistrationVerifyFailure, Name: "hireauth_registration_verify_failure_total", Help: "Registration verifications rejected."},
	{ID: hireAuth.MetricRegistrationVerifyLocked, Name: "hireauth_registration_verify_locked_total", Help: "Registration verifications refused after repeated wrong codes."},
	{ID: hireAuth.MetricRegistrationConflict, Name: "hireauth_registration_conflict_total", Help: "Registrations rejected because the email is taken."},
	{ID: hireAuth.MetricPasswordResetStarted, Name: "hireauth_password_reset_started_total", Help: "Password reset sessions created."},
	{ID: hireAuth.MetricPasswordResetResent, Name: "hireauth_password_reset_resent_total", Help: "Password reset codes rotated and resent."},
	{ID: hireAuth.MetricPasswordResetCooldown, Name: "hireauth_password_reset_cooldown_total", Help: "Password reset resends refused by the cooldown."},
	{ID: hireAuth.MetricPasswordResetExhausted, Name: "hireauth_password_reset_exhausted_total", Help: "Password reset resends refused by the resend cap."},
	{ID: hireAuth.MetricPasswordResetDispatchFailure, Name: "hireauth_password_reset_dispatch_failure_total", Help: "Password reset codes that could not be delivered."},
	{ID: hireAuth.MetricPasswordResetVerifySuccess, Name: "hireauth_password_reset_verify_success_total", Help: "Password resets completed."},
	{ID: hireAuth.MetricPasswordResetVerifyFailure, Name: "hireauth_password_reset_verify_failure_total", Help: "Password reset verifications rejected."},
	{ID: hireAuth.MetricPasswordResetVerifyLocked, Name: "hireauth_password_reset_verify_locked_total", Help: "Password reset verifications refused after repeated wrong codes."},
	{ID: hireAuth.MetricPasswordResetSuppressed, Name: "hireauth_password_reset_suppressed_total", Help: "Password reset requests answered without sending a code."},
	{ID: hireAuth.MetricLoginSuccess, Name: "hireauth_login_success_total", Help: "Successful logins."},
	{ID: hireAuth.MetricLoginFailure, Name: "hireauth_login_failure_total", Help: "Failed logins."},
	{ID: hireAuth.MetricLoginRateLimited, Name: "hireauth_login_rate_limited_total", Help: "Logins refused by the failure throttle."},
	{ID: hireAuth.MetricPasswordRehashed, Name: "hireauth_password_rehashed_total", Help: "Stored password hashes upgraded at login."},
	{ID: hireAuth.MetricTokenVerifyFailure, Name: "hireauth_token_verify_failure_total", Help: "Bearer tokens rejected."},
	{ID: hireAuth.MetricAuthorizeAllowed, Name: "hireauth_authorize_allowed_total", Help: "Resource operations allowed by the policy."},
	{ID: hireAuth.MetricAuthorizeUnauthorized, Name: "hireauth_authorize_unauthorized_total", Help: "Resource operations denied for missing tenant identity."},
	{ID: hireAuth.MetricAuthorizeForbidden, Name: "hireauth_authorize_forbidden_total", Help: "Resource operations denied by the policy."},
}

var HistogramDefs = []HistogramDef{
	{ID: hireAuth.MetricLoginLatency, Name: "hireauth_login_latency_seconds", Help: "Login latency."},
}

// BucketCount is the number of histogram buckets including +Inf.
const BucketCount = len(hireAuth.HistogramBounds) + 1

// HistogramBoundSuffix names each bucket for exporters that flatten buckets
// into separate instruments.
var HistogramBoundSuffix = boundSuffixes()

func boundSuffixes() []string {
	out := make([]string, 0, BucketCount)
	for _, b := range hireAuth.HistogramBounds {
		s := strconv.FormatFloat(b, 'f', -1, 64)
		out = append(out, suffix(s))
	}
	return append(out, "inf")
}

func suffix(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '.' {
			b[i] = '_'
		}
	}
	return string(b)
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
