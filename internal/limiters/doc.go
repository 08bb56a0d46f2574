// Package limiters provides Redis fixed-window counters for the OTP-gated
// flows.
//
// # Limiters
//
//   - [VerifyFailureLimiter]: per-identifier count of failed OTP comparisons.
//     The count lives under its own key so a wrong guess never rewrites the
//     session record it was checked against.
//
// All limiter methods are nil-safe and become no-ops when MaxFailures or
// Window is zero.
//
// # What this package must NOT do
//
//   - Import hireAuth or any sibling internal package.
//   - Make policy decisions beyond counting; flow functions decide consequences.
package limiters
