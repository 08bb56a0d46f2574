// Package stores provides the Redis-backed ephemeral session store used by
// the OTP-gated registration and password reset flows.
//
// # Design
//
// Values are JSON documents stored under "<prefix>:<id>" with a TTL that
// Redis enforces; nothing polls for expiry. Read-modify-write goes through
// WATCH/MULTI optimistic transactions with bounded retry. Absent keys and
// Redis failures are reported with different sentinels so callers never
// mistake an outage for "no session". Payloads that fail to decode are
// logged, deleted and reported as absent.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient
// session records. It does NOT generate OTPs, enforce cooldowns or resend
// limits, or decide flow outcomes; those belong to internal/flows.
//
// # What this package must NOT do
//
//   - Import hireAuth or internal/flows.
//   - Log session values (they carry OTPs and password hashes).
package stores
