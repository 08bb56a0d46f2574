// Package hireAuth is the identity and access core of a multi-tenant job
// platform: OTP-gated registration and password reset, password login with
// bearer tokens, and organization-scoped authorization.
//
// An [Engine] is built once through [Builder] and is safe for concurrent use.
// It holds no mutable state besides metric counters; pending registrations
// and resets live in Redis with a store-enforced TTL, accounts live behind
// [AccountStore], and codes leave through [Mailer].
//
// # Architecture boundaries
//
// hireAuth exposes [Engine], [Builder], [Config], the domain value types and
// the error taxonomy. Flow orchestration, the session store and the Redis
// limiters live under internal/. Token handling is in jwt, hashing in
// password and the authorization rules in policy; each can be used on its
// own.
//
// # Errors
//
// Every Engine error matches exactly one sentinel of the taxonomy
// ([ErrValidation], [ErrUnauthenticated], [ErrForbidden], [ErrNotFound],
// [ErrConflict], [ErrRateLimited], [ErrTransientDependency], [ErrInvalidOTP],
// [ErrSessionExpiredOrInvalid]). Infrastructure causes are wrapped with %v so
// they can be logged without leaking into the match.
//
// # What this package must NOT do
//
//   - Return or log an OTP, a plaintext password or a password hash.
//   - Reveal through PasswordReset whether an email belongs to an account.
//   - Import httpapi, store/postgres or mail (those depend on this package).
package hireAuth
