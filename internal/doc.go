// Package internal contains helpers that are private to hireAuth, currently the
// one-time code generator and comparator used by the OTP-gated flows.
//
// # Sub-packages
//
//   - audit: asynchronous audit event dispatch and sinks
//   - config: process configuration loaded from the environment
//   - flows: pure-function orchestrators for registration, password reset and login
//   - limiters: Redis fixed-window counters for OTP verify failures
//   - logging: structured logger interface over log/slog
//   - rate: Redis-backed login attempt throttling
//   - stores: Redis-backed ephemeral session store
//
// # What this package must NOT do
//
//   - Export types that appear in the public hireAuth API.
//   - Be imported by any package outside the hireAuth module.
package internal
