// Package rate provides the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:  login failures per identifier
//   - ali: login failures per IP
//
// # What this package must NOT do
//
//   - Implement OTP flow policies (those live in internal/limiters and internal/flows).
//   - Be imported outside the hireAuth module.
package rate
