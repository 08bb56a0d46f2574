// Package middleware exposes the HTTP bearer guard built on top of
// hireAuth.Engine token verification.
//
// [Guard] reads the Authorization header, calls VerifyToken, and stores the
// verified claim in the request context for [ClaimFromContext]. Every
// rejection reaches the caller's [ErrorWriter] as an error matching
// hireAuth.ErrUnauthenticated.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Authorization of
// individual resource operations happens later through Engine.Authorize.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the verifier).
//   - Access Redis or the database.
//   - Make authorization decisions beyond accepting or rejecting the token.
package middleware
