// Package jwt issues and verifies the HS256 access tokens that carry a
// [UserClaim]. Verification fails closed: every rejection is reported as
// [ErrInvalidToken] and no partially decoded claim is ever returned.
package jwt
