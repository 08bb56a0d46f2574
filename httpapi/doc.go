// Package httpapi is the JSON HTTP surface of the hiring platform.
//
// Auth routes (register, verify-email, login, password reset) call the
// hireAuth engine directly. Every resource route sits behind the bearer guard
// and asks Engine.Authorize before touching the store, so tenant scoping is
// decided in one place.
//
// Errors from any layer are mapped onto HTTP statuses by statusFor; rate
// limit errors add a Retry-After header and a retryAfter field.
package httpapi
