// Package flows contains pure-function orchestrators for the Engine's
// account operations.
//
// Registration and password reset are two instances of one generic OTP
// action ([RunOTPStart], [RunOTPVerify]) parameterized by session payload.
// Login is a separate flow. Each flow accepts a typed dependency struct of
// function fields and carries no state between calls, so the Engine stays
// thin and the flows can be tested with plain fakes.
//
// Flows never import the root package; host sentinels and metric IDs are
// passed in through the Errors and Metrics fields of each deps struct.
package flows
