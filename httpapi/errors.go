package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	hireAuth "github.com/MrEthical07/hireAuth"
)

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, hireAuth.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, hireAuth.ErrValidation),
		errors.Is(err, hireAuth.ErrInvalidOTP),
		errors.Is(err, hireAuth.ErrSessionExpiredOrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, hireAuth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, hireAuth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, hireAuth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, hireAuth.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the client-facing text for err. Internal causes are
// never echoed.
func publicMessage(code int, err error) string {
	switch code {
	case http.StatusBadRequest:
		switch {
		case errors.Is(err, hireAuth.ErrInvalidOTP):
			return "Invalid OTP"
		case errors.Is(err, hireAuth.ErrSessionExpiredOrInvalid):
			return "OTP expired or invalid session"
		case errors.Is(err, errMalformedBody):
			return "Invalid request body"
		}
		// Validation messages are built from field names only.
		return err.Error()
	case http.StatusUnauthorized:
		if errors.Is(err, hireAuth.ErrInvalidCredentials) {
			return "Invalid email or password"
		}
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "An account with this email already exists"
	case http.StatusRequestEntityTooLarge:
		return "Request body too large"
	case http.StatusTooManyRequests:
		return rateLimitMessage(err)
	default:
		return "Internal server error"
	}
}

func rateLimitMessage(err error) string {
	var rl *hireAuth.RateLimitError
	wait := 0
	if errors.As(err, &rl) {
		wait = rl.RetryAfter()
	}
	switch {
	case errors.Is(err, hireAuth.ErrOTPCooldown):
		return "Please wait " + strconv.Itoa(wait) + " seconds before requesting a new code"
	case errors.Is(err, hireAuth.ErrOTPExhausted):
		return "Maximum resend attempts reached, please try again later"
	case errors.Is(err, hireAuth.ErrOTPVerifyLocked):
		return "Too many incorrect codes, please request a new one later"
	case errors.Is(err, hireAuth.ErrLoginThrottled):
		return "Too many failed login attempts, please try again later"
	case errors.Is(err, errTooManyAuthAttempts):
		return "Too many authentication attempts, try again later."
	default:
		return "Too many requests, please try again later."
	}
}

type errorBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// respondError writes the JSON error for err and logs server faults with
// their cause.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorBody{
		Error:     publicMessage(code, err),
		RequestID: RequestIDFromContext(r.Context()),
	}

	var rl *hireAuth.RateLimitError
	if errors.As(err, &rl) {
		if secs := rl.RetryAfter(); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			body.RetryAfter = secs
		}
	}

	if code >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			"path", r.URL.Path,
			"request_id", body.RequestID,
			"error", err.Error(),
		)
	}
	writeJSON(w, code, body)
}
