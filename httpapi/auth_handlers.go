package httpapi

import (
	"net/http"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/middleware"
)

const resetRequestedMessage = "If an account exists for this email, a password reset code has been sent"

type registerRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organizationName"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	err := s.auth.StartRegistration(r.Context(), hireAuth.RegistrationRequest{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Verification code sent to your email"})
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	account, err := s.auth.VerifyRegistration(r.Context(), req.Email, req.OTP)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// handlePasswordReset answers identically whether or not the account exists.
func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: resetRequestedMessage})
}

type passwordResetVerifyRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handlePasswordResetVerify(w http.ResponseWriter, r *http.Request) {
	var req passwordResetVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.auth.ConfirmPasswordReset(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Password has been reset successfully"})
}

func (s *Server) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromContext(r.Context())
	if !ok {
		s.respondError(w, r, hireAuth.ErrUnauthenticated)
		return
	}
	self, err := s.auth.GetSelf(r.Context(), claim)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, self)
}
