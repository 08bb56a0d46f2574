package httpapi

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVerifyLoginSelf(t *testing.T) {
	ts := newTestServer(t, testServerConfig())

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeBody[messageBody](t, rec).Message)

	code := ts.mailer.code("ada@example.com")
	require.NotEmpty(t, code)

	rec = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": "ada@example.com",
		"otp":   code,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "ada@example.com", account["email"])
	assert.Equal(t, "ADMIN", account["role"])
	assert.NotContains(t, rec.Body.String(), "$2")
	assert.NotContains(t, account, "passwordHash")

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeBody[loginResponse](t, rec)
	require.NotEmpty(t, login.Token)
	_, err := time.Parse(time.RFC3339, login.ExpiresAt)
	require.NoError(t, err)

	rec = ts.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	self := decodeBody[hireAuth.AccountWithOrganization](t, rec)
	assert.Equal(t, "ada@example.com", self.Email)
	assert.Equal(t, "Ada's Organization", self.Organization.Name)
}

func TestRegisterResendInsideCooldown(t *testing.T) {
	ts := newTestServer(t, testServerConfig())
	body := map[string]string{"name": "Bo", "email": "bo@example.com", "password": testPassword}

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())

	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 60)

	out := decodeBody[errorBody](t, rec)
	assert.Equal(t, retry, out.RetryAfter)
	assert.Contains(t, out.Error, "Please wait")
	assert.Equal(t, 1, ts.mailer.count())
}

func TestRegisterExistingEmailConflicts(t *testing.T) {
	ts := newTestServer(t, testServerConfig())
	ts.store.addAccount(t, "taken@example.com", hireAuth.RoleAdmin, "O1")

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "T", "email": "taken@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An account with this email already exists", decodeBody[errorBody](t, rec).Error)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t, testServerConfig())

	rec := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "V", "email": "not-an-email", "password": testPassword,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Error, "email")

	rec = ts.do(t, http.MethodPost, "/api/auth/register", "", "just a string")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeBody[errorBody](t, rec).Error)
}

func TestVerifyEmailWrongCode(t *testing.T) {
	ts := newTestServer(t, testServerConfig())

	rec := ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": "nobody@example.com", "otp": "123456",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OTP expired or invalid session", decodeBody[errorBody](t, rec).Error)

	ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "W", "email": "w@example.com", "password": testPassword,
	})
	wrong := "000000"
	if ts.mailer.code("w@example.com") == wrong {
		wrong = "111111"
	}
	rec = ts.do(t, http.MethodPost, "/api/auth/verify-email", "", map[string]string{
		"email": "w@example.com", "otp": wrong,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid OTP", decodeBody[errorBody](t, rec).Error)
}

func TestLoginWrongPassword(t *testing.T) {
	ts := newTestServer(t, testServerConfig())
	ts.store.addAccount(t, "lo@example.com", hireAuth.RoleHR, "O1")

	rec := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "lo@example.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody[errorBody](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decodeBody[errorBody](t, rec).Error)
}

func TestPasswordResetDoesNotRevealAccounts(t *testing.T) {
	ts := newTestServer(t, testServerConfig())
	ts.store.addAccount(t, "known@example.com", hireAuth.RoleEmployee, "O1")

	known := ts.do(t, http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "known@example.com"})
	unknown := ts.do(t, http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "unknown@example.com"})

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, 1, ts.mailer.count())
}

func TestPasswordResetVerify(t *testing.T) {
	ts := newTestServer(t, testServerConfig())
	ts.store.addAccount(t, "reset@example.com", hireAuth.RoleEmployee, "O1")

	rec := ts.do(t, http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "reset@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/auth/password-reset/verify", "", map[string]string{
		"email":       "reset@example.com",
		"otp":         ts.mailer.code("reset@example.com"),
		"newPassword": "a-brand-new-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "reset@example.com", "password": "a-brand-new-secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSelfRequiresToken(t *testing.T) {
	ts := newTestServer(t, testServerConfig())

	rec := ts.do(t, http.MethodGet, "/api/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "Unauthorized", decodeBody[errorBody](t, rec).Error)

	rec = ts.do(t, http.MethodGet, "/api/users/me", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
