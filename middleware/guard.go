package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	hireAuth "github.com/MrEthical07/hireAuth"
)

// TokenVerifier turns a bearer token into a claim. *hireAuth.Engine
// implements it.
type TokenVerifier interface {
	VerifyToken(token string) (hireAuth.Claim, error)
}

// ErrorWriter renders a rejected request. err always matches
// hireAuth.ErrUnauthenticated.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

type claimContextKey struct{}

var errMissingBearer = errors.New("missing bearer token")

// ClaimFromContext returns the claim stored by [Guard].
func ClaimFromContext(ctx context.Context) (hireAuth.Claim, bool) {
	claim, ok := ctx.Value(claimContextKey{}).(hireAuth.Claim)
	return claim, ok
}

// ContextWithClaim stores claim the way [Guard] does.
func ContextWithClaim(ctx context.Context, claim hireAuth.Claim) context.Context {
	return context.WithValue(ctx, claimContextKey{}, claim)
}

// Guard rejects requests without a valid bearer token and stores the
// verified claim in the request context. A nil onError writes a JSON 401.
func Guard(verifier TokenVerifier, onError ErrorWriter) func(http.Handler) http.Handler {
	if onError == nil {
		onError = writeUnauthorized
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				onError(w, r, fmt.Errorf("%w: %w", hireAuth.ErrUnauthenticated, hireAuth.ErrEngineNotReady))
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				onError(w, r, fmt.Errorf("%w: %w", hireAuth.ErrUnauthenticated, errMissingBearer))
				return
			}

			claim, err := verifier.VerifyToken(token)
			if err != nil {
				if !errors.Is(err, hireAuth.ErrUnauthenticated) {
					err = fmt.Errorf("%w: %w", hireAuth.ErrInvalidToken, err)
				}
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaim(r.Context(), claim)))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	value = strings.TrimSpace(value)
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func writeUnauthorized(w http.ResponseWriter, _ *http.Request, _ error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
