package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	hireAuth "github.com/MrEthical07/hireAuth"
)

type stubVerifier struct {
	claim hireAuth.Claim
	err   error
	seen  string
}

func (s *stubVerifier) VerifyToken(token string) (hireAuth.Claim, error) {
	s.seen = token
	return s.claim, s.err
}

func TestGuardStoresClaim(t *testing.T) {
	v := &stubVerifier{claim: hireAuth.Claim{ID: "u-1", Role: "HR", OrganizationID: "O1", Email: "hr@o1.com"}}

	var got hireAuth.Claim
	h := Guard(v, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, ok := ClaimFromContext(r.Context())
		if !ok {
			t.Fatal("expected claim in context")
		}
		got = claim
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "bearer  tok-123 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if v.seen != "tok-123" {
		t.Fatalf("expected trimmed token, got %q", v.seen)
	}
	if got.ID != "u-1" || got.OrganizationID != "O1" {
		t.Fatalf("unexpected claim %+v", got)
	}
}

func TestGuardRejects(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		verifier TokenVerifier
	}{
		{"missing header", "", &stubVerifier{}},
		{"wrong scheme", "Basic abc", &stubVerifier{}},
		{"empty token", "Bearer   ", &stubVerifier{}},
		{"invalid token", "Bearer x", &stubVerifier{err: hireAuth.ErrInvalidToken}},
		{"foreign error", "Bearer x", &stubVerifier{err: errors.New("boom")}},
		{"nil verifier", "Bearer x", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen error
			onError := func(w http.ResponseWriter, r *http.Request, err error) {
				seen = err
				writeUnauthorized(w, r, err)
			}
			h := Guard(tc.verifier, onError)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("expected WWW-Authenticate header")
			}
			if !errors.Is(seen, hireAuth.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", seen)
			}
		})
	}
}

func TestClaimFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ClaimFromContext(req.Context()); ok {
		t.Fatal("expected no claim")
	}
}
