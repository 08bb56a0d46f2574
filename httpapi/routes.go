package httpapi

import (
	"net/http"

	"github.com/MrEthical07/hireAuth/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() {
	guard := middleware.Guard(s.auth, func(w http.ResponseWriter, r *http.Request, err error) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		s.respondError(w, r, err)
	})
	authed := func(h http.HandlerFunc) http.Handler { return guard(h) }
	limited := func(h http.HandlerFunc) http.Handler { return s.rateLimit(s.authLimiter, h, "", ipEmailKey) }

	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.mux.Handle("POST /api/auth/register", limited(s.handleRegister))
	s.mux.Handle("POST /api/auth/verify-email", limited(s.handleVerifyEmail))
	s.mux.Handle("POST /api/auth/login", limited(s.handleLogin))
	s.mux.Handle("POST /api/auth/password-reset", limited(s.handlePasswordReset))
	s.mux.Handle("POST /api/auth/password-reset/verify", limited(s.handlePasswordResetVerify))

	s.mux.Handle("GET /api/users/me", authed(s.handleGetSelf))
	s.mux.Handle("GET /api/users", authed(s.handleListUsers))
	s.mux.Handle("GET /api/users/{id}", authed(s.handleGetUser))

	s.mux.Handle("GET /api/organizations", authed(s.handleListOrganizations))
	s.mux.Handle("POST /api/organizations", authed(s.handleCreateOrganization))
	s.mux.Handle("GET /api/organizations/{id}", authed(s.handleGetOrganization))
	s.mux.Handle("PUT /api/organizations/{id}", authed(s.handleUpdateOrganization))
	s.mux.Handle("DELETE /api/organizations/{id}", authed(s.handleDeleteOrganization))

	s.mux.Handle("GET /api/jobs", authed(s.handleListJobs))
	s.mux.Handle("POST /api/jobs", authed(s.handleCreateJob))
	s.mux.Handle("GET /api/jobs/{id}", authed(s.handleGetJob))
	s.mux.Handle("PUT /api/jobs/{id}", authed(s.handleUpdateJob))
	s.mux.Handle("DELETE /api/jobs/{id}", authed(s.handleDeleteJob))

	s.mux.Handle("GET /api/applications", authed(s.handleListApplications))
	s.mux.Handle("POST /api/applications", authed(s.handleCreateApplication))
	s.mux.Handle("GET /api/applications/{id}", authed(s.handleGetApplication))
	s.mux.Handle("PUT /api/applications/{id}", authed(s.handleUpdateApplication))
	s.mux.Handle("DELETE /api/applications/{id}", authed(s.handleDeleteApplication))

	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not found")
	})
}
