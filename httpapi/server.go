package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/internal/logging"
	"github.com/MrEthical07/hireAuth/policy"
	"github.com/prometheus/client_golang/prometheus"
)

// Auth is the part of *hireAuth.Engine the HTTP layer depends on.
type Auth interface {
	StartRegistration(ctx context.Context, req hireAuth.RegistrationRequest) error
	VerifyRegistration(ctx context.Context, email, otp string) (hireAuth.Account, error)
	Login(ctx context.Context, email, password string) (hireAuth.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, email, otp, newPassword string) error
	VerifyToken(token string) (hireAuth.Claim, error)
	GetSelf(ctx context.Context, claim hireAuth.Claim) (hireAuth.AccountWithOrganization, error)
	Authorize(ctx context.Context, claim hireAuth.Claim, req policy.Request) error
	Ping(ctx context.Context) error
}

// Resources is the tenant data store behind the resource routes.
type Resources interface {
	GetOrganization(ctx context.Context, id string) (hireAuth.Organization, error)
	UpdateOrganization(ctx context.Context, id, name string) (hireAuth.Organization, error)

	ListUsers(ctx context.Context, organizationID string) ([]hireAuth.Account, error)
	GetUser(ctx context.Context, id string) (hireAuth.Account, error)

	ListJobs(ctx context.Context, organizationID string) ([]hireAuth.Job, error)
	GetJob(ctx context.Context, id string) (hireAuth.Job, error)
	CreateJob(ctx context.Context, j hireAuth.Job) (hireAuth.Job, error)
	UpdateJob(ctx context.Context, j hireAuth.Job) (hireAuth.Job, error)
	DeleteJob(ctx context.Context, id string) error

	ListApplications(ctx context.Context, organizationID string) ([]hireAuth.Application, error)
	GetApplication(ctx context.Context, id string) (hireAuth.Application, error)
	CreateApplication(ctx context.Context, a hireAuth.Application) (hireAuth.Application, error)
	UpdateApplication(ctx context.Context, a hireAuth.Application) (hireAuth.Application, error)
	DeleteApplication(ctx context.Context, id string) error
}

// Probe is one named readiness check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// RateLimit allows Max requests per Window for each client IP.
type RateLimit struct {
	Window time.Duration
	Max    int
}

type Config struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	GlobalLimit    RateLimit
	AuthLimit      RateLimit

	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy bool

	ReadyTimeout time.Duration
	Logger       *slog.Logger

	// Registry receives the HTTP metrics and Collectors and backs /metrics.
	// A private registry is created when nil.
	Registry   *prometheus.Registry
	Collectors []prometheus.Collector
}

// DefaultConfig matches the environment defaults of the server binary.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxBodyBytes:   1 << 20,
		GlobalLimit:    RateLimit{Window: 15 * time.Minute, Max: 100},
		AuthLimit:      RateLimit{Window: time.Hour, Max: 10},
		ReadyTimeout:   2 * time.Second,
	}
}

// Server wires routes, middleware and metrics. Call Close to stop the rate
// limiter sweepers.
type Server struct {
	auth   Auth
	res    Resources
	probes []Probe
	cfg    Config
	log    logging.Logger

	mux      *http.ServeMux
	registry *prometheus.Registry
	metrics  *httpMetrics

	globalLimiter *ipLimiter
	authLimiter   *ipLimiter

	handler http.Handler
}

func New(auth Auth, res Resources, cfg Config, probes ...Probe) *Server {
	def := DefaultConfig()
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.GlobalLimit.Max <= 0 || cfg.GlobalLimit.Window <= 0 {
		cfg.GlobalLimit = def.GlobalLimit
	}
	if cfg.AuthLimit.Max <= 0 || cfg.AuthLimit.Window <= 0 {
		cfg.AuthLimit = def.AuthLimit
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = def.ReadyTimeout
	}

	var log logging.Logger = logging.NewNop()
	if cfg.Logger != nil {
		log = logging.NewSlogLogger(cfg.Logger).With("component", "httpapi")
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		auth:          auth,
		res:           res,
		probes:        probes,
		cfg:           cfg,
		log:           log,
		mux:           http.NewServeMux(),
		registry:      registry,
		metrics:       newHTTPMetrics(registry),
		globalLimiter: newIPLimiter(cfg.GlobalLimit, errTooManyRequests),
		authLimiter:   newIPLimiter(cfg.AuthLimit, errTooManyAuthAttempts),
	}
	for _, c := range cfg.Collectors {
		registry.MustRegister(c)
	}

	s.routes()
	s.handler = s.chain(s.mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Close() {
	s.globalLimiter.close()
	s.authLimiter.close()
}

// chain applies the middleware stack, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.rateLimit(s.globalLimiter, h, "/api/", ipKey)
	h = MaxBodyBytes(h, s.cfg.MaxBodyBytes)
	h = CORS(h, s.cfg.AllowedOrigins)
	h = SecurityHeaders(h)
	h = s.metrics.instrument(h)
	h = s.logging(h)
	h = s.clientIP(h)
	h = s.recoverer(h)
	h = RequestID(h)
	return h
}
