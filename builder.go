package hireAuth

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/hireAuth/internal/audit"
	"github.com/MrEthical07/hireAuth/internal/flows"
	"github.com/MrEthical07/hireAuth/internal/limiters"
	"github.com/MrEthical07/hireAuth/internal/logging"
	"github.com/MrEthical07/hireAuth/internal/rate"
	"github.com/MrEthical07/hireAuth/internal/stores"
	"github.com/MrEthical07/hireAuth/jwt"
	"github.com/MrEthical07/hireAuth/password"
	"github.com/MrEthical07/hireAuth/policy"
	"github.com/redis/go-redis/v9"
)

// dummyPassword is hashed once at Build so Login can spend the same work
// on unknown emails.
const dummyPassword = "hireauth-timing-equalizer"

// Builder assembles an Engine. A Builder can be used for one Build only.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	accounts   AccountStore
	mailer     Mailer
	logger     *slog.Logger
	authorizer policy.Authorizer
	auditSink  AuditSink

	built bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing pending sessions and throttles.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithLogger sets the structured logger. Without one the engine is silent.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuthorizer replaces policy.Default.
func (b *Builder) WithAuthorizer(authorizer policy.Authorizer) *Builder {
	b.authorizer = authorizer
	return b
}

// WithAuditSink receives security events when Config.Audit.Enabled is set.
// Call Engine.Close on shutdown to flush them.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.accounts == nil {
		return nil, errors.New("account store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var log logging.Logger = logging.NewNop()
	if b.logger != nil {
		log = logging.NewSlogLogger(b.logger).With("component", "hireauth")
	}

	authorizer := b.authorizer
	if authorizer == nil {
		authorizer = policy.Default
	}

	// -------- CREDENTIALS --------
	hasher, err := password.New(cfg.Password.hasherConfig())
	if err != nil {
		return nil, err
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:    cloneBytes(cfg.JWT.Secret),
		AccessTTL: cfg.JWT.AccessTTL,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		Leeway:    cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	// -------- PENDING SESSIONS --------
	engine := &Engine{
		config:     cfg,
		redis:      b.redis,
		accounts:   b.accounts,
		mailer:     b.mailer,
		log:        log,
		authorizer: authorizer,
		hasher:     hasher,
		tokens:     tokens,
		dummyHash:  dummyHash,
		metrics:    NewMetrics(cfg.Metrics),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}

	engine.registrationSessions = stores.NewSessionStore[flows.OTPSession[flows.RegistrationPayload]](
		b.redis, cfg.Registration.RedisPrefix, log,
	)
	engine.resetSessions = stores.NewSessionStore[flows.OTPSession[flows.PasswordResetPayload]](
		b.redis, cfg.PasswordReset.RedisPrefix, log,
	)
	engine.registrationFailures = limiters.NewVerifyFailureLimiter(b.redis, limiters.VerifyFailureConfig{
		Prefix:      cfg.Registration.RedisPrefix + "-failures",
		MaxFailures: cfg.Registration.MaxVerifyFailures,
		Window:      cfg.Registration.TTL,
	})
	engine.resetFailures = limiters.NewVerifyFailureLimiter(b.redis, limiters.VerifyFailureConfig{
		Prefix:      cfg.PasswordReset.RedisPrefix + "-failures",
		MaxFailures: cfg.PasswordReset.MaxVerifyFailures,
		Window:      cfg.PasswordReset.TTL,
	})
	engine.loginLimiter = rate.New(b.redis, rate.Config{
		EnableIPThrottle: cfg.Security.EnableIPThrottle,
		MaxLoginAttempts: cfg.Security.MaxLoginAttempts,
		LoginCooldown:    cfg.Security.LoginCooldown,
	})

	b.built = true

	return engine, nil
}
