// Package config loads the server process configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	hireAuth "github.com/MrEthical07/hireAuth"
	"github.com/MrEthical07/hireAuth/httpapi"
	"github.com/MrEthical07/hireAuth/mail"
	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

const envDevelopment = "development"

type SMTPConfig struct {
	Host   string `env:"SMTP_HOST"   envDefault:"smtp.gmail.com"`
	Port   int    `env:"SMTP_PORT"   envDefault:"587"`
	Secure bool   `env:"SMTP_SECURE" envDefault:"false"`
	User   string `env:"SMTP_USER"`
	Pass   string `env:"SMTP_PASS"`
	From   string `env:"SMTP_FROM"   envDefault:"noreply@quixhr.com"`
}

type RateLimitConfig struct {
	GlobalWindowSeconds int `env:"GLOBAL_RATE_LIMIT_WINDOW_S" envDefault:"900"`
	GlobalMax           int `env:"GLOBAL_RATE_LIMIT_MAX"      envDefault:"100"`
	AuthWindowSeconds   int `env:"AUTH_RATE_LIMIT_WINDOW_S"   envDefault:"3600"`
	AuthMax             int `env:"AUTH_RATE_LIMIT_MAX"        envDefault:"10"`
}

// Config is the whole process configuration.
type Config struct {
	AppEnv          string        `env:"APP_ENV"          envDefault:"production"`
	Port            int           `env:"PORT"             envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	DatabaseURL    string `env:"DATABASE_URL"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"       envDefault:"0"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"1h"`
	JWTIssuer    string        `env:"JWT_ISSUER"     envDefault:"hireauth"`

	RegistrationOTPTTLSeconds  int    `env:"REGISTRATION_OTP_TTL_S"   envDefault:"600"`
	PasswordResetOTPTTLSeconds int    `env:"PASSWORD_RESET_OTP_TTL_S" envDefault:"600"`
	OTPMaxResends              int    `env:"OTP_MAX_RESENDS"          envDefault:"3"`
	OTPResendCooldownSeconds   int    `env:"OTP_RESEND_COOLDOWN_S"    envDefault:"60"`
	OTPMaxVerifyFailures       int    `env:"OTP_MAX_VERIFY_FAILURES"  envDefault:"5"`
	PasswordAlgorithm          string `env:"PASSWORD_ALGORITHM"       envDefault:"bcrypt"`
	PasswordMinLength          int    `env:"PASSWORD_MIN_LENGTH"      envDefault:"1"`

	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"10"`
	LoginCooldown    time.Duration `env:"LOGIN_COOLDOWN"     envDefault:"15m"`

	AuditEnabled    bool `env:"AUDIT_ENABLED"     envDefault:"true"`
	AuditBufferSize int  `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`

	SMTP SMTPConfig

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimit      RateLimitConfig
	MaxBodyBytes   int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	TrustProxy     bool  `env:"TRUST_PROXY"    envDefault:"false"`

	// GeneratedSecret is set when development mode filled in a random
	// JWT secret.
	GeneratedSecret bool
}

// Load reads the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins)

	if cfg.JWTSecret == "" && cfg.Development() {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.JWTSecret = secret
		cfg.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Development() bool {
	return c.AppEnv == envDevelopment
}

// Validate checks process-level settings. Engine settings are validated
// again by hireAuth.Config.Validate at build time.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required outside APP_ENV=development"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be > 0"))
	}
	if c.RateLimit.GlobalWindowSeconds <= 0 || c.RateLimit.GlobalMax <= 0 {
		errs = append(errs, errors.New("GLOBAL_RATE_LIMIT_WINDOW_S and GLOBAL_RATE_LIMIT_MAX must be > 0"))
	}
	if c.RateLimit.AuthWindowSeconds <= 0 || c.RateLimit.AuthMax <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT_WINDOW_S and AUTH_RATE_LIMIT_MAX must be > 0"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be > 0"))
	}
	return errors.Join(errs...)
}

// Engine maps the environment onto the engine configuration.
func (c Config) Engine() hireAuth.Config {
	cfg := hireAuth.DefaultConfig()
	cfg.JWT.Secret = []byte(c.JWTSecret)
	cfg.JWT.AccessTTL = c.JWTExpiresIn
	cfg.JWT.Issuer = c.JWTIssuer
	cfg.Password.Algorithm = strings.ToLower(strings.TrimSpace(c.PasswordAlgorithm))
	cfg.Password.MinLength = c.PasswordMinLength

	for _, otp := range []*hireAuth.OTPConfig{&cfg.Registration, &cfg.PasswordReset} {
		otp.MaxResends = c.OTPMaxResends
		otp.ResendCooldown = seconds(c.OTPResendCooldownSeconds)
		otp.MaxVerifyFailures = c.OTPMaxVerifyFailures
	}
	cfg.Registration.TTL = seconds(c.RegistrationOTPTTLSeconds)
	cfg.PasswordReset.TTL = seconds(c.PasswordResetOTPTTLSeconds)

	cfg.Security.MaxLoginAttempts = c.LoginMaxAttempts
	cfg.Security.LoginCooldown = c.LoginCooldown

	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Audit.BufferSize = c.AuditBufferSize
	return cfg
}

func (c Config) Mail() mail.Config {
	cfg := mail.DefaultConfig()
	cfg.Host = c.SMTP.Host
	cfg.Port = c.SMTP.Port
	cfg.Secure = c.SMTP.Secure
	cfg.Username = c.SMTP.User
	cfg.Password = c.SMTP.Pass
	cfg.From = c.SMTP.From
	cfg.VerificationTTL = seconds(c.RegistrationOTPTTLSeconds)
	cfg.PasswordResetTTL = seconds(c.PasswordResetOTPTTLSeconds)
	return cfg
}

// HTTP maps the transport settings. Logger, registry and collectors are
// filled in by the caller.
func (c Config) HTTP() httpapi.Config {
	cfg := httpapi.DefaultConfig()
	cfg.AllowedOrigins = c.AllowedOrigins
	cfg.MaxBodyBytes = c.MaxBodyBytes
	cfg.TrustProxy = c.TrustProxy
	cfg.GlobalLimit = httpapi.RateLimit{
		Window: seconds(c.RateLimit.GlobalWindowSeconds),
		Max:    c.RateLimit.GlobalMax,
	}
	cfg.AuthLimit = httpapi.RateLimit{
		Window: seconds(c.RateLimit.AuthWindowSeconds),
		Max:    c.RateLimit.AuthMax,
	}
	return cfg
}

func (c Config) Redis() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate development secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
