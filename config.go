package hireAuth

import (
	"errors"
	"time"

	"github.com/MrEthical07/hireAuth/password"
)

// Config holds every engine setting. Build validates it once; the engine
// never mutates it afterwards.
type Config struct {
	JWT           JWTConfig
	Password      PasswordConfig
	Registration  OTPConfig
	PasswordReset OTPConfig
	Security      SecurityConfig
	Metrics       MetricsConfig
	Audit         AuditConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures HS256 access tokens.
type JWTConfig struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
	Audience  string
	Leeway    time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the primary hash algorithm. Argon2 parameters are
// only used when Algorithm is "argon2id" or when verifying argon2id hashes.
type PasswordConfig struct {
	Algorithm   string // "bcrypt" (default) or "argon2id"
	MinLength   int
	BcryptCost  int
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig tunes one code-gated action (registration or password reset).
type OTPConfig struct {
	RedisPrefix       string
	TTL               time.Duration
	MaxResends        int
	ResendCooldown    time.Duration
	MaxVerifyFailures int
}

/*
====================================
SECURITY CONFIG
====================================
*/

type SecurityConfig struct {
	MaxLoginAttempts int
	LoginCooldown    time.Duration
	EnableIPThrottle bool

	// Unknown-email reset requests sleep for a random duration in
	// [EnumerationDelayMin, EnumerationDelayMax].
	EnumerationDelayMin time.Duration
	EnumerationDelayMax time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit relay. With DropIfFull a full
// buffer drops events instead of slowing requests down.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the production defaults. JWT.Secret is left empty
// and must be provided.
func DefaultConfig() Config {
	pw := password.DefaultConfig()
	return Config{
		JWT: JWTConfig{
			AccessTTL: time.Hour,
		},
		Password: PasswordConfig{
			Algorithm:   string(pw.Algorithm),
			MinLength:   pw.MinLength,
			BcryptCost:  pw.BcryptCost,
			Memory:      pw.Argon2.Memory,
			Time:        pw.Argon2.Time,
			Parallelism: pw.Argon2.Parallelism,
			SaltLength:  pw.Argon2.SaltLength,
			KeyLength:   pw.Argon2.KeyLength,
		},
		Registration: OTPConfig{
			RedisPrefix:       "registration",
			TTL:               600 * time.Second,
			MaxResends:        3,
			ResendCooldown:    60 * time.Second,
			MaxVerifyFailures: 5,
		},
		PasswordReset: OTPConfig{
			RedisPrefix:       "password-reset",
			TTL:               600 * time.Second,
			MaxResends:        3,
			ResendCooldown:    60 * time.Second,
			MaxVerifyFailures: 5,
		},
		Security: SecurityConfig{
			MaxLoginAttempts:    10,
			LoginCooldown:       15 * time.Minute,
			EnableIPThrottle:    true,
			EnumerationDelayMin: 50 * time.Millisecond,
			EnumerationDelayMax: 150 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (c PasswordConfig) hasherConfig() password.Config {
	return password.Config{
		Algorithm:  password.Algorithm(c.Algorithm),
		MinLength:  c.MinLength,
		BcryptCost: c.BcryptCost,
		Argon2: password.Argon2Config{
			Memory:      c.Memory,
			Time:        c.Time,
			Parallelism: c.Parallelism,
			SaltLength:  c.SaltLength,
			KeyLength:   c.KeyLength,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.Secret) < 16 {
		return errors.New("JWT Secret must be at least 16 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	switch password.Algorithm(c.Password.Algorithm) {
	case password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return errors.New("Password Algorithm must be 'bcrypt' or 'argon2id'")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// OTP actions
	if err := c.Registration.validate("Registration"); err != nil {
		return err
	}
	if err := c.PasswordReset.validate("PasswordReset"); err != nil {
		return err
	}
	if c.Registration.RedisPrefix == c.PasswordReset.RedisPrefix {
		return errors.New("Registration and PasswordReset RedisPrefix must differ")
	}

	// Security
	if c.Security.MaxLoginAttempts < 0 {
		return errors.New("Security MaxLoginAttempts must be >= 0")
	}
	if c.Security.MaxLoginAttempts > 0 && c.Security.LoginCooldown <= 0 {
		return errors.New("Security LoginCooldown must be > 0 when MaxLoginAttempts is set")
	}
	if c.Security.EnumerationDelayMin < 0 || c.Security.EnumerationDelayMax < c.Security.EnumerationDelayMin {
		return errors.New("Security EnumerationDelay range is invalid")
	}
	if c.Security.EnumerationDelayMax > 5*time.Second {
		return errors.New("Security EnumerationDelayMax must be <= 5s")
	}

	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("Audit BufferSize must be >= 1 when enabled")
	}

	return nil
}

func (c OTPConfig) validate(name string) error {
	if c.RedisPrefix == "" {
		return errors.New(name + " RedisPrefix must be set")
	}
	if c.TTL <= 0 {
		return errors.New(name + " TTL must be > 0")
	}
	if c.MaxResends < 1 {
		return errors.New(name + " MaxResends must be >= 1")
	}
	if c.ResendCooldown < 0 {
		return errors.New(name + " ResendCooldown must be >= 0")
	}
	if c.ResendCooldown >= c.TTL {
		return errors.New(name + " ResendCooldown must be shorter than TTL")
	}
	if c.MaxVerifyFailures < 0 {
		return errors.New(name + " MaxVerifyFailures must be >= 0")
	}
	return nil
}
