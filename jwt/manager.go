package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimsVersion is the only payload schema Verify accepts.
const ClaimsVersion = 1

const (
	defaultAccessTTL    = time.Hour
	defaultMaxFutureIAT = 10 * time.Minute
	minSecretBytes      = 16
)

// ErrInvalidToken is returned by Verify for every rejected token. The
// underlying cause is wrapped for logging only.
var ErrInvalidToken = errors.New("invalid token")

// Config configures token issuance. Secret is used for HS256 signing and
// verification and must not change after construction.
type Config struct {
	Secret       []byte
	AccessTTL    time.Duration
	Issuer       string
	Audience     string
	Leeway       time.Duration
	MaxFutureIAT time.Duration
}

// UserClaim is the identity carried by an access token.
type UserClaim struct {
	ID             string `json:"id"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email"`
}

// AccessClaims is the signed payload. The user claim is nested under "user"
// and versioned by "ver".
type AccessClaims struct {
	User    *UserClaim `json:"user"`
	Version int        `json:"ver"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 access tokens. It is safe for concurrent
// use.
type Manager struct {
	config Config
	now    func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minSecretBytes)
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.AccessTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = defaultMaxFutureIAT
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	cfg.Secret = secret

	return &Manager{config: cfg, now: time.Now}, nil
}

// AccessTTL returns the configured token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// Issue signs claim into a token valid for the configured TTL and returns the
// token together with its expiry.
func (m *Manager) Issue(claim UserClaim) (string, time.Time, error) {
	if err := validateClaim(claim); err != nil {
		return "", time.Time{}, err
	}

	now := m.now()
	expiresAt := now.Add(m.config.AccessTTL)
	user := claim

	claims := AccessClaims{
		User:    &user,
		Version: ClaimsVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claim.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    m.config.Issuer,
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt.Truncate(time.Second), nil
}

// Verify parses and validates token. Any failure yields ErrInvalidToken and a
// zero claim.
func (m *Manager) Verify(token string) (UserClaim, error) {
	claims, err := m.parse(token)
	if err != nil {
		return UserClaim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return *claims.User, nil
}

func (m *Manager) parse(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.IssuedAt == nil {
		return nil, errors.New("missing iat")
	}
	if claims.IssuedAt.Time.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, errors.New("token iat too far in the future")
	}
	if claims.Version != ClaimsVersion {
		return nil, fmt.Errorf("unsupported claims version %d", claims.Version)
	}
	if claims.User == nil {
		return nil, errors.New("missing user claim")
	}
	if err := validateClaim(*claims.User); err != nil {
		return nil, err
	}
	if claims.Subject != "" && claims.Subject != claims.User.ID {
		return nil, errors.New("subject does not match user id")
	}

	return claims, nil
}

func validateClaim(c UserClaim) error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return errors.New("claim missing id")
	case strings.TrimSpace(c.Role) == "":
		return errors.New("claim missing role")
	case strings.TrimSpace(c.OrganizationID) == "":
		return errors.New("claim missing organizationId")
	case strings.TrimSpace(c.Email) == "":
		return errors.New("claim missing email")
	}
	return nil
}
