package password

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrUnsupportedHash  = errors.New("unsupported password hash encoding")
)

// Hasher hashes plaintext passwords and verifies them against stored
// encodings.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) (bool, error)
}

// Algorithm selects the primary hashing scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

const defaultMinLength = 1

// Config selects the primary algorithm and its work factor. Both parameter
// sets are kept so hashes written under the other algorithm still verify.
type Config struct {
	Algorithm  Algorithm
	MinLength  int
	BcryptCost int
	Argon2     Argon2Config
}

// DefaultConfig matches the deployed system: bcrypt with cost 10.
func DefaultConfig() Config {
	return Config{
		Algorithm:  AlgorithmBcrypt,
		MinLength:  defaultMinLength,
		BcryptCost: 10,
		Argon2: Argon2Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
	}
}

// Multi hashes with the configured algorithm and verifies any supported
// encoding by its prefix.
type Multi struct {
	algorithm Algorithm
	bcrypt    *Bcrypt
	argon2    *Argon2
}

func New(cfg Config) (*Multi, error) {
	if cfg.MinLength <= 0 {
		cfg.MinLength = defaultMinLength
	}

	bc, err := NewBcrypt(cfg.BcryptCost, cfg.MinLength)
	if err != nil {
		return nil, err
	}
	ar, err := NewArgon2(cfg.Argon2, cfg.MinLength)
	if err != nil {
		return nil, err
	}

	switch cfg.Algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	case "":
		cfg.Algorithm = AlgorithmBcrypt
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", cfg.Algorithm)
	}

	return &Multi{
		algorithm: cfg.Algorithm,
		bcrypt:    bc,
		argon2:    ar,
	}, nil
}

func (m *Multi) Hash(password string) (string, error) {
	if m.algorithm == AlgorithmArgon2id {
		return m.argon2.Hash(password)
	}
	return m.bcrypt.Hash(password)
}

func (m *Multi) Verify(password string, encodedHash string) (bool, error) {
	switch detect(encodedHash) {
	case AlgorithmBcrypt:
		return m.bcrypt.Verify(password, encodedHash)
	case AlgorithmArgon2id:
		return m.argon2.Verify(password, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsRehash reports whether encodedHash was produced by a different
// algorithm or with weaker parameters than the current configuration.
func (m *Multi) NeedsRehash(encodedHash string) bool {
	algo := detect(encodedHash)
	if algo != m.algorithm {
		return true
	}

	var (
		upgrade bool
		err     error
	)
	if algo == AlgorithmArgon2id {
		upgrade, err = m.argon2.NeedsUpgrade(encodedHash)
	} else {
		upgrade, err = m.bcrypt.NeedsUpgrade(encodedHash)
	}
	return err == nil && upgrade
}

func detect(encodedHash string) Algorithm {
	switch {
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return AlgorithmBcrypt
	case strings.HasPrefix(encodedHash, "$"+argon2AlgorithmID+"$"):
		return AlgorithmArgon2id
	default:
		return ""
	}
}

func checkLength(password string, minLength, maxLength int) error {
	// Raw bytes, no Unicode normalization.
	if len(password) < minLength {
		return fmt.Errorf("%w: minimum %d bytes", ErrPasswordTooShort, minLength)
	}
	if maxLength > 0 && len(password) > maxLength {
		return fmt.Errorf("%w: maximum %d bytes", ErrPasswordTooLong, maxLength)
	}
	return nil
}
